// Package store holds the authoritative per-entity transform state that
// script results are written into.
package store

import (
	"slices"
	"sort"

	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrUnknownEntity is returned for ids that were never spawned or were despawned.
var ErrUnknownEntity = errors.New("unknown entity")

type record struct {
	name      string
	transform behaviour.TransformSnapshot
	version   uint64
}

// MemoryStore is an in-memory entity and transform store. Like the
// script manager it has no locks and belongs to the driving goroutine.
type MemoryStore struct {
	next    behaviour.EntityID
	records map[behaviour.EntityID]*record
}

var _ behaviour.TransformWriter = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		next:    1,
		records: make(map[behaviour.EntityID]*record),
	}
}

// Spawn allocates a new entity at the identity transform.
func (s *MemoryStore) Spawn(name string) behaviour.EntityID {
	id := s.next
	s.next++
	s.records[id] = &record{name: name, transform: behaviour.IdentitySnapshot()}
	return id
}

// Despawn removes id. Later writes to it fail with ErrUnknownEntity.
func (s *MemoryStore) Despawn(id behaviour.EntityID) bool {
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	return true
}

func (s *MemoryStore) Exists(id behaviour.EntityID) bool {
	_, ok := s.records[id]
	return ok
}

func (s *MemoryStore) Name(id behaviour.EntityID) string {
	if r, ok := s.records[id]; ok {
		return r.name
	}
	return ""
}

// Transform returns the last transform written for id.
func (s *MemoryStore) Transform(id behaviour.EntityID) (behaviour.TransformSnapshot, bool) {
	r, ok := s.records[id]
	if !ok {
		return behaviour.TransformSnapshot{}, false
	}
	return r.transform, true
}

// Matrix returns the last transform written for id as an mgl32 matrix.
func (s *MemoryStore) Matrix(id behaviour.EntityID) (mgl32.Mat4, bool) {
	snap, ok := s.Transform(id)
	return snap.Mat4(), ok
}

// Version counts the writes applied to id since it was spawned.
func (s *MemoryStore) Version(id behaviour.EntityID) uint64 {
	if r, ok := s.records[id]; ok {
		return r.version
	}
	return 0
}

// UpdateTransform replaces the transform of id.
func (s *MemoryStore) UpdateTransform(id behaviour.EntityID, snap behaviour.TransformSnapshot) error {
	r, ok := s.records[id]
	if !ok {
		return errors.Wrapf(ErrUnknownEntity, "entity %d", id)
	}
	r.transform = snap
	r.version++
	return nil
}

// Entities returns every live entity in ascending order.
func (s *MemoryStore) Entities() []behaviour.EntityID {
	ids := make([]behaviour.EntityID, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Len returns the number of live entities.
func (s *MemoryStore) Len() int {
	return len(s.records)
}

// Find returns the entities spawned with name, in ascending order.
func (s *MemoryStore) Find(name string) []behaviour.EntityID {
	var ids []behaviour.EntityID
	for _, id := range s.Entities() {
		if s.records[id].name == name {
			ids = append(ids, id)
		}
	}
	return slices.Clip(ids)
}
