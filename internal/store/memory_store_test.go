package store

import (
	"testing"

	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnStartsAtIdentity(t *testing.T) {
	s := NewMemoryStore()

	a := s.Spawn("a")
	b := s.Spawn("b")

	assert.Equal(t, behaviour.EntityID(1), a)
	assert.Equal(t, behaviour.EntityID(2), b)
	snap, ok := s.Transform(a)
	require.True(t, ok)
	assert.Equal(t, behaviour.IdentitySnapshot(), snap)
	assert.Equal(t, uint64(0), s.Version(a))
}

func TestUpdateTransform(t *testing.T) {
	s := NewMemoryStore()
	id := s.Spawn("cube")
	snap := behaviour.SnapshotFromMat4(mgl32.Translate3D(1, 2, 3))

	require.NoError(t, s.UpdateTransform(id, snap))

	got, ok := s.Matrix(id)
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, got.Col(3).Vec3())
	assert.Equal(t, uint64(1), s.Version(id))
}

func TestUpdateUnknownEntity(t *testing.T) {
	s := NewMemoryStore()
	id := s.Spawn("gone")
	require.True(t, s.Despawn(id))

	err := s.UpdateTransform(id, behaviour.IdentitySnapshot())

	assert.ErrorIs(t, err, ErrUnknownEntity)
	assert.False(t, s.Despawn(id))
	assert.False(t, s.Exists(id))
}

func TestEntitiesAndFind(t *testing.T) {
	s := NewMemoryStore()
	s.Spawn("sphere")
	cube := s.Spawn("cube")
	s.Spawn("sphere")

	assert.Equal(t, []behaviour.EntityID{1, 2, 3}, s.Entities())
	assert.Equal(t, []behaviour.EntityID{1, 3}, s.Find("sphere"))
	assert.Equal(t, "cube", s.Name(cube))
	assert.Equal(t, 3, s.Len())
}

func TestManagerWritesIntoStore(t *testing.T) {
	s := NewMemoryStore()
	alive := s.Spawn("alive")
	stale := s.Spawn("stale")
	s.Despawn(stale)

	m := behaviour.NewScriptManager(s)
	obj := behaviour.NewGameObject("alive")
	obj.Transform.SetPosition(mgl32.Vec3{4, 5, 6})
	m.Attach(alive, behaviour.NewComponentScript(obj))
	m.Attach(stale, behaviour.NewComponentScript(behaviour.NewGameObject("stale")))

	report := m.Tick()

	require.Equal(t, []behaviour.EntityID{stale}, report.Failed)
	assert.ErrorIs(t, report.Err(), behaviour.ErrStoreWrite)
	assert.ErrorIs(t, report.Err(), ErrUnknownEntity)
	snap, _ := s.Transform(alive)
	assert.Equal(t, mgl32.Vec3{4, 5, 6}, snap.Translation())
}
