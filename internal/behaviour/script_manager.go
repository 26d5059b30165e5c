package behaviour

import (
	"reflect"
	"slices"
	"sort"

	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/kamstrup/intmap"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var errNoStore = errors.New("script manager has no transform store")

// ScriptManager owns the script attached to each entity and, once per
// tick, advances every script and writes its transform to the store.
//
// Entities are visited in ascending EntityID order. The manager has no
// locks: it must be created, mutated and ticked from one goroutine.
// Attach and Detach must not be called from inside a script while Tick
// is running.
type ScriptManager struct {
	store   TransformWriter
	scripts *intmap.Map[EntityID, Script]
	order   []EntityID
	pass    []EntityID
}

// NewScriptManager creates an empty manager writing into store.
func NewScriptManager(store TransformWriter) *ScriptManager {
	return &ScriptManager{
		store:   store,
		scripts: intmap.New[EntityID, Script](64),
	}
}

// Attach sets the script for id. A script already attached to id is
// destroyed before the new one is stored. Attaching nil removes and
// destroys the current script.
func (m *ScriptManager) Attach(id EntityID, script Script) {
	old, exists := m.scripts.Get(id)
	if script == nil {
		if exists {
			m.remove(id)
			destroy(id, old)
		}
		return
	}

	if exists {
		if sameScript(old, script) {
			return
		}
		destroy(id, old)
	} else {
		i, _ := m.search(id)
		m.order = slices.Insert(m.order, i, id)
	}
	m.scripts.Put(id, script)
}

// Detach removes the script for id and hands it back to the caller,
// who becomes responsible for it. It is a no-op when nothing is attached.
func (m *ScriptManager) Detach(id EntityID) (Script, bool) {
	script, ok := m.scripts.Get(id)
	if !ok {
		return nil, false
	}
	m.remove(id)
	return script, true
}

// Script returns the script attached to id.
func (m *ScriptManager) Script(id EntityID) (Script, bool) {
	return m.scripts.Get(id)
}

// Has reports whether id has a script.
func (m *ScriptManager) Has(id EntityID) bool {
	_, ok := m.scripts.Get(id)
	return ok
}

// Len returns the number of attached scripts.
func (m *ScriptManager) Len() int {
	return len(m.order)
}

// Entities returns the entities with a script, in tick order.
func (m *ScriptManager) Entities() []EntityID {
	return slices.Clone(m.order)
}

// Clear destroys every script and leaves the manager empty.
func (m *ScriptManager) Clear() {
	for _, id := range m.order {
		if script, ok := m.scripts.Get(id); ok {
			destroy(id, script)
		}
	}
	m.scripts = intmap.New[EntityID, Script](64)
	m.order = m.order[:0]
}

// Tick advances every attached script, queries its transform and
// writes it to the store. A failure at any stage skips the rest of
// that entity's work for this tick and is recorded in the report; the
// remaining entities are still processed.
func (m *ScriptManager) Tick() TickReport {
	var report TickReport

	m.pass = append(m.pass[:0], m.order...)
	for _, id := range m.pass {
		script, ok := m.scripts.Get(id)
		if !ok {
			continue
		}
		report.Ticked++

		if err := m.run(id, script); err != nil {
			logger.Log.Warn("Script failed",
				zap.Stringer("entity", id),
				zap.String("stage", string(err.Stage)),
				zap.Error(err.Err))
			report.fail(err)
			continue
		}
		report.Applied++
	}
	return report
}

func (m *ScriptManager) run(id EntityID, script Script) *ScriptError {
	if err := advance(script); err != nil {
		return &ScriptError{Entity: id, Stage: StageAdvance, Err: err}
	}

	snap, err := query(script)
	if err == nil {
		err = snap.Validate()
	}
	if err != nil {
		return &ScriptError{Entity: id, Stage: StageQuery, Err: err}
	}

	if err := m.write(id, snap); err != nil {
		return &ScriptError{Entity: id, Stage: StageStore, Err: err}
	}
	return nil
}

func (m *ScriptManager) write(id EntityID, snap TransformSnapshot) (err error) {
	if m.store == nil {
		return errNoStore
	}
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("store panicked: %v", r)
		}
	}()
	return m.store.UpdateTransform(id, snap)
}

func (m *ScriptManager) search(id EntityID) (int, bool) {
	i := sort.Search(len(m.order), func(i int) bool { return m.order[i] >= id })
	return i, i < len(m.order) && m.order[i] == id
}

func (m *ScriptManager) remove(id EntityID) {
	m.scripts.Del(id)
	if i, ok := m.search(id); ok {
		m.order = slices.Delete(m.order, i, i+1)
	}
}

func advance(script Script) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("script panicked: %v", r)
		}
	}()
	return script.AdvanceTick()
}

func query(script Script) (snap TransformSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrMalformedTransform, "script panicked: %v", r)
		}
	}()
	return script.QueryTransform()
}

func destroy(id EntityID, script Script) {
	d, ok := script.(Destroyer)
	if !ok {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Log.Error("Script panicked in OnDestroy",
				zap.Stringer("entity", id),
				zap.Any("panic", r))
		}
	}()
	d.OnDestroy()
}

// sameScript reports whether a and b are the same pointer. Value
// handles are never the same, since comparing them can panic.
func sameScript(a, b Script) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Kind() != reflect.Pointer || vb.Kind() != reflect.Pointer || va.Type() != vb.Type() {
		return false
	}
	return va.Pointer() == vb.Pointer()
}
