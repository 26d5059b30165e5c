package behaviour

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

var (
	// ErrScriptStep means a script could not advance by one tick.
	ErrScriptStep = errors.New("script step failed")
	// ErrMalformedTransform means a script reported something that is
	// not 16 finite numbers.
	ErrMalformedTransform = errors.New("malformed transform")
	// ErrStoreWrite means the transform store rejected a write.
	ErrStoreWrite = errors.New("transform store write failed")
)

// Stage is the point of the per-entity pipeline where a failure happened.
type Stage string

const (
	StageAdvance Stage = "advance"
	StageQuery   Stage = "query"
	StageStore   Stage = "store"
)

func (s Stage) kind() error {
	switch s {
	case StageAdvance:
		return ErrScriptStep
	case StageQuery:
		return ErrMalformedTransform
	case StageStore:
		return ErrStoreWrite
	}
	return nil
}

// ScriptError is one entity's failure during a tick. It matches the
// error kind of its stage with errors.Is and unwraps to the cause.
type ScriptError struct {
	Entity EntityID
	Stage  Stage
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("entity %d: %s: %v", e.Entity, e.Stage, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

func (e *ScriptError) Is(target error) bool {
	return target != nil && target == e.Stage.kind()
}

// TickReport summarises one pass over the attached scripts.
type TickReport struct {
	// Ticked is the number of scripts visited.
	Ticked int
	// Applied is the number of transforms written to the store.
	Applied int
	// Failed lists the entities whose script failed, in ascending order.
	Failed []EntityID
	// Errors holds one entry per failed entity, in the same order.
	Errors []*ScriptError
}

// OK reports whether every script was applied.
func (r TickReport) OK() bool {
	return len(r.Failed) == 0
}

// Contains reports whether id failed this tick.
func (r TickReport) Contains(id EntityID) bool {
	for _, f := range r.Failed {
		if f == id {
			return true
		}
	}
	return false
}

// ErrorFor returns the failure recorded for id, if any.
func (r TickReport) ErrorFor(id EntityID) *ScriptError {
	for _, e := range r.Errors {
		if e.Entity == id {
			return e
		}
	}
	return nil
}

// Err combines every failure into one error, or nil on a clean tick.
func (r TickReport) Err() error {
	var err error
	for _, e := range r.Errors {
		err = multierr.Append(err, e)
	}
	return err
}

func (r *TickReport) fail(e *ScriptError) {
	r.Failed = append(r.Failed, e.Entity)
	r.Errors = append(r.Errors, e)
}
