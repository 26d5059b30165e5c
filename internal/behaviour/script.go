package behaviour

// Script is one attached behaviour unit. Implementations wrap an
// execution context the manager does not control, so both calls are
// treated as untrusted: errors and panics are caught per entity.
//
// A Script is confined to the goroutine that drives the manager. None
// of the backends in this module are safe for concurrent use.
type Script interface {
	// AdvanceTick runs one step of the script's logic.
	AdvanceTick() error
	// QueryTransform reports the script's current world transform.
	QueryTransform() (TransformSnapshot, error)
}

// Destroyer is implemented by scripts that hold resources. OnDestroy is
// called when the manager drops the script: on replacement, on Clear,
// and when Attach is given a nil script.
type Destroyer interface {
	OnDestroy()
}

// TransformWriter is the write side of the entity store.
type TransformWriter interface {
	UpdateTransform(id EntityID, snap TransformSnapshot) error
}

// TransformWriterFunc adapts a function to TransformWriter.
type TransformWriterFunc func(id EntityID, snap TransformSnapshot) error

func (f TransformWriterFunc) UpdateTransform(id EntityID, snap TransformSnapshot) error {
	return f(id, snap)
}
