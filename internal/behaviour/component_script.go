package behaviour

import "github.com/pkg/errors"

// ComponentScript adapts a GameObject and its components to Script.
// The first AdvanceTick runs Start, every AdvanceTick runs Update, and
// FixedUpdate runs every FixedEvery ticks when FixedEvery > 0.
// Inactive objects are not updated but still report their transform.
type ComponentScript struct {
	Object     *GameObject
	FixedEvery int

	started bool
	ticks   int
}

func NewComponentScript(obj *GameObject) *ComponentScript {
	return &ComponentScript{Object: obj}
}

func (c *ComponentScript) AdvanceTick() error {
	if c.Object == nil {
		return errors.New("component script has no game object")
	}
	if c.Object.destroyed {
		return errors.Errorf("game object %q was destroyed", c.Object.Name)
	}
	if !c.Object.Active {
		return nil
	}

	if !c.started {
		c.Object.internalStart()
		c.started = true
	}
	c.Object.internalUpdate()

	c.ticks++
	if c.FixedEvery > 0 && c.ticks%c.FixedEvery == 0 {
		c.Object.internalFixedUpdate()
	}
	return nil
}

func (c *ComponentScript) QueryTransform() (TransformSnapshot, error) {
	if c.Object == nil || c.Object.Transform == nil {
		return TransformSnapshot{}, errors.Wrap(ErrMalformedTransform, "component script has no transform")
	}
	return c.Object.Transform.Snapshot(), nil
}

func (c *ComponentScript) OnDestroy() {
	if c.Object != nil {
		c.Object.Destroy()
	}
}
