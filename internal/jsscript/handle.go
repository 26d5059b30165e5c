package jsscript

import (
	"reflect"
	"strconv"

	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/dop251/goja"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handle is one instance of a JavaScript Script subclass.
type Handle struct {
	host      *Host
	class     string
	obj       *goja.Object
	destroyed bool
}

var _ behaviour.Script = (*Handle)(nil)
var _ behaviour.Destroyer = (*Handle)(nil)

// Class returns the name of the class this handle was created from.
func (h *Handle) Class() string {
	return h.class
}

// Object returns the script instance.
func (h *Handle) Object() *goja.Object {
	return h.obj
}

// AdvanceTick calls updateWrapper on the instance. Exceptions thrown by
// the script are returned as behaviour.ErrScriptStep.
func (h *Handle) AdvanceTick() error {
	if h.destroyed {
		return errors.Wrapf(behaviour.ErrScriptStep, "%s: handle was destroyed", h.class)
	}
	if _, err := h.call("updateWrapper"); err != nil {
		return errors.Wrapf(behaviour.ErrScriptStep, "%s: %v", h.class, err)
	}
	return nil
}

// QueryTransform calls getTransform and accepts the result only if it
// is an array-like value of exactly 16 finite numbers.
func (h *Handle) QueryTransform() (behaviour.TransformSnapshot, error) {
	if h.destroyed {
		return behaviour.TransformSnapshot{}, errors.Wrapf(behaviour.ErrMalformedTransform, "%s: handle was destroyed", h.class)
	}
	v, err := h.call("getTransform")
	if err != nil {
		return behaviour.TransformSnapshot{}, errors.Wrapf(behaviour.ErrMalformedTransform, "%s: %v", h.class, err)
	}
	values, err := h.host.numbers(v)
	if err != nil {
		return behaviour.TransformSnapshot{}, errors.WithMessage(err, h.class)
	}
	return behaviour.SnapshotFromValues(values)
}

// OnDestroy runs the script's onDestroy hook once. Later calls to
// AdvanceTick and QueryTransform fail.
func (h *Handle) OnDestroy() {
	if h.destroyed {
		return
	}
	h.destroyed = true
	if _, err := h.call("onDestroy"); err != nil {
		logger.Log.Warn("Script onDestroy failed", zap.String("class", h.class), zap.Error(err))
	}
}

// SetTransform seeds transform.position, rotation and scale before the first tick.
func (h *Handle) SetTransform(position mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) error {
	rt := h.host.rt
	t := rt.NewObject()
	sets := []struct {
		key string
		val *goja.Object
	}{
		{"position", rt.NewArray(position[0], position[1], position[2])},
		{"rotation", rt.NewArray(rotation.V[0], rotation.V[1], rotation.V[2], rotation.W)},
		{"scale", rt.NewArray(scale[0], scale[1], scale[2])},
	}
	for _, s := range sets {
		if err := t.Set(s.key, s.val); err != nil {
			return errors.Wrapf(err, "%s: set transform.%s", h.class, s.key)
		}
	}
	return errors.Wrapf(h.obj.Set("transform", t), "%s: set transform", h.class)
}

// SetProperty assigns a field on the instance, e.g. a value from a scene file.
func (h *Handle) SetProperty(key string, value interface{}) error {
	return errors.Wrapf(h.obj.Set(key, h.host.rt.ToValue(value)), "%s: set %s", h.class, key)
}

func (h *Handle) call(method string) (goja.Value, error) {
	fn, ok := goja.AssertFunction(h.obj.Get(method))
	if !ok {
		return nil, errors.Errorf("%s is not a function", method)
	}
	return fn(h.obj)
}

// numbers reads an Array or typed array of exactly 16 numbers. Other
// objects are rejected even when they carry a length.
func (host *Host) numbers(v goja.Value) ([]float64, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, errors.Wrap(behaviour.ErrMalformedTransform, "getTransform returned nothing")
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, errors.Wrapf(behaviour.ErrMalformedTransform, "getTransform returned %s, not an array", typeName(v))
	}

	list, err := host.isList(goja.Undefined(), obj)
	if err != nil || !list.ToBoolean() {
		return nil, errors.Wrapf(behaviour.ErrMalformedTransform, "getTransform returned %s, not an array", obj.ClassName())
	}

	length := obj.Get("length")
	if length == nil || !isNumber(length) {
		return nil, errors.Wrap(behaviour.ErrMalformedTransform, "getTransform result has no numeric length")
	}
	if length.ToFloat() != behaviour.TransformElements {
		return nil, errors.Wrapf(behaviour.ErrMalformedTransform, "expected %d elements, got %v", behaviour.TransformElements, length)
	}
	values := make([]float64, behaviour.TransformElements)
	for i := range values {
		el := obj.Get(strconv.Itoa(i))
		if el == nil || !isNumber(el) {
			return nil, errors.Wrapf(behaviour.ErrMalformedTransform, "element %d is %s, not a number", i, typeName(el))
		}
		values[i] = el.ToFloat()
	}
	return values, nil
}

func isNumber(v goja.Value) bool {
	t := v.ExportType()
	if t == nil {
		return false
	}
	switch t.Kind() {
	case reflect.Int64, reflect.Float64:
		return true
	}
	return false
}

func typeName(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if t := v.ExportType(); t != nil {
		return t.String()
	}
	return "unknown"
}
