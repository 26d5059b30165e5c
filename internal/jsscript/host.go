// Package jsscript runs entity scripts written in JavaScript. A Host
// owns one goja runtime; every Handle created from it shares that
// runtime and must be driven from the Host's goroutine.
package jsscript

import (
	_ "embed"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/dop251/goja"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

//go:embed prelude.js
var prelude string

var (
	// ErrUnknownClass is returned by New for names that were never loaded.
	ErrUnknownClass = errors.New("unknown script class")
	// ErrNotScriptClass is returned by Load when module.exports is not a
	// class extending Script.
	ErrNotScriptClass = errors.New("module does not export a Script subclass")
)

type Host struct {
	rt      *goja.Runtime
	base    *goja.Object
	classes map[string]*goja.Object
	isList  goja.Callable
}

func NewHost() (*Host, error) {
	rt := goja.New()
	h := &Host{rt: rt, classes: make(map[string]*goja.Object)}

	if err := rt.Set("console", h.console()); err != nil {
		return nil, errors.Wrap(err, "install console")
	}
	// Class declarations are lexically scoped, so export Script explicitly.
	if _, err := rt.RunScript("prelude.js", prelude+"\nthis.Script = Script; this.math3d = math3d;"); err != nil {
		return nil, errors.Wrap(err, "run prelude")
	}
	base, ok := rt.Get("Script").(*goja.Object)
	if !ok {
		return nil, errors.New("prelude did not define Script")
	}
	h.base = base

	isList, err := rt.RunString("(v) => Array.isArray(v) || (ArrayBuffer.isView(v) && !(v instanceof DataView))")
	if err != nil {
		return nil, errors.Wrap(err, "install list check")
	}
	h.isList, _ = goja.AssertFunction(isList)
	return h, nil
}

// Load evaluates source as a module and registers the class it assigns
// to module.exports under name, replacing any earlier class of that name.
func (h *Host) Load(name, source string) error {
	wrapped := "(function (Script, module, exports) {\n" + source + "\n})"
	fnVal, err := h.rt.RunScript(name, wrapped)
	if err != nil {
		return errors.Wrapf(err, "compile %s", name)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return errors.Errorf("compile %s: module wrapper is not callable", name)
	}

	module := h.rt.NewObject()
	exports := h.rt.NewObject()
	if err := module.Set("exports", exports); err != nil {
		return errors.Wrapf(err, "load %s", name)
	}
	if _, err := fn(goja.Undefined(), h.base, module, exports); err != nil {
		return errors.Wrapf(err, "evaluate %s", name)
	}

	class, ok := module.Get("exports").(*goja.Object)
	if !ok || !h.extendsScript(class) {
		return errors.Wrapf(ErrNotScriptClass, "%s", name)
	}
	h.classes[name] = class
	logger.Log.Debug("Script class loaded", zap.String("class", name))
	return nil
}

// LoadFile loads a .js file under the class name taken from its base name.
func (h *Host) LoadFile(path string) (string, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(err, "read script")
	}
	name := ClassName(path)
	return name, h.Load(name, string(source))
}

// New instantiates a loaded class.
func (h *Host) New(name string) (*Handle, error) {
	class, ok := h.classes[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownClass, "%q", name)
	}
	obj, err := h.rt.New(class)
	if err != nil {
		return nil, errors.Wrapf(err, "construct %s", name)
	}
	return &Handle{host: h, class: name, obj: obj}, nil
}

// Has reports whether a class is loaded under name.
func (h *Host) Has(name string) bool {
	_, ok := h.classes[name]
	return ok
}

// Classes returns the loaded class names, sorted.
func (h *Host) Classes() []string {
	names := make([]string, 0, len(h.classes))
	for name := range h.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runtime exposes the underlying runtime for host bindings.
func (h *Host) Runtime() *goja.Runtime {
	return h.rt
}

func (h *Host) extendsScript(class *goja.Object) bool {
	if _, ok := goja.AssertFunction(class); !ok {
		return false
	}
	proto, ok := class.Get("prototype").(*goja.Object)
	if !ok {
		return false
	}
	baseProto := h.base.Get("prototype")
	for p := proto.Prototype(); p != nil; p = p.Prototype() {
		if p.SameAs(baseProto) {
			return true
		}
	}
	return false
}

func (h *Host) console() map[string]interface{} {
	format := func(call goja.FunctionCall) string {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		return strings.Join(parts, " ")
	}
	return map[string]interface{}{
		"log": func(call goja.FunctionCall) goja.Value {
			logger.Log.Info(format(call), zap.String("source", "script"))
			return goja.Undefined()
		},
		"warn": func(call goja.FunctionCall) goja.Value {
			logger.Log.Warn(format(call), zap.String("source", "script"))
			return goja.Undefined()
		},
		"error": func(call goja.FunctionCall) goja.Value {
			logger.Log.Error(format(call), zap.String("source", "script"))
			return goja.Undefined()
		},
	}
}

// ClassName derives a class name from a script path: "scripts/spin.js" -> "spin".
func ClassName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
