package scene

import (
	"os"
	"path/filepath"

	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/bridger-herman/scriptable-game/internal/jsscript"
	"github.com/bridger-herman/scriptable-game/internal/logger"
	"github.com/bridger-herman/scriptable-game/internal/store"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const (
	propSource = "source"
	propClass  = "class"
)

// ErrMixedBackends is returned for objects that declare more than one
// JavaScript script or mix JavaScript with Go scripts.
var ErrMixedBackends = errors.New("an object carries either Go scripts or a single JavaScript script")

type Backend string

const (
	BackendGo Backend = "go"
	BackendJS Backend = "js"
)

// Binding records which script an entity was given, so JavaScript
// sources can be re-attached when they change on disk.
type Binding struct {
	Entity  behaviour.EntityID
	Object  string
	Backend Backend
	Class   string
	Source  string

	object SceneGameObject
}

// World wires a store, a script manager and a JavaScript host together.
// Like its parts it belongs to a single goroutine.
type World struct {
	Store      *store.MemoryStore
	Manager    *behaviour.ScriptManager
	Host       *jsscript.Host
	FixedEvery int

	bindings []Binding
	classes  map[string]string // absolute source path -> class
}

func NewWorld(host *jsscript.Host) *World {
	st := store.NewMemoryStore()
	return &World{
		Store:   st,
		Manager: behaviour.NewScriptManager(st),
		Host:    host,
		classes: make(map[string]string),
	}
}

// Bindings returns the script bindings made so far, in build order.
func (w *World) Bindings() []Binding {
	return append([]Binding(nil), w.bindings...)
}

// Build spawns every object of the scene, writes its starting transform
// and attaches its script. Objects whose script cannot be built are
// still spawned; their errors are combined into the returned error.
func (w *World) Build(data *SceneData, baseDir string) error {
	var errs error
	for _, obj := range data.GameObjects {
		id := w.Store.Spawn(obj.Name)
		if err := w.Store.UpdateTransform(id, obj.Transform().Snapshot()); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		script, binding, err := w.bind(obj, baseDir)
		if err != nil {
			logger.Log.Warn("Skipping script",
				zap.String("object", obj.Name),
				zap.Stringer("entity", id),
				zap.Error(err))
			errs = multierr.Append(errs, errors.Wrapf(err, "object %q", obj.Name))
			continue
		}
		if script == nil {
			continue
		}

		binding.Entity = id
		w.Manager.Attach(id, script)
		w.bindings = append(w.bindings, binding)
		logger.Log.Debug("Script attached",
			zap.String("object", obj.Name),
			zap.Stringer("entity", id),
			zap.String("backend", string(binding.Backend)),
			zap.String("class", binding.Class))
	}
	return errs
}

// Reload re-evaluates a JavaScript source and re-attaches a fresh
// instance to every entity bound to it. The fresh instance starts from
// the scene's starting transform. On a load error the running
// instances are kept.
func (w *World) Reload(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "resolve script path")
	}
	class, ok := w.classes[abs]
	if !ok {
		logger.Log.Debug("Ignoring change to unbound script", zap.String("path", abs))
		return nil
	}

	source, err := os.ReadFile(abs)
	if err != nil {
		return errors.Wrap(err, "read script")
	}
	if err := w.Host.Load(class, string(source)); err != nil {
		return errors.Wrapf(err, "reload %s", abs)
	}

	var errs error
	reattached := 0
	for _, b := range w.bindings {
		if b.Backend != BackendJS || b.Source != abs {
			continue
		}
		script, err := w.newJSHandle(b.object, class)
		if err != nil {
			errs = multierr.Append(errs, errors.Wrapf(err, "object %q", b.Object))
			continue
		}
		w.Manager.Attach(b.Entity, script)
		reattached++
	}
	logger.Log.Info("Script reloaded",
		zap.String("path", abs),
		zap.String("class", class),
		zap.Int("entities", reattached))
	return errs
}

func (w *World) bind(obj SceneGameObject, baseDir string) (behaviour.Script, Binding, error) {
	binding := Binding{Object: obj.Name, object: obj}
	comps := obj.scriptComponents()
	if len(comps) == 0 {
		return nil, binding, nil
	}

	var js []SceneComponent
	for _, c := range comps {
		if c.source() != "" {
			js = append(js, c)
		}
	}

	if len(js) == 0 {
		script, names, err := w.newGoScript(obj, comps)
		binding.Backend = BackendGo
		binding.Class = names
		return script, binding, err
	}
	if len(js) > 1 || len(js) != len(comps) {
		return nil, binding, ErrMixedBackends
	}

	c := js[0]
	source := c.source()
	if !filepath.IsAbs(source) {
		source = filepath.Join(baseDir, source)
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return nil, binding, errors.Wrap(err, "resolve script path")
	}
	class, err := w.loadSource(abs, c.class())
	if err != nil {
		return nil, binding, err
	}

	script, err := w.newJSHandle(obj, class)
	if err != nil {
		return nil, binding, err
	}
	binding.Backend = BackendJS
	binding.Class = class
	binding.Source = abs
	return script, binding, nil
}

func (w *World) loadSource(abs, class string) (string, error) {
	if w.Host == nil {
		return "", errors.New("no JavaScript host configured")
	}
	if loaded, ok := w.classes[abs]; ok {
		return loaded, nil
	}
	if class == "" {
		class = jsscript.ClassName(abs)
	}
	source, err := os.ReadFile(abs)
	if err != nil {
		return "", errors.Wrap(err, "read script")
	}
	if err := w.Host.Load(class, string(source)); err != nil {
		return "", err
	}
	w.classes[abs] = class
	return class, nil
}

func (w *World) newJSHandle(obj SceneGameObject, class string) (*jsscript.Handle, error) {
	handle, err := w.Host.New(class)
	if err != nil {
		return nil, err
	}
	t := obj.Transform()
	if err := handle.SetTransform(t.Position, t.Rotation, t.Scale); err != nil {
		return nil, err
	}
	for _, c := range obj.scriptComponents() {
		for k, v := range c.Properties {
			if k == propSource || k == propClass {
				continue
			}
			if err := handle.SetProperty(k, v); err != nil {
				return nil, err
			}
		}
	}
	return handle, nil
}

func (w *World) newGoScript(obj SceneGameObject, comps []SceneComponent) (*behaviour.ComponentScript, string, error) {
	gameObject := behaviour.NewGameObject(obj.Name)
	gameObject.Tag = obj.Tag
	gameObject.Active = obj.IsActive()
	gameObject.Transform = obj.Transform()
	gameObject.Transform.SetGameObject(gameObject)

	names := ""
	for _, c := range comps {
		comp := behaviour.CreateScript(c.Type)
		if comp == nil {
			return nil, "", errors.Wrapf(behaviour.ErrUnknownScript, "%q", c.Type)
		}
		if err := decodeProperties(c.Properties, comp); err != nil {
			return nil, "", errors.Wrapf(err, "script %s", c.Type)
		}
		gameObject.AddComponent(comp)
		if names != "" {
			names += ","
		}
		names += c.Type
	}

	script := behaviour.NewComponentScript(gameObject)
	script.FixedEvery = w.FixedEvery
	return script, names, nil
}

// decodeProperties copies scene properties onto exported script fields.
// Keys are matched case-insensitively; unknown keys are ignored.
func decodeProperties(props map[string]interface{}, comp behaviour.Component) error {
	if len(props) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           comp,
	})
	if err != nil {
		return err
	}
	return dec.Decode(props)
}
