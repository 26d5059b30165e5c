package behaviour

import (
	"sort"

	"github.com/pkg/errors"
)

// ErrUnknownScript is returned when no constructor is registered under a name.
var ErrUnknownScript = errors.New("unknown script")

type ScriptConstructor func() Component

var scriptRegistry = make(map[string]ScriptConstructor)

// RegisterScript makes a native script available by name.
// Registering the same name twice replaces the constructor.
func RegisterScript(name string, constructor ScriptConstructor) {
	scriptRegistry[name] = constructor
}

// GetAvailableScripts returns the registered names, sorted.
func GetAvailableScripts() []string {
	names := make([]string, 0, len(scriptRegistry))
	for name := range scriptRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CreateScript builds a fresh component from the registry, or nil.
func CreateScript(name string) Component {
	if constructor, exists := scriptRegistry[name]; exists {
		return constructor()
	}
	return nil
}

// NewScriptObject creates a GameObject named objName carrying the
// registered script scriptName and wraps it as a Script handle.
func NewScriptObject(objName, scriptName string) (*ComponentScript, error) {
	comp := CreateScript(scriptName)
	if comp == nil {
		return nil, errors.Wrapf(ErrUnknownScript, "%q", scriptName)
	}
	obj := NewGameObject(objName)
	obj.AddComponent(comp)
	return NewComponentScript(obj), nil
}
