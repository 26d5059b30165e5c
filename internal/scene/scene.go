// Package scene loads scene files and attaches the scripts they declare.
package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// CategoryScript marks a component that attaches a script.
const CategoryScript = "Script"

// Scene file layout, shared with the editor format.
type SceneData struct {
	Name        string            `json:"name,omitempty" yaml:"name,omitempty"`
	GameObjects []SceneGameObject `json:"game_objects,omitempty" yaml:"game_objects,omitempty"`
}

type SceneGameObject struct {
	Name       string           `json:"name" yaml:"name"`
	Tag        string           `json:"tag,omitempty" yaml:"tag,omitempty"`
	Active     *bool            `json:"active,omitempty" yaml:"active,omitempty"`
	Position   [3]float32       `json:"position" yaml:"position"`
	Rotation   [3]float32       `json:"rotation" yaml:"rotation"` // euler degrees
	Scale      [3]float32       `json:"scale" yaml:"scale"`
	Components []SceneComponent `json:"components,omitempty" yaml:"components,omitempty"`
}

// SceneComponent with category "Script" is either a registered Go
// script named by Type, or a JavaScript file given by properties.source.
type SceneComponent struct {
	Type       string                 `json:"type" yaml:"type"`
	Category   string                 `json:"category" yaml:"category"`
	Properties map[string]interface{} `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// Load reads a scene from JSON, or YAML when the extension is .yaml or .yml.
func Load(path string) (*SceneData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read scene")
	}

	var scene SceneData
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &scene)
	default:
		err = json.Unmarshal(data, &scene)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parse scene %s", path)
	}
	return &scene, nil
}

// IsActive defaults to true when the file does not say otherwise.
func (o SceneGameObject) IsActive() bool {
	return o.Active == nil || *o.Active
}

// Transform builds the object's starting transform. A zero scale means
// unit scale.
func (o SceneGameObject) Transform() *behaviour.Transform {
	t := behaviour.NewTransform()
	t.SetPosition(mgl32.Vec3(o.Position))
	t.SetEuler(o.Rotation[0], o.Rotation[1], o.Rotation[2])
	if o.Scale != ([3]float32{}) {
		t.SetScale(mgl32.Vec3(o.Scale))
	}
	return t
}

func (o SceneGameObject) scriptComponents() []SceneComponent {
	var out []SceneComponent
	for _, c := range o.Components {
		if strings.EqualFold(c.Category, CategoryScript) {
			out = append(out, c)
		}
	}
	return out
}

func (c SceneComponent) source() string {
	s, _ := c.Properties[propSource].(string)
	return s
}

func (c SceneComponent) class() string {
	s, _ := c.Properties[propClass].(string)
	return s
}
