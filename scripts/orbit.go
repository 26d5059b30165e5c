package scripts

import (
	"math"

	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/go-gl/mathgl/mgl32"
)

// OrbitScript circles its object around Center on the XZ plane.
type OrbitScript struct {
	behaviour.BaseComponent
	Radius    float32
	Speed     float32
	DeltaTime float32
	Center    mgl32.Vec3
	time      float32
}

func init() {
	behaviour.RegisterScript("OrbitScript", func() behaviour.Component {
		return &OrbitScript{Radius: 10.0, Speed: 1.0, DeltaTime: DefaultDeltaTime}
	})
}

func (o *OrbitScript) Start() {
	o.Center[1] = o.GetGameObject().Transform.Position.Y()
}

func (o *OrbitScript) Update() {
	o.time += o.DeltaTime * o.Speed

	x := float32(math.Cos(float64(o.time))) * o.Radius
	z := float32(math.Sin(float64(o.time))) * o.Radius

	pos := &o.GetGameObject().Transform.Position
	pos[0] = o.Center[0] + x
	pos[1] = o.Center[1]
	pos[2] = o.Center[2] + z
}
