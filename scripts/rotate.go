package scripts

import (
	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/go-gl/mathgl/mgl32"
)

// RotateScript spins its object around the Y axis.
type RotateScript struct {
	behaviour.BaseComponent
	Speed     float32 // degrees per second
	DeltaTime float32
}

func init() {
	behaviour.RegisterScript("RotateScript", func() behaviour.Component {
		return &RotateScript{Speed: 45.0, DeltaTime: DefaultDeltaTime}
	})
}

func (r *RotateScript) Update() {
	transform := r.GetGameObject().Transform
	transform.Rotate(mgl32.Vec3{0, 1, 0}, mgl32.DegToRad(r.Speed*r.DeltaTime))
}
