package scripts

import (
	"github.com/aquilax/go-perlin"
	"github.com/bridger-herman/scriptable-game/internal/behaviour"
	"github.com/go-gl/mathgl/mgl32"
)

// WanderScript drifts its object on the XZ plane following Perlin noise,
// facing the way it moves.
// The same Seed always produces the same path.
type WanderScript struct {
	behaviour.BaseComponent
	Seed      int64
	Range     float32
	Speed     float32
	DeltaTime float32

	noise  *perlin.Perlin
	origin mgl32.Vec3
	time   float64
}

func init() {
	behaviour.RegisterScript("WanderScript", func() behaviour.Component {
		return &WanderScript{Seed: 1, Range: 4.0, Speed: 0.5, DeltaTime: DefaultDeltaTime}
	})
}

func (w *WanderScript) Start() {
	w.noise = perlin.NewPerlin(2, 2, 3, w.Seed)
	w.origin = w.GetGameObject().Transform.Position
}

func (w *WanderScript) Update() {
	w.time += float64(w.DeltaTime * w.Speed)
	dx := float32(w.noise.Noise1D(w.time))
	dz := float32(w.noise.Noise1D(w.time + 100))

	transform := w.GetGameObject().Transform
	next := w.origin.Add(mgl32.Vec3{dx, 0, dz}.Mul(w.Range))
	transform.LookAlong(next.Sub(transform.Position))
	transform.SetPosition(next)
}
