package scripts

import (
	"math"

	"github.com/bridger-herman/scriptable-game/internal/behaviour"
)

// DefaultDeltaTime is the step native scripts assume: one 60 Hz tick.
const DefaultDeltaTime = float32(1.0 / 60.0)

// BounceScript moves its object up and down around its starting height.
type BounceScript struct {
	behaviour.BaseComponent
	Height    float32
	Speed     float32
	DeltaTime float32
	startY    float32
	time      float32
}

func init() {
	behaviour.RegisterScript("BounceScript", func() behaviour.Component {
		return &BounceScript{Height: 5.0, Speed: 2.0, DeltaTime: DefaultDeltaTime}
	})
}

func (b *BounceScript) Start() {
	b.startY = b.GetGameObject().Transform.Position.Y()
}

func (b *BounceScript) Update() {
	b.time += b.DeltaTime * b.Speed
	offset := float32(math.Sin(float64(b.time))) * b.Height
	b.GetGameObject().Transform.Position[1] = b.startY + offset
}
