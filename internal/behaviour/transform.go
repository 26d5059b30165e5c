package behaviour

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// TransformElements is the number of values in a TransformSnapshot.
const TransformElements = 16

// TransformSnapshot is a 4x4 matrix in column-major order, the same
// layout as mgl32.Mat4 and OpenGL: element i is row i%4, column i/4,
// and the translation lives in elements 12, 13 and 14.
type TransformSnapshot [TransformElements]float32

// IdentitySnapshot returns the identity transform.
func IdentitySnapshot() TransformSnapshot {
	return TransformSnapshot(mgl32.Ident4())
}

// SnapshotFromMat4 copies an mgl32 matrix into a snapshot.
func SnapshotFromMat4(m mgl32.Mat4) TransformSnapshot {
	return TransformSnapshot(m)
}

// Mat4 returns the snapshot as an mgl32 matrix.
func (s TransformSnapshot) Mat4() mgl32.Mat4 {
	return mgl32.Mat4(s)
}

// At returns the element at the given row and column.
func (s TransformSnapshot) At(row, col int) float32 {
	return s[col*4+row]
}

// Translation returns the translation column.
func (s TransformSnapshot) Translation() mgl32.Vec3 {
	return mgl32.Vec3{s[12], s[13], s[14]}
}

// Validate reports ErrMalformedTransform if any element is NaN or infinite.
func (s TransformSnapshot) Validate() error {
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return errors.Wrapf(ErrMalformedTransform, "element %d is not finite (%v)", i, v)
		}
	}
	return nil
}

// SnapshotFromValues validates values coming from a script backend and
// converts them into a snapshot. Exactly 16 finite values that fit in a
// float32 are accepted; anything else is ErrMalformedTransform and
// nothing is truncated or padded.
func SnapshotFromValues(values []float64) (TransformSnapshot, error) {
	var snap TransformSnapshot
	if len(values) != TransformElements {
		return snap, errors.Wrapf(ErrMalformedTransform, "expected %d elements, got %d", TransformElements, len(values))
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return TransformSnapshot{}, errors.Wrapf(ErrMalformedTransform, "element %d is not finite (%v)", i, v)
		}
		if math.Abs(v) > math.MaxFloat32 {
			return TransformSnapshot{}, errors.Wrapf(ErrMalformedTransform, "element %d overflows float32 (%v)", i, v)
		}
		snap[i] = float32(v)
	}
	return snap, nil
}

// Transform is a position, rotation and scale with an optional parent.
type Transform struct {
	BaseComponent
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
	Parent   *Transform
	Children []*Transform
}

// NewTransform returns a transform at the origin with unit scale.
func NewTransform() *Transform {
	return &Transform{
		Position: mgl32.Vec3{0, 0, 0},
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

func (t *Transform) Translate(delta mgl32.Vec3) {
	t.Position = t.Position.Add(delta)
}

func (t *Transform) Rotate(axis mgl32.Vec3, angle float32) {
	rotation := mgl32.QuatRotate(angle, axis)
	t.Rotation = t.Rotation.Mul(rotation)
}

func (t *Transform) SetPosition(pos mgl32.Vec3) {
	t.Position = pos
}

func (t *Transform) SetRotation(rot mgl32.Quat) {
	t.Rotation = rot
}

// SetEuler sets the rotation from X, Y, Z angles in degrees, applied in that order.
func (t *Transform) SetEuler(x, y, z float32) {
	rx := mgl32.QuatRotate(mgl32.DegToRad(x), mgl32.Vec3{1, 0, 0})
	ry := mgl32.QuatRotate(mgl32.DegToRad(y), mgl32.Vec3{0, 1, 0})
	rz := mgl32.QuatRotate(mgl32.DegToRad(z), mgl32.Vec3{0, 0, 1})
	t.Rotation = rx.Mul(ry).Mul(rz)
}

func (t *Transform) SetScale(scale mgl32.Vec3) {
	t.Scale = scale
}

// SetParent reparents t, detaching it from its previous parent.
func (t *Transform) SetParent(parent *Transform) {
	if t.Parent != nil {
		siblings := t.Parent.Children
		for i, c := range siblings {
			if c == t {
				t.Parent.Children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	t.Parent = parent
	if parent != nil {
		parent.Children = append(parent.Children, t)
	}
}

var forward = mgl32.Vec3{0, 0, -1}

// Forward is -Z rotated into world space.
func (t *Transform) Forward() mgl32.Vec3 {
	return t.Rotation.Rotate(forward)
}

// LookAlong turns t so that Forward points along dir. A zero dir is ignored.
func (t *Transform) LookAlong(dir mgl32.Vec3) {
	if dir.Len() < 1e-6 {
		return
	}
	t.Rotation = mgl32.QuatBetweenVectors(forward, dir.Normalize())
}

// LocalMatrix returns translation * rotation * scale.
func (t *Transform) LocalMatrix() mgl32.Mat4 {
	rot := t.Rotation
	if rot == (mgl32.Quat{}) {
		rot = mgl32.QuatIdent()
	}
	scale := mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2])
	translation := mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2])
	return translation.Mul4(rot.Mat4()).Mul4(scale)
}

// Matrix returns the world matrix, including every parent transform.
func (t *Transform) Matrix() mgl32.Mat4 {
	m := t.LocalMatrix()
	for p := t.Parent; p != nil; p = p.Parent {
		m = p.LocalMatrix().Mul4(m)
	}
	return m
}

// Snapshot returns the world matrix as a TransformSnapshot.
func (t *Transform) Snapshot() TransformSnapshot {
	return SnapshotFromMat4(t.Matrix())
}
