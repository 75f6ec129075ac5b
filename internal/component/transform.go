package component

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Transform is the spatial state of a ship or projectile.
type Transform struct {
	Position        r3.Vec
	Rotation        quat.Number // unit quaternion, body → world
	Velocity        r3.Vec
	AngularVelocity r3.Vec // rad/s, world frame
}

// IdentityRotation is the unrotated orientation.
var IdentityRotation = quat.Number{Real: 1}

// Forward is the body-frame nose direction.
var Forward = r3.Vec{X: 1}

func NewTransform(pos r3.Vec) *Transform {
	return &Transform{Position: pos, Rotation: IdentityRotation}
}

// Heading returns the world-frame nose direction.
func (t *Transform) Heading() r3.Vec {
	return Rotate(t.Rotation, Forward)
}

// Force is the per-entity force accumulator. Cleared after integration.
type Force struct {
	Sum r3.Vec
}

func (f *Force) Add(v r3.Vec) { f.Sum = r3.Add(f.Sum, v) }
func (f *Force) Clear()       { f.Sum = r3.Vec{} }

// Rotate applies unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vec{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}

// IntegrateRotation advances q by angular velocity w over dt:
// q' = exp(½·w·dt) ⊗ q, renormalized against drift.
func IntegrateRotation(q quat.Number, w r3.Vec, dt float64) quat.Number {
	if w == (r3.Vec{}) || dt == 0 {
		return q
	}
	h := 0.5 * dt
	delta := quat.Exp(quat.Number{Imag: w.X * h, Jmag: w.Y * h, Kmag: w.Z * h})
	return normalize(quat.Mul(delta, q))
}

func normalize(q quat.Number) quat.Number {
	n := quat.Abs(q)
	if n == 0 || math.IsNaN(n) {
		return IdentityRotation
	}
	return quat.Scale(1/n, q)
}

// Unit returns v scaled to length 1, or the zero vector when |v| is 0.
func Unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// Distance returns |a − b|.
func Distance(a, b r3.Vec) float64 {
	return r3.Norm(r3.Sub(a, b))
}
