package core

import (
	"fmt"
	"math"
)

// Vec3 represents a direction or displacement in 3D space
type Vec3 struct {
	X, Y, Z float64
}

// NewVec3 creates a new Vec3
func NewVec3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Add returns the sum of two vectors
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{v.X + other.X, v.Y + other.Y, v.Z + other.Z}
}

// Subtract returns the difference of two vectors
func (v Vec3) Subtract(other Vec3) Vec3 {
	return Vec3{v.X - other.X, v.Y - other.Y, v.Z - other.Z}
}

// Multiply returns the vector scaled by a scalar
func (v Vec3) Multiply(scalar float64) Vec3 {
	return Vec3{v.X * scalar, v.Y * scalar, v.Z * scalar}
}

// Negate returns the negative of the vector
func (v Vec3) Negate() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product of two vectors
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// Length returns the magnitude of the vector
func (v Vec3) Length() float64 {
	return math.Sqrt(v.LengthSquared())
}

// LengthSquared returns the squared magnitude of the vector
func (v Vec3) LengthSquared() float64 {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z
}

// IsZero reports whether the vector has zero length
func (v Vec3) IsZero() bool {
	return v.LengthSquared() == 0
}

// CanNormalize reports whether the vector has a finite, non-zero length
func (v Vec3) CanNormalize() bool {
	length := v.Length()
	return length > 0 && !math.IsInf(length, 0)
}

// Normalize returns a unit vector in the same direction.
// Normalizing a vector for which CanNormalize is false is a construction error and panics.
func (v Vec3) Normalize() Vec3 {
	length := v.Length()
	if !v.CanNormalize() {
		panic(fmt.Sprintf("core: cannot normalize vector %v of length %v", v, length))
	}
	return Vec3{v.X / length, v.Y / length, v.Z / length}
}

// Point represents a position in 3D space.
// Points can be offset by vectors and subtracted from each other, but never added together.
type Point struct {
	X, Y, Z float64
}

// NewPoint creates a new Point
func NewPoint(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Origin returns the world-space zero point
func Origin() Point {
	return Point{}
}

// Add returns the point displaced by a vector
func (p Point) Add(v Vec3) Point {
	return Point{p.X + v.X, p.Y + v.Y, p.Z + v.Z}
}

// Subtract returns the vector pointing from other to p
func (p Point) Subtract(other Point) Vec3 {
	return Vec3{p.X - other.X, p.Y - other.Y, p.Z - other.Z}
}
