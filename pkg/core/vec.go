// pkg/core/vec.go
package core

import (
	"encoding/json"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vec3 is a three-component channel value (position, rotation or scale).
// It serializes as a JSON array [x, y, z].
type Vec3 r3.Vec

// V3 builds a Vec3 from its components.
func V3(x, y, z float64) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// R3 returns the value as a gonum vector for arithmetic.
func (v Vec3) R3() r3.Vec {
	return r3.Vec(v)
}

// Array returns the components in x, y, z order.
func (v Vec3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

// MarshalJSON encodes the vector as [x, y, z].
func (v Vec3) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Array())
}
