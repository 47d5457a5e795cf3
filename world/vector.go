package world

import "math"

type Vector struct {
	X, Y float64
}

func (v Vector) Add(o Vector) Vector {
	return Vector{X: v.X + o.X, Y: v.Y + o.Y}
}

// Heading returns the displacement of travelling distance along direction.
// Directions are in radians, 0 pointing along +X.
func Heading(direction, distance float64) Vector {
	return Vector{
		X: math.Cos(direction) * distance,
		Y: math.Sin(direction) * distance,
	}
}
