package dynamo

import "math"

// WrapDown subtracts full turns while a exceeds π. Values below -π are left alone.
func WrapDown(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// WrapAngle maps a into (-π, π].
func WrapAngle(a float64) float64 {
	d := math.Mod(a, 2*math.Pi)
	if d <= -math.Pi {
		d += 2 * math.Pi
	} else if d > math.Pi {
		d -= 2 * math.Pi
	}
	return d
}
