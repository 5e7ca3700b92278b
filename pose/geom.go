package pose

import "math"

// Point is a position in normalized image space.
type Point struct {
	X float64
	Y float64
}

// NewPoint creates a point from normalized coordinates.
func NewPoint(x, y float64) Point {
	return Point{X: x, Y: y}
}

func euclideanDistance(p1, p2 Point) float64 {
	return math.Sqrt(math.Pow(p1.X-p2.X, 2) + math.Pow(p1.Y-p2.Y, 2))
}

func clamp01(v float64) float64 {
	return clampFloat64(v, 0.0, 1.0)
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
