package pose

import (
	"math"
	"testing"
)

const (
	eps = 0.00001
)

func TestEuclideanDistance(t *testing.T) {
	p1 := Point{X: 0.341, Y: 0.264}
	p2 := Point{X: 0.421, Y: 0.427}
	correctAnswer := 0.18157
	answer := euclideanDistance(p1, p2)
	if math.Abs(answer-correctAnswer) > eps {
		t.Errorf("Wrong answer: %v, correct answer: %v", answer, correctAnswer)
	}
}

func TestClamp01(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{-0.5, 0.0},
		{0.0, 0.0},
		{0.42, 0.42},
		{1.0, 1.0},
		{1.7, 1.0},
	}
	for _, c := range cases {
		if got := clamp01(c.in); got != c.want {
			t.Errorf("clamp01(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestKeypointClamped(t *testing.T) {
	kp := Keypoint{X: 1.2, Y: -0.3, Visibility: 2.0}
	clamped := kp.Clamped()
	if clamped.X != 1.0 || clamped.Y != 0.0 || clamped.Visibility != 1.0 {
		t.Errorf("unexpected clamped keypoint: %+v", clamped)
	}
}
