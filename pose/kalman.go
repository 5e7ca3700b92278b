package pose

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// singularDetThreshold guards the 2x2 innovation-covariance inversion.
// Below it the inverse is replaced with the identity matrix instead of
// failing the update.
const singularDetThreshold = 1e-10

// pointKalman is a constant-velocity filter over a single keypoint.
// State is [x, y, vx, vy] with a full 4x4 covariance; the measurement is
// position only, velocity stays unobserved.
type pointKalman struct {
	state *mat.VecDense // [x, y, vx, vy]
	cov   *mat.Dense    // 4x4

	processNoise     float64
	measurementNoise float64
}

func newPointKalman(x, y, processNoise, measurementNoise float64) *pointKalman {
	cov := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		cov.Set(i, i, 1.0)
	}
	return &pointKalman{
		state:            mat.NewVecDense(4, []float64{x, y, 0, 0}),
		cov:              cov,
		processNoise:     processNoise,
		measurementNoise: measurementNoise,
	}
}

// Predict advances the state by dt seconds under the constant-velocity
// model and propagates the covariance with fixed diagonal process noise.
func (kf *pointKalman) Predict(dt float64) {
	f := mat.NewDense(4, 4, []float64{
		1, 0, dt, 0,
		0, 1, 0, dt,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})

	var predicted mat.VecDense
	predicted.MulVec(f, kf.state)
	kf.state.CopyVec(&predicted)

	// P' = F*P*F^T + Q
	var fp, fpft mat.Dense
	fp.Mul(f, kf.cov)
	fpft.Mul(&fp, f.T())
	kf.cov.Copy(&fpft)
	for i := 0; i < 4; i++ {
		kf.cov.Set(i, i, kf.cov.At(i, i)+kf.processNoise)
	}
}

// Update corrects the state with a 2D position measurement using the
// standard gain/innovation-covariance recursion.
func (kf *pointKalman) Update(zx, zy float64) {
	h := mat.NewDense(2, 4, []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
	})

	// Innovation y = z - H*x
	innovX := zx - kf.state.AtVec(0)
	innovY := zy - kf.state.AtVec(1)

	// S = H*P*H^T + R
	var hp, s mat.Dense
	hp.Mul(h, kf.cov)
	s.Mul(&hp, h.T())
	s.Set(0, 0, s.At(0, 0)+kf.measurementNoise)
	s.Set(1, 1, s.At(1, 1)+kf.measurementNoise)

	sInv := invert2x2(&s)

	// K = P*H^T*S^-1 (4x2)
	var pht, gain mat.Dense
	pht.Mul(kf.cov, h.T())
	gain.Mul(&pht, sInv)

	// x' = x + K*y
	for i := 0; i < 4; i++ {
		kf.state.SetVec(i, kf.state.AtVec(i)+gain.At(i, 0)*innovX+gain.At(i, 1)*innovY)
	}

	// P' = (I - K*H) * P
	var kh mat.Dense
	kh.Mul(&gain, h)
	ikh := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			identity := 0.0
			if i == j {
				identity = 1.0
			}
			ikh.Set(i, j, identity-kh.At(i, j))
		}
	}
	var newCov mat.Dense
	newCov.Mul(ikh, kf.cov)
	kf.cov.Copy(&newCov)
}

// Position returns the current position estimate.
func (kf *pointKalman) Position() Point {
	return Point{X: kf.state.AtVec(0), Y: kf.state.AtVec(1)}
}

// invert2x2 inverts the innovation covariance, falling back to the
// identity matrix when the determinant is near zero.
func invert2x2(m *mat.Dense) *mat.Dense {
	a := m.At(0, 0)
	b := m.At(0, 1)
	c := m.At(1, 0)
	d := m.At(1, 1)
	det := a*d - b*c
	if math.Abs(det) < singularDetThreshold {
		return mat.NewDense(2, 2, []float64{
			1, 0,
			0, 1,
		})
	}
	return mat.NewDense(2, 2, []float64{
		d / det, -b / det,
		-c / det, a / det,
	})
}
