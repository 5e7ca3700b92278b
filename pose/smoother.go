package pose

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// SmootherConfig holds the temporal filter parameters.
type SmootherConfig struct {
	// MinConfidence gates filtering: observations below it pass through
	// without touching filter state. Default 0.3.
	MinConfidence float64
	// EMAFactor is the base exponential smoothing factor; the effective
	// alpha is EMAFactor * observation confidence. Default 0.3.
	EMAFactor float64
	// OutlierThreshold is the number of standard deviations from recent
	// history beyond which a sample is rejected. Default 3.0.
	OutlierThreshold float64
	// MaxChange caps per-update displacement of the stable position, in
	// normalized units. Default 0.15.
	MaxChange float64
	// HistorySize bounds the raw sample ring per keypoint. Default 10.
	HistorySize int
	// StaleAfter is how long a keypoint may go unseen before its state is
	// pruned. Default 2s.
	StaleAfter time.Duration
	// ProcessNoise and MeasurementNoise are the fixed diagonal noise
	// terms of the constant-velocity Kalman filter.
	ProcessNoise     float64
	MeasurementNoise float64
}

// DefaultSmootherConfig returns the default filter parameters.
func DefaultSmootherConfig() SmootherConfig {
	return SmootherConfig{
		MinConfidence:    0.3,
		EMAFactor:        0.3,
		OutlierThreshold: 3.0,
		MaxChange:        0.15,
		HistorySize:      10,
		StaleAfter:       2 * time.Second,
		ProcessNoise:     0.01,
		MeasurementNoise: 0.1,
	}
}

// sample is one raw observation kept in a keypoint's history ring.
type sample struct {
	x          float64
	y          float64
	confidence float64
}

// keypointState is the per-label tracked state. Created lazily on the
// first confident sighting, updated in place (single writer per session),
// pruned after StaleAfter without any sighting.
type keypointState struct {
	stable     Point
	ema        Point
	filter     *pointKalman
	history    []sample
	confidence float64
	lastSeen   time.Time // refreshed by any sighting, even low-confidence
	lastUpdate time.Time // refreshed only by accepted filter updates
}

// Smoother converts a jittery, sometimes-outlying, sometimes-missing
// per-frame observation stream into a stable estimate per keypoint label.
// It is not safe for concurrent use; each tracking session owns one.
type Smoother struct {
	states map[PartName]*keypointState
	config SmootherConfig
}

// NewSmoother creates a smoother with the given configuration.
func NewSmoother(config SmootherConfig) *Smoother {
	if config.HistorySize <= 0 {
		config.HistorySize = 10
	}
	return &Smoother{
		states: make(map[PartName]*keypointState),
		config: config,
	}
}

// NewSmootherDefault creates a smoother with default parameters.
func NewSmootherDefault() *Smoother {
	return NewSmoother(DefaultSmootherConfig())
}

// TrackedParts returns the number of labels with live filter state.
func (s *Smoother) TrackedParts() int {
	return len(s.states)
}

// Reset drops all per-keypoint state.
func (s *Smoother) Reset() {
	s.states = make(map[PartName]*keypointState)
}

// Update processes one frame of observations and returns the stabilized
// pose. The output covers exactly the labels present in the input frame.
// Stale labels are pruned before any processing; the check is wall-clock
// based and runs opportunistically here, not on a timer.
func (s *Smoother) Update(p Pose, now time.Time) Pose {
	s.pruneStale(now)

	out := make(Pose, len(p))
	for _, part := range AllParts {
		kp, ok := p[part]
		if !ok {
			continue
		}
		out[part] = s.updatePart(part, kp, now)
	}
	return out
}

func (s *Smoother) pruneStale(now time.Time) {
	for part, state := range s.states {
		if now.Sub(state.lastSeen) > s.config.StaleAfter {
			delete(s.states, part)
		}
	}
}

// updatePart runs the full damping chain for one observation. The stage
// order (confidence gate, outlier gate, EMA, Kalman, blend, rate limit)
// is load-bearing: each stage dampens a different failure mode.
func (s *Smoother) updatePart(part PartName, kp Keypoint, now time.Time) Keypoint {
	state, tracked := s.states[part]

	// Below the confidence gate nothing is filtered: emit the last stable
	// estimate, or the raw observation when no state exists yet. The
	// sighting still keeps the state alive.
	if kp.Visibility < s.config.MinConfidence {
		if !tracked {
			return kp.Clamped()
		}
		state.lastSeen = now
		return Keypoint{
			X:          clamp01(state.stable.X),
			Y:          clamp01(state.stable.Y),
			Visibility: clamp01(state.confidence),
		}
	}

	if !tracked {
		state = &keypointState{
			stable:     kp.Point(),
			ema:        kp.Point(),
			filter:     newPointKalman(kp.X, kp.Y, s.config.ProcessNoise, s.config.MeasurementNoise),
			history:    make([]sample, 0, s.config.HistorySize),
			confidence: kp.Visibility,
			lastSeen:   now,
			lastUpdate: now,
		}
		state.history = append(state.history, sample{x: kp.X, y: kp.Y, confidence: kp.Visibility})
		s.states[part] = state
		return kp.Clamped()
	}

	state.lastSeen = now

	// Outlier test against the history collected before this sample. The
	// sample is recorded either way so a persistent shift eventually moves
	// the mean and re-opens the gate.
	meanX, stdX := historyStats(state.history, func(s sample) float64 { return s.x })
	meanY, stdY := historyStats(state.history, func(s sample) float64 { return s.y })
	outlier := exceedsDeviation(kp.X, meanX, stdX, s.config.OutlierThreshold) ||
		exceedsDeviation(kp.Y, meanY, stdY, s.config.OutlierThreshold)

	state.history = append(state.history, sample{x: kp.X, y: kp.Y, confidence: kp.Visibility})
	if len(state.history) > s.config.HistorySize {
		state.history = state.history[1:]
	}

	if outlier {
		return Keypoint{
			X:          clamp01(state.ema.X),
			Y:          clamp01(state.ema.Y),
			Visibility: clamp01(state.confidence),
		}
	}

	// EMA, weighted by observation confidence.
	alpha := s.config.EMAFactor * kp.Visibility
	state.ema.X = alpha*kp.X + (1.0-alpha)*state.ema.X
	state.ema.Y = alpha*kp.Y + (1.0-alpha)*state.ema.Y

	// Kalman predict + position-only update.
	dt := now.Sub(state.lastUpdate).Seconds()
	if dt < 0 {
		dt = 0
	}
	state.filter.Predict(dt)
	state.filter.Update(kp.X, kp.Y)
	kalmanPos := state.filter.Position()

	// Blend the two estimators evenly.
	blended := Point{
		X: 0.5*state.ema.X + 0.5*kalmanPos.X,
		Y: 0.5*state.ema.Y + 0.5*kalmanPos.Y,
	}

	// Rate limit: re-project oversized jumps onto the MaxChange sphere
	// around the previous stable position.
	displacement := euclideanDistance(blended, state.stable)
	if displacement > s.config.MaxChange {
		scale := s.config.MaxChange / displacement
		blended = Point{
			X: state.stable.X + (blended.X-state.stable.X)*scale,
			Y: state.stable.Y + (blended.Y-state.stable.Y)*scale,
		}
	}

	state.stable = blended
	state.confidence = math.Max(state.confidence*0.9, kp.Visibility)
	state.lastUpdate = now

	return Keypoint{
		X:          clamp01(blended.X),
		Y:          clamp01(blended.Y),
		Visibility: clamp01(state.confidence),
	}
}

func historyStats(history []sample, axis func(sample) float64) (mean, std float64) {
	values := make([]float64, len(history))
	for i, s := range history {
		values[i] = axis(s)
	}
	return stat.MeanStdDev(values, nil)
}

func exceedsDeviation(value, mean, std, threshold float64) bool {
	if math.IsNaN(std) {
		// Single-sample history carries no spread to judge against.
		return false
	}
	return math.Abs(value-mean) > threshold*std
}
