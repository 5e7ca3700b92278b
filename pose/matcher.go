package pose

import "math"

// PoseTemplate is immutable reference data: a target pose with metadata.
// The pipeline never mutates templates.
type PoseTemplate struct {
	ID         string
	Name       string
	Target     Pose
	Difficulty int // 1..5
}

// Direction tells the subject which way to move a body part.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
)

// Urgency grades how pressing an adjustment is.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) rank() int {
	switch u {
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// Adjustment is a single directional correction toward the template.
// Magnitude is the raw distance scaled to 0-100.
type Adjustment struct {
	Part      PartName
	Direction Direction
	Magnitude int
	Urgency   Urgency
}

// MatchResult quantifies how far an observed pose is from a template.
type MatchResult struct {
	Score           float64 // 0-100
	Adjustments     []Adjustment
	SymmetryScore   float64 // 0-100
	AsymmetricParts []PartName
}

const (
	// errorDistanceCap saturates per-keypoint error: anything at or past
	// this raw distance contributes a full error of 1.0.
	errorDistanceCap = 0.3
	// adjustmentMinDistance is the raw distance below which no
	// adjustment is generated.
	adjustmentMinDistance = 0.05
	// asymmetryThreshold is the mirrored-pair deviation above which the
	// pair is reported as asymmetrical.
	asymmetryThreshold = 0.1
)

// Matcher scores poses against target templates using the body-part
// weight table.
type Matcher struct {
	weights BodyPartWeights
}

// NewMatcher creates a matcher with the given weight table.
func NewMatcher(weights BodyPartWeights) *Matcher {
	return &Matcher{weights: weights}
}

// NewMatcherDefault creates a matcher with the default weight table.
func NewMatcherDefault() *Matcher {
	return NewMatcher(DefaultBodyPartWeights())
}

// Match scores the observed pose against the template target and produces
// prioritized directional adjustments. Labels missing from either pose
// are skipped and excluded from the weighted average.
func (m *Matcher) Match(observed Pose, template PoseTemplate) MatchResult {
	weightedErrorSum := 0.0
	weightSum := 0.0
	priorityQueue := make(adjustmentHeap, 0)

	for _, part := range AllParts {
		obs, okO := observed[part]
		target, okT := template.Target[part]
		if !okO || !okT {
			continue
		}

		distance := euclideanDistance(obs.Point(), target.Point())
		weight := m.weights.Weight(part)

		normalizedError := clampFloat64(distance/errorDistanceCap, 0.0, 1.0)
		weightedErrorSum += normalizedError * weight
		weightSum += weight

		if distance > adjustmentMinDistance {
			priorityQueue.Push(m.makeAdjustment(part, obs, target, distance, weight))
		}
	}

	score := 0.0
	if weightSum > 0 {
		avgError := weightedErrorSum / weightSum
		score = clampFloat64((1.0-avgError)*100.0, 0.0, 100.0)
	}

	adjustments := make([]Adjustment, 0, priorityQueue.Len())
	for priorityQueue.Len() > 0 {
		adjustments = append(adjustments, priorityQueue.Pop())
	}

	symmetry, asymmetric := SymmetryScore(observed)

	return MatchResult{
		Score:           score,
		Adjustments:     adjustments,
		SymmetryScore:   symmetry,
		AsymmetricParts: asymmetric,
	}
}

// makeAdjustment derives direction from the dominant displacement axis and
// urgency from weight and distance. The unconditional distance > 0.15 rule
// runs last and may upgrade an already-assigned medium.
func (m *Matcher) makeAdjustment(part PartName, obs, target Keypoint, distance, weight float64) Adjustment {
	dx := target.X - obs.X
	dy := target.Y - obs.Y

	var direction Direction
	if math.Abs(dx) >= math.Abs(dy) {
		if dx < 0 {
			direction = DirectionLeft
		} else {
			direction = DirectionRight
		}
	} else {
		if dy < 0 {
			direction = DirectionUp
		} else {
			direction = DirectionDown
		}
	}

	urgency := UrgencyLow
	if weight >= 1.5 && distance > 0.1 {
		urgency = UrgencyHigh
	} else if weight >= 1.0 && distance > 0.08 {
		urgency = UrgencyMedium
	}
	if distance > 0.15 {
		urgency = UrgencyHigh
	}

	return Adjustment{
		Part:      part,
		Direction: direction,
		Magnitude: int(math.Round(distance * 100.0)),
		Urgency:   urgency,
	}
}

// SymmetryScore measures left/right balance by mirroring the left side of
// each limb pair across the vertical center line and comparing it to the
// right counterpart. Pairs missing on either side are skipped; pairs
// deviating beyond the threshold are reported.
func SymmetryScore(p Pose) (float64, []PartName) {
	deviationSum := 0.0
	pairCount := 0
	var asymmetric []PartName

	for _, pair := range LeftRightPairs {
		left, okL := p[pair[0]]
		right, okR := p[pair[1]]
		if !okL || !okR {
			continue
		}
		mirrored := Point{X: 1.0 - left.X, Y: left.Y}
		deviation := euclideanDistance(mirrored, right.Point())
		deviationSum += deviation
		pairCount++
		if deviation > asymmetryThreshold {
			asymmetric = append(asymmetric, pair[1])
		}
	}

	if pairCount == 0 {
		return 100.0, nil
	}
	avgDeviation := deviationSum / float64(pairCount)
	return clampFloat64(100.0-avgDeviation*200.0, 0.0, 100.0), asymmetric
}

// EstimateDifficulty grades how demanding a pose is to hold: richer
// visibility, asymmetry and raised arms all add difficulty. The result is
// always within 1..5.
func EstimateDifficulty(p Pose) int {
	difficulty := 1.0

	if p.VisibleCount(0.5) > 10 {
		difficulty++
	}

	symmetry, _ := SymmetryScore(p)
	if symmetry < 70.0 {
		difficulty++
	}

	for _, arm := range [2][2]PartName{
		{LeftShoulder, LeftElbow},
		{RightShoulder, RightElbow},
	} {
		shoulder, okS := p[arm[0]]
		elbow, okE := p[arm[1]]
		if okS && okE && elbow.Y < shoulder.Y {
			difficulty += 0.5
		}
	}

	rounded := int(math.Round(difficulty))
	if rounded > 5 {
		return 5
	}
	if rounded < 1 {
		return 1
	}
	return rounded
}
