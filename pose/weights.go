package pose

// BodyPartWeights is an importance multiplier per part, used when
// aggregating per-keypoint error and when deciding adjustment urgency.
// Head and torso anchor framing, so they dominate the extremities.
type BodyPartWeights map[PartName]float64

// DefaultBodyPartWeights returns the fixed importance table.
func DefaultBodyPartWeights() BodyPartWeights {
	return BodyPartWeights{
		Nose:          2.0,
		LeftEye:       1.5,
		RightEye:      1.5,
		LeftEar:       1.0,
		RightEar:      1.0,
		LeftShoulder:  1.8,
		RightShoulder: 1.8,
		LeftElbow:     1.2,
		RightElbow:    1.2,
		LeftWrist:     1.0,
		RightWrist:    1.0,
		LeftHip:       1.5,
		RightHip:      1.5,
		LeftKnee:      0.8,
		RightKnee:     0.8,
		LeftAnkle:     0.5,
		RightAnkle:    0.5,
	}
}

// Weight returns the importance of the given part. Unlisted parts weigh 1.0.
func (w BodyPartWeights) Weight(part PartName) float64 {
	if weight, ok := w[part]; ok {
		return weight
	}
	return 1.0
}
