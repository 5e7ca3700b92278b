package pose

// PartName is a label of an anatomical keypoint. The set of labels is
// closed: the 17 canonical COCO skeleton parts, never extended at runtime.
type PartName string

const (
	Nose          PartName = "nose"
	LeftEye       PartName = "left_eye"
	RightEye      PartName = "right_eye"
	LeftEar       PartName = "left_ear"
	RightEar      PartName = "right_ear"
	LeftShoulder  PartName = "left_shoulder"
	RightShoulder PartName = "right_shoulder"
	LeftElbow     PartName = "left_elbow"
	RightElbow    PartName = "right_elbow"
	LeftWrist     PartName = "left_wrist"
	RightWrist    PartName = "right_wrist"
	LeftHip       PartName = "left_hip"
	RightHip      PartName = "right_hip"
	LeftKnee      PartName = "left_knee"
	RightKnee     PartName = "right_knee"
	LeftAnkle     PartName = "left_ankle"
	RightAnkle    PartName = "right_ankle"
)

// AllParts enumerates every part label in skeleton order. Iterate this
// slice instead of ranging over Pose maps when deterministic order matters.
var AllParts = [17]PartName{
	Nose,
	LeftEye, RightEye,
	LeftEar, RightEar,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
}

// CriticalParts are the labels the validator treats as mandatory for any
// trustworthy pose.
var CriticalParts = [3]PartName{Nose, LeftShoulder, RightShoulder}

// LeftRightPairs lists the mirrored limb pairs used for symmetry scoring.
var LeftRightPairs = [6][2]PartName{
	{LeftShoulder, RightShoulder},
	{LeftElbow, RightElbow},
	{LeftWrist, RightWrist},
	{LeftHip, RightHip},
	{LeftKnee, RightKnee},
	{LeftAnkle, RightAnkle},
}

// Keypoint is a single landmark observation: normalized image-space
// position plus detection confidence, all in [0,1].
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Point returns the keypoint position.
func (kp Keypoint) Point() Point {
	return Point{X: kp.X, Y: kp.Y}
}

// Clamped returns a copy with position and visibility forced into [0,1].
func (kp Keypoint) Clamped() Keypoint {
	return Keypoint{
		X:          clamp01(kp.X),
		Y:          clamp01(kp.Y),
		Visibility: clamp01(kp.Visibility),
	}
}

// Pose maps part labels to observed keypoints for one subject in one
// frame. Absent label means the part was not observed this frame; partial
// poses are valid.
type Pose map[PartName]Keypoint

// Clone returns a copy of the pose. Mutating the copy does not affect the
// original.
func (p Pose) Clone() Pose {
	out := make(Pose, len(p))
	for part, kp := range p {
		out[part] = kp
	}
	return out
}

// Clamped returns a copy of the pose with every coordinate and visibility
// forced into [0,1].
func (p Pose) Clamped() Pose {
	out := make(Pose, len(p))
	for part, kp := range p {
		out[part] = kp.Clamped()
	}
	return out
}

// VisibleCount returns the number of parts with visibility above the given
// threshold.
func (p Pose) VisibleCount(threshold float64) int {
	count := 0
	for _, part := range AllParts {
		if kp, ok := p[part]; ok && kp.Visibility > threshold {
			count++
		}
	}
	return count
}
