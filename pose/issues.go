package pose

// IssueCode identifies the kind of problem found by the validator or the
// calibration checks. Codes are stable identifiers intended for host-side
// messaging; the core never renders user-facing text from them.
type IssueCode string

const (
	CodeMissingKeypoint       IssueCode = "missing_keypoint"
	CodeLowVisibility         IssueCode = "low_visibility"
	CodeInvalidCoordinate     IssueCode = "invalid_coordinate"
	CodeAnatomicalAnomaly     IssueCode = "anatomical_anomaly"
	CodeInconsistentGeometry  IssueCode = "inconsistent_geometry"
	CodeStaleCalibration      IssueCode = "stale_calibration"
	CodeExcessiveDistortion   IssueCode = "excessive_distortion"
	CodeExcessiveSkew         IssueCode = "excessive_skew"
	CodeAspectOutOfRange      IssueCode = "aspect_out_of_range"
	CodeLowCalibrationQuality IssueCode = "low_calibration_quality"
)

// Severity grades an issue.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Quality is the overall trustworthiness tier of a pose or a calibration
// profile.
type Quality string

const (
	QualityExcellent Quality = "excellent"
	QualityGood      Quality = "good"
	QualityFair      Quality = "fair"
	QualityPoor      Quality = "poor"
)

func (q Quality) rank() int {
	switch q {
	case QualityExcellent:
		return 3
	case QualityGood:
		return 2
	case QualityFair:
		return 1
	default:
		return 0
	}
}

func (q Quality) worseThan(other Quality) bool {
	return q.rank() < other.rank()
}

// AtLeast reports whether q meets the given minimum tier.
func (q Quality) AtLeast(minimum Quality) bool {
	return q.rank() >= minimum.rank()
}

// Issue is a single validation finding. Impact is the amount subtracted
// from the pose confidence; impacts are summed, not averaged.
type Issue struct {
	Code     IssueCode
	Severity Severity
	Part     PartName
	Message  string
	Impact   float64
}
