package pose

import (
	"fmt"
	"math"
)

// ValidationResult reports whether a pose is trustworthy enough to drive
// feedback, and why not if it isn't.
type ValidationResult struct {
	IsValid    bool
	Confidence float64 // [0,1]
	Issues     []Issue
	Quality    Quality
}

// Validator runs anatomical-consistency and completeness checks over a
// smoothed pose. In strict mode out-of-range coordinates are treated as
// critical instead of warnings.
type Validator struct {
	Strict bool
}

// NewValidator creates a validator. Strict mode escalates coordinate
// range violations to critical severity.
func NewValidator(strict bool) *Validator {
	return &Validator{Strict: strict}
}

const (
	lowVisibilityThreshold = 0.3

	impactMissingCritical = 0.4
	impactLowVisibility   = 0.3
	impactNonNumeric      = 0.5
	impactOutOfRange      = 0.2
	impactGeometryWarning = 0.1

	maxShoulderYDiff = 0.15
	minLimbRatio     = 0.3
	maxLimbRatio     = 2.0
	maxTorsoMisalign = 0.1
	minTorsoHeight   = 0.2
	maxTorsoHeight   = 0.6
)

// Validate checks the pose and aggregates issue impacts into a confidence
// score and quality tier. Impacts are summed, never averaged.
func (v *Validator) Validate(p Pose) ValidationResult {
	var issues []Issue

	issues = append(issues, v.checkCompleteness(p)...)
	issues = append(issues, v.checkCoordinates(p)...)
	issues = append(issues, checkAnatomy(p)...)
	issues = append(issues, checkAnomalies(p)...)

	totalImpact := 0.0
	criticalCount := 0
	warningCount := 0
	for _, issue := range issues {
		totalImpact += issue.Impact
		switch issue.Severity {
		case SeverityCritical:
			criticalCount++
		case SeverityWarning:
			warningCount++
		}
	}

	confidence := math.Max(0, 1.0-totalImpact)

	var quality Quality
	switch {
	case criticalCount > 0 || confidence < 0.3:
		quality = QualityPoor
	case warningCount <= 2 && confidence >= 0.7:
		quality = QualityExcellent
	case warningCount <= 4 && confidence >= 0.5:
		quality = QualityGood
	default:
		quality = QualityFair
	}

	return ValidationResult{
		IsValid:    criticalCount == 0,
		Confidence: confidence,
		Issues:     issues,
		Quality:    quality,
	}
}

// EnsurePoseQuality attempts a single repair when the pose falls below the
// minimum tier: clamp every coordinate and visibility into valid ranges
// and re-validate. The clamped pose is returned only when the repair
// actually reaches the minimum; a failed attempt returns the original
// unchanged rather than discarding data.
func (v *Validator) EnsurePoseQuality(p Pose, minimum Quality) Pose {
	current := v.Validate(p)
	if current.Quality.AtLeast(minimum) {
		return p
	}
	clamped := p.Clamped()
	repaired := v.Validate(clamped)
	if repaired.Quality.AtLeast(minimum) {
		return clamped
	}
	return p
}

func (v *Validator) checkCompleteness(p Pose) []Issue {
	var issues []Issue
	for _, part := range CriticalParts {
		if _, ok := p[part]; !ok {
			issues = append(issues, Issue{
				Code:     CodeMissingKeypoint,
				Severity: SeverityCritical,
				Part:     part,
				Message:  fmt.Sprintf("critical part %s not observed", part),
				Impact:   impactMissingCritical,
			})
		}
	}
	for _, part := range AllParts {
		kp, ok := p[part]
		if !ok || kp.Visibility >= lowVisibilityThreshold {
			continue
		}
		if isCriticalPart(part) {
			issues = append(issues, Issue{
				Code:     CodeLowVisibility,
				Severity: SeverityCritical,
				Part:     part,
				Message:  fmt.Sprintf("critical part %s barely visible", part),
				Impact:   impactLowVisibility,
			})
		} else {
			// Listed for the host but carries no confidence impact.
			issues = append(issues, Issue{
				Code:     CodeLowVisibility,
				Severity: SeverityWarning,
				Part:     part,
				Message:  fmt.Sprintf("part %s barely visible", part),
			})
		}
	}
	return issues
}

func (v *Validator) checkCoordinates(p Pose) []Issue {
	var issues []Issue
	for _, part := range AllParts {
		kp, ok := p[part]
		if !ok {
			continue
		}
		if math.IsNaN(kp.X) || math.IsNaN(kp.Y) || math.IsInf(kp.X, 0) || math.IsInf(kp.Y, 0) {
			issues = append(issues, Issue{
				Code:     CodeInvalidCoordinate,
				Severity: SeverityCritical,
				Part:     part,
				Message:  fmt.Sprintf("part %s has non-numeric coordinates", part),
				Impact:   impactNonNumeric,
			})
			continue
		}
		if kp.X < 0 || kp.X > 1 || kp.Y < 0 || kp.Y > 1 {
			severity := SeverityWarning
			if v.Strict {
				severity = SeverityCritical
			}
			issues = append(issues, Issue{
				Code:     CodeInvalidCoordinate,
				Severity: severity,
				Part:     part,
				Message:  fmt.Sprintf("part %s outside normalized range", part),
				Impact:   impactOutOfRange,
			})
		}
	}
	return issues
}

func checkAnatomy(p Pose) []Issue {
	var issues []Issue

	leftShoulder, okLS := p[LeftShoulder]
	rightShoulder, okRS := p[RightShoulder]
	if okLS && okRS && math.Abs(leftShoulder.Y-rightShoulder.Y) > maxShoulderYDiff {
		issues = append(issues, Issue{
			Code:     CodeInconsistentGeometry,
			Severity: SeverityWarning,
			Part:     LeftShoulder,
			Message:  "shoulders are strongly tilted",
			Impact:   impactGeometryWarning,
		})
	}

	for _, arm := range [2][3]PartName{
		{LeftShoulder, LeftElbow, LeftWrist},
		{RightShoulder, RightElbow, RightWrist},
	} {
		shoulder, okS := p[arm[0]]
		elbow, okE := p[arm[1]]
		wrist, okW := p[arm[2]]
		if !okS || !okE || !okW {
			continue
		}
		upperArm := euclideanDistance(shoulder.Point(), elbow.Point())
		forearm := euclideanDistance(elbow.Point(), wrist.Point())
		if upperArm < 1e-9 {
			continue
		}
		ratio := forearm / upperArm
		if ratio < minLimbRatio || ratio > maxLimbRatio {
			issues = append(issues, Issue{
				Code:     CodeInconsistentGeometry,
				Severity: SeverityWarning,
				Part:     arm[1],
				Message:  "forearm/upper-arm length ratio out of range",
				Impact:   impactGeometryWarning,
			})
		}
	}

	leftHip, okLH := p[LeftHip]
	rightHip, okRH := p[RightHip]
	if okLS && okRS && okLH && okRH {
		shoulderCenterX := (leftShoulder.X + rightShoulder.X) / 2.0
		hipCenterX := (leftHip.X + rightHip.X) / 2.0
		if math.Abs(shoulderCenterX-hipCenterX) > maxTorsoMisalign {
			issues = append(issues, Issue{
				Code:     CodeInconsistentGeometry,
				Severity: SeverityInfo,
				Part:     LeftHip,
				Message:  "torso is leaning sideways",
			})
		}
	}

	return issues
}

func checkAnomalies(p Pose) []Issue {
	var issues []Issue

	// A wrist above both its shoulder and elbow is a frequent detector
	// failure mode (note: smaller y is higher in image space).
	for _, arm := range [2][3]PartName{
		{LeftShoulder, LeftElbow, LeftWrist},
		{RightShoulder, RightElbow, RightWrist},
	} {
		shoulder, okS := p[arm[0]]
		elbow, okE := p[arm[1]]
		wrist, okW := p[arm[2]]
		if !okS || !okE || !okW {
			continue
		}
		if wrist.Y < shoulder.Y && wrist.Y < elbow.Y {
			issues = append(issues, Issue{
				Code:     CodeAnatomicalAnomaly,
				Severity: SeverityWarning,
				Part:     arm[2],
				Message:  "wrist above shoulder and elbow, likely misdetection",
				Impact:   impactGeometryWarning,
			})
		}
	}

	nose, okN := p[Nose]
	leftHip, okLH := p[LeftHip]
	rightHip, okRH := p[RightHip]
	if okN && okLH && okRH {
		torsoHeight := (leftHip.Y+rightHip.Y)/2.0 - nose.Y
		if torsoHeight < minTorsoHeight {
			issues = append(issues, Issue{
				Code:     CodeAnatomicalAnomaly,
				Severity: SeverityWarning,
				Part:     Nose,
				Message:  "torso too short",
				Impact:   impactGeometryWarning,
			})
		} else if torsoHeight > maxTorsoHeight {
			issues = append(issues, Issue{
				Code:     CodeAnatomicalAnomaly,
				Severity: SeverityInfo,
				Part:     Nose,
				Message:  "torso unusually tall",
			})
		}
	}

	return issues
}

func isCriticalPart(part PartName) bool {
	for _, critical := range CriticalParts {
		if part == critical {
			return true
		}
	}
	return false
}
