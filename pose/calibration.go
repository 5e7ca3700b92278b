package pose

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

const (
	// shoulderBaseline is the fixed normalized span used when deriving
	// sensor skew from the shoulder Y-difference.
	shoulderBaseline = 0.3
	// autoCalibrationQuality is stamped on heuristic one-shot estimates.
	autoCalibrationQuality = 75.0
	// maxCalibrationAge is how long a profile stays trustworthy.
	maxCalibrationAge = 30 * 24 * time.Hour
)

// Vec2 is a pair of per-axis calibration values.
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CalibrationProfile describes systematic optical/sensor bias to remove
// before temporal filtering. The zero corrections form an identity
// transform. The host owns persistence of this value (see CalibrationStore).
type CalibrationProfile struct {
	BarrelDistortion      float64   `json:"barrel_distortion"`
	PincushionDistortion  float64   `json:"pincushion_distortion"`
	ChromaticAberration   float64   `json:"chromatic_aberration"`
	SensorSkew            float64   `json:"sensor_skew"` // degrees
	AspectRatioCorrection float64   `json:"aspect_ratio_correction"`
	CameraTilt            Vec2      `json:"camera_tilt"`
	CameraOffset          Vec2      `json:"camera_offset"`
	FOVHorizontal         float64   `json:"fov_horizontal"` // degrees
	FOVVertical           float64   `json:"fov_vertical"`   // degrees
	CalibrationQuality    float64   `json:"calibration_quality"` // 0-100
	CalibrationDate       time.Time `json:"calibration_date"`
}

// DefaultCalibrationProfile returns the identity transform profile.
func DefaultCalibrationProfile() CalibrationProfile {
	return CalibrationProfile{
		AspectRatioCorrection: 1.0,
		FOVHorizontal:         60.0,
		FOVVertical:           45.0,
		CalibrationQuality:    100.0,
		CalibrationDate:       time.Now(),
	}
}

// CorrectPoint removes systematic bias from a single normalized point.
// Composition order is fixed: distortion, then skew, then aspect ratio.
func CorrectPoint(pt Point, profile CalibrationProfile) Point {
	pt = correctDistortion(pt, profile)
	pt = correctSkew(pt, profile)
	pt = correctAspectRatio(pt, profile)
	return pt
}

// CorrectPose applies CorrectPoint to every observed keypoint and clamps
// the result back into [0,1]. Visibility passes through untouched.
func CorrectPose(p Pose, profile CalibrationProfile) Pose {
	out := make(Pose, len(p))
	for part, kp := range p {
		pt := CorrectPoint(kp.Point(), profile)
		out[part] = Keypoint{
			X:          clamp01(pt.X),
			Y:          clamp01(pt.Y),
			Visibility: kp.Visibility,
		}
	}
	return out
}

// correctDistortion applies a radial correction around the image center.
// Barrel and pincushion act in opposite directions so the combined factor
// is 1/((1+barrel*r^2)*(1-pincushion*r^2)). Points at the center need no
// correction.
func correctDistortion(pt Point, profile CalibrationProfile) Point {
	dx := pt.X - 0.5
	dy := pt.Y - 0.5
	r2 := dx*dx + dy*dy
	if r2 < 1e-9 {
		return pt
	}
	denom := (1.0 + profile.BarrelDistortion*r2) * (1.0 - profile.PincushionDistortion*r2)
	if math.Abs(denom) < 1e-9 {
		return pt
	}
	factor := 1.0 / denom
	return Point{
		X: 0.5 + dx*factor,
		Y: 0.5 + dy*factor,
	}
}

// correctSkew rotates the point about the image center by -sensorSkew.
func correctSkew(pt Point, profile CalibrationProfile) Point {
	if profile.SensorSkew == 0 {
		return pt
	}
	angle := degreesToRadians(-profile.SensorSkew)
	sin, cos := math.Sincos(angle)
	dx := pt.X - 0.5
	dy := pt.Y - 0.5
	return Point{
		X: 0.5 + dx*cos - dy*sin,
		Y: 0.5 + dx*sin + dy*cos,
	}
}

// correctAspectRatio rescales the vertical axis about the image center
// when the correction deviates from 1 by more than 1%.
func correctAspectRatio(pt Point, profile CalibrationProfile) Point {
	if math.Abs(profile.AspectRatioCorrection-1.0) <= 0.01 {
		return pt
	}
	return Point{
		X: pt.X,
		Y: 0.5 + (pt.Y-0.5)*profile.AspectRatioCorrection,
	}
}

// AutoCalibrateFromPose derives a heuristic one-shot profile from a single
// observed pose: sensor skew from the shoulder Y-difference and aspect
// ratio from the hip/shoulder width ratio. It is an estimate, not
// iterative refinement, and stamps quality 75 with a fresh timestamp.
func AutoCalibrateFromPose(p Pose, now time.Time) (CalibrationProfile, error) {
	leftShoulder, okLS := p[LeftShoulder]
	rightShoulder, okRS := p[RightShoulder]
	if !okLS || !okRS {
		return CalibrationProfile{}, errors.New("auto-calibration requires both shoulders")
	}

	profile := DefaultCalibrationProfile()

	yDiff := leftShoulder.Y - rightShoulder.Y
	profile.SensorSkew = math.Atan2(yDiff, shoulderBaseline) * 180.0 / math.Pi

	leftHip, okLH := p[LeftHip]
	rightHip, okRH := p[RightHip]
	if okLH && okRH {
		shoulderWidth := math.Abs(leftShoulder.X - rightShoulder.X)
		hipWidth := math.Abs(leftHip.X - rightHip.X)
		if shoulderWidth > 1e-9 {
			ratio := hipWidth / shoulderWidth
			if ratio < 0.9 || ratio > 1.1 {
				profile.AspectRatioCorrection = 1.0 / ratio
			}
		}
	}

	profile.CalibrationQuality = autoCalibrationQuality
	profile.CalibrationDate = now
	return profile, nil
}

// CalibrationIssue is a single flagged problem with a profile.
type CalibrationIssue struct {
	Code    IssueCode
	Message string
	Tier    Quality
}

// CalibrationReport is the outcome of ValidateCalibration.
type CalibrationReport struct {
	Issues  []CalibrationIssue
	Quality Quality
}

// ValidateCalibration flags suspicious profiles. Flags are independent and
// non-exclusive; the report quality is the worst triggered flag and never
// upgrades from poor.
func ValidateCalibration(profile CalibrationProfile, now time.Time) CalibrationReport {
	report := CalibrationReport{Quality: QualityExcellent}

	flag := func(code IssueCode, message string, tier Quality) {
		report.Issues = append(report.Issues, CalibrationIssue{Code: code, Message: message, Tier: tier})
		if tier.worseThan(report.Quality) {
			report.Quality = tier
		}
	}

	if math.Abs(profile.BarrelDistortion) > 0.3 {
		flag(CodeExcessiveDistortion, "barrel distortion magnitude exceeds 0.3", QualityFair)
	}
	if math.Abs(profile.PincushionDistortion) > 0.3 {
		flag(CodeExcessiveDistortion, "pincushion distortion magnitude exceeds 0.3", QualityFair)
	}
	if math.Abs(profile.ChromaticAberration) > 0.3 {
		flag(CodeExcessiveDistortion, "chromatic aberration magnitude exceeds 0.3", QualityFair)
	}
	if math.Abs(profile.SensorSkew) > 5.0 {
		flag(CodeExcessiveSkew, "sensor skew magnitude exceeds 5 degrees", QualityFair)
	}
	if profile.AspectRatioCorrection < 0.9 || profile.AspectRatioCorrection > 1.1 {
		flag(CodeAspectOutOfRange, "aspect ratio correction outside [0.9, 1.1]", QualityFair)
	}
	if now.Sub(profile.CalibrationDate) > maxCalibrationAge {
		flag(CodeStaleCalibration, "calibration older than 30 days", QualityGood)
	}
	if profile.CalibrationQuality < 50.0 {
		flag(CodeLowCalibrationQuality, "calibration quality below 50", QualityPoor)
	} else if profile.CalibrationQuality < 70.0 {
		flag(CodeLowCalibrationQuality, "calibration quality below 70", QualityFair)
	}

	return report
}
