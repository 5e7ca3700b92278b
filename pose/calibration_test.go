package pose

import (
	"math"
	"testing"
	"time"
)

func TestIdentityProfileIsNoOp(t *testing.T) {
	profile := DefaultCalibrationProfile()
	points := []Point{
		{X: 0.5, Y: 0.5},
		{X: 0.1, Y: 0.9},
		{X: 0.73, Y: 0.21},
	}
	for _, pt := range points {
		corrected := CorrectPoint(pt, profile)
		if math.Abs(corrected.X-pt.X) > eps || math.Abs(corrected.Y-pt.Y) > eps {
			t.Errorf("identity profile moved %+v to %+v", pt, corrected)
		}
	}
}

func TestDistortionCorrection(t *testing.T) {
	profile := DefaultCalibrationProfile()
	profile.BarrelDistortion = 0.5

	// r^2 = 0.16 at (0.9, 0.5), factor = 1/(1 + 0.5*0.16).
	corrected := CorrectPoint(Point{X: 0.9, Y: 0.5}, profile)
	want := 0.5 + 0.4/1.08
	if math.Abs(corrected.X-want) > eps {
		t.Errorf("wrong barrel correction: got %v, want %v", corrected.X, want)
	}
	if math.Abs(corrected.Y-0.5) > eps {
		t.Errorf("pure radial correction moved y: %v", corrected.Y)
	}

	// The image center needs no correction.
	center := CorrectPoint(Point{X: 0.5, Y: 0.5}, profile)
	if center.X != 0.5 || center.Y != 0.5 {
		t.Errorf("center must be untouched: %+v", center)
	}
}

func TestSkewCorrection(t *testing.T) {
	profile := DefaultCalibrationProfile()
	profile.SensorSkew = 90.0

	// Rotating (0.6, 0.5) by -90 degrees about the center lands on (0.5, 0.4).
	corrected := CorrectPoint(Point{X: 0.6, Y: 0.5}, profile)
	if math.Abs(corrected.X-0.5) > eps || math.Abs(corrected.Y-0.4) > eps {
		t.Errorf("wrong skew correction: %+v", corrected)
	}
}

func TestAspectRatioCorrection(t *testing.T) {
	profile := DefaultCalibrationProfile()

	// Within 1% of unity the correction is skipped.
	profile.AspectRatioCorrection = 1.005
	corrected := CorrectPoint(Point{X: 0.5, Y: 0.8}, profile)
	if corrected.Y != 0.8 {
		t.Errorf("near-unity aspect correction should be skipped: %v", corrected.Y)
	}

	profile.AspectRatioCorrection = 1.2
	corrected = CorrectPoint(Point{X: 0.5, Y: 0.8}, profile)
	want := 0.5 + 0.3*1.2
	if math.Abs(corrected.Y-want) > eps {
		t.Errorf("wrong aspect correction: got %v, want %v", corrected.Y, want)
	}
}

func TestCorrectPoseClampsOutput(t *testing.T) {
	profile := DefaultCalibrationProfile()
	profile.AspectRatioCorrection = 1.5

	out := CorrectPose(Pose{Nose: {X: 0.5, Y: 0.95, Visibility: 0.9}}, profile)
	got := out[Nose]
	if got.Y < 0 || got.Y > 1 {
		t.Errorf("corrected pose escaped [0,1]: %+v", got)
	}
	if got.Visibility != 0.9 {
		t.Errorf("correction must not touch visibility: %v", got.Visibility)
	}
}

func TestAutoCalibrateFromPose(t *testing.T) {
	p := Pose{
		LeftShoulder:  {X: 0.35, Y: 0.45, Visibility: 0.9},
		RightShoulder: {X: 0.65, Y: 0.40, Visibility: 0.9},
		LeftHip:       {X: 0.40, Y: 0.70, Visibility: 0.9},
		RightHip:      {X: 0.60, Y: 0.70, Visibility: 0.9},
	}

	profile, err := AutoCalibrateFromPose(p, testStart)
	if err != nil {
		t.Fatal(err)
	}

	wantSkew := math.Atan2(0.05, 0.3) * 180.0 / math.Pi
	if math.Abs(profile.SensorSkew-wantSkew) > eps {
		t.Errorf("wrong derived skew: got %v, want %v", profile.SensorSkew, wantSkew)
	}

	// Hip/shoulder width ratio 0.2/0.3 is outside [0.9, 1.1]: correction 1/ratio.
	if math.Abs(profile.AspectRatioCorrection-1.5) > eps {
		t.Errorf("wrong derived aspect correction: %v", profile.AspectRatioCorrection)
	}
	if profile.CalibrationQuality != 75.0 {
		t.Errorf("heuristic estimate must stamp quality 75, got %v", profile.CalibrationQuality)
	}
	if !profile.CalibrationDate.Equal(testStart) {
		t.Errorf("timestamp not refreshed: %v", profile.CalibrationDate)
	}
}

func TestAutoCalibrateNeutralRatioKeepsUnity(t *testing.T) {
	p := Pose{
		LeftShoulder:  {X: 0.40, Y: 0.40, Visibility: 0.9},
		RightShoulder: {X: 0.60, Y: 0.40, Visibility: 0.9},
		LeftHip:       {X: 0.40, Y: 0.70, Visibility: 0.9},
		RightHip:      {X: 0.60, Y: 0.70, Visibility: 0.9},
	}
	profile, err := AutoCalibrateFromPose(p, testStart)
	if err != nil {
		t.Fatal(err)
	}
	if profile.AspectRatioCorrection != 1.0 {
		t.Errorf("ratio within [0.9,1.1] must keep unity correction: %v", profile.AspectRatioCorrection)
	}
}

func TestAutoCalibrateRequiresShoulders(t *testing.T) {
	_, err := AutoCalibrateFromPose(Pose{Nose: {X: 0.5, Y: 0.2, Visibility: 0.9}}, testStart)
	if err == nil {
		t.Error("expected an error for a pose without shoulders")
	}
}

func TestValidateCalibrationSkew(t *testing.T) {
	profile := DefaultCalibrationProfile()
	profile.SensorSkew = 10.0

	report := ValidateCalibration(profile, profile.CalibrationDate)
	if len(report.Issues) == 0 {
		t.Fatal("expected at least one issue for 10 degrees of skew")
	}
	if report.Quality.AtLeast(QualityGood) {
		t.Errorf("tier should be no better than fair, got %v", report.Quality)
	}
}

func TestValidateCalibrationStale(t *testing.T) {
	profile := DefaultCalibrationProfile()
	profile.CalibrationDate = testStart

	report := ValidateCalibration(profile, testStart.Add(40*24*time.Hour))
	found := false
	for _, issue := range report.Issues {
		if issue.Code == CodeStaleCalibration {
			found = true
		}
	}
	if !found {
		t.Error("40-day-old profile must be flagged stale")
	}
	if report.Quality != QualityGood {
		t.Errorf("staleness alone should grade good, got %v", report.Quality)
	}
}

func TestValidateCalibrationWorstFlagWins(t *testing.T) {
	profile := DefaultCalibrationProfile()
	profile.SensorSkew = 10.0          // fair
	profile.CalibrationQuality = 40.0  // poor

	report := ValidateCalibration(profile, profile.CalibrationDate)
	if report.Quality != QualityPoor {
		t.Errorf("worst flag must win, got %v", report.Quality)
	}
	if len(report.Issues) < 2 {
		t.Errorf("flags are independent, expected both issues: %v", report.Issues)
	}
}

func TestValidateCalibrationClean(t *testing.T) {
	report := ValidateCalibration(DefaultCalibrationProfile(), time.Now())
	if len(report.Issues) != 0 {
		t.Errorf("identity profile should be clean: %v", report.Issues)
	}
	if report.Quality != QualityExcellent {
		t.Errorf("clean profile should grade excellent, got %v", report.Quality)
	}
}
