package pose

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// TemplateCatalog supplies target templates by id. The host owns the
// catalog; the pipeline only reads from it.
type TemplateCatalog interface {
	Template(id string) (PoseTemplate, bool)
}

// CatalogMap is the simplest TemplateCatalog: a plain in-memory map.
type CatalogMap map[string]PoseTemplate

// Template returns the template registered under the given id.
func (c CatalogMap) Template(id string) (PoseTemplate, bool) {
	template, ok := c[id]
	return template, ok
}

// CalibrationStore is the narrow persistence port for calibration
// profiles. The pipeline has no opinion on the storage medium; the host
// supplies an implementation backed by whatever it likes.
type CalibrationStore interface {
	Load() (CalibrationProfile, error)
	Save(profile CalibrationProfile) error
}

// Engine owns the pipeline configuration: calibration profile, template
// catalog, filter parameters and validation mode. It replaces any notion
// of a process-wide shared instance; hosts construct one explicitly and
// pass it around.
type Engine struct {
	profile   CalibrationProfile
	catalog   TemplateCatalog
	config    SmootherConfig
	validator *Validator
	matcher   *Matcher
}

// NewEngine creates an engine with explicit configuration.
func NewEngine(profile CalibrationProfile, catalog TemplateCatalog, config SmootherConfig, strict bool) *Engine {
	return &Engine{
		profile:   profile,
		catalog:   catalog,
		config:    config,
		validator: NewValidator(strict),
		matcher:   NewMatcherDefault(),
	}
}

// NewEngineDefault creates an engine with the identity calibration
// profile, an empty catalog and default filter parameters.
func NewEngineDefault() *Engine {
	return NewEngine(DefaultCalibrationProfile(), CatalogMap{}, DefaultSmootherConfig(), false)
}

// Calibration returns the active calibration profile.
func (e *Engine) Calibration() CalibrationProfile {
	return e.profile
}

// SetCalibration replaces the active calibration profile.
func (e *Engine) SetCalibration(profile CalibrationProfile) {
	e.profile = profile
}

// AutoCalibrate derives a heuristic profile from the given pose and makes
// it the active one.
func (e *Engine) AutoCalibrate(p Pose, now time.Time) (CalibrationProfile, error) {
	profile, err := AutoCalibrateFromPose(p, now)
	if err != nil {
		return CalibrationProfile{}, err
	}
	e.profile = profile
	return profile, nil
}

// LoadCalibration pulls the active profile from the host's store.
func (e *Engine) LoadCalibration(store CalibrationStore) error {
	profile, err := store.Load()
	if err != nil {
		return errors.Wrap(err, "can't load calibration profile")
	}
	e.profile = profile
	return nil
}

// SaveCalibration hands the active profile to the host's store.
func (e *Engine) SaveCalibration(store CalibrationStore) error {
	if err := store.Save(e.profile); err != nil {
		return errors.Wrap(err, "can't save calibration profile")
	}
	return nil
}

// Frame is the per-frame pipeline output.
type Frame struct {
	Smoothed   Pose
	Validation ValidationResult
}

// Session is one independent tracking session: it owns the mutable
// per-keypoint filter state for a single subject. Sessions assume a single
// writer; concurrent calls against the same session need external mutual
// exclusion. Distinct sessions share nothing and may run concurrently.
type Session struct {
	id       uuid.UUID
	engine   *Engine
	smoother *Smoother

	lastSmoothed Pose
}

// NewSession creates an independent tracking session.
func (e *Engine) NewSession() *Session {
	return &Session{
		id:       uuid.New(),
		engine:   e,
		smoother: NewSmoother(e.config),
	}
}

// ID returns the session's identifier.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// Process runs one frame of raw keypoints through the pipeline:
// calibration correction, temporal smoothing, then validation. The call
// is synchronous, performs no I/O and never blocks.
func (s *Session) Process(p Pose, now time.Time) Frame {
	corrected := CorrectPose(p, s.engine.profile)
	smoothed := s.smoother.Update(corrected, now)
	s.lastSmoothed = smoothed
	return Frame{
		Smoothed:   smoothed,
		Validation: s.engine.validator.Validate(smoothed),
	}
}

// Match scores the most recently processed frame against a catalog
// template.
func (s *Session) Match(templateID string) (MatchResult, error) {
	if s.lastSmoothed == nil {
		return MatchResult{}, errors.New("no frame has been processed yet")
	}
	if s.engine.catalog == nil {
		return MatchResult{}, errors.New("no template catalog configured")
	}
	template, ok := s.engine.catalog.Template(templateID)
	if !ok {
		return MatchResult{}, errors.Errorf("unknown template '%s'", templateID)
	}
	return s.engine.matcher.Match(s.lastSmoothed, template), nil
}

// ProcessAndMatch combines Process and Match for hosts that score every
// frame.
func (s *Session) ProcessAndMatch(p Pose, now time.Time, templateID string) (Frame, MatchResult, error) {
	frame := s.Process(p, now)
	match, err := s.Match(templateID)
	if err != nil {
		return frame, MatchResult{}, err
	}
	return frame, match, nil
}

// Reset drops the session's filter state while keeping its identity.
func (s *Session) Reset() {
	s.smoother.Reset()
	s.lastSmoothed = nil
}
