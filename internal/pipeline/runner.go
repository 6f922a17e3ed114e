// Package pipeline runs project builds asynchronously and reports
// phase progress to the project's realtime topic. Builds walk a fixed
// phase sequence; a failure in any phase broadcasts a failed progress
// event and marks the project failed.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/generator"
	"github.com/xraph/blueprint/internal/logger"
	"github.com/xraph/blueprint/internal/metrics"
	"github.com/xraph/blueprint/internal/project"
	"github.com/xraph/blueprint/internal/realtime"
)

// Phase is a build pipeline stage.
type Phase string

const (
	PhaseInitializing Phase = "initializing"
	PhaseGenerating   Phase = "generating"
	PhaseValidating   Phase = "validating"
	PhasePackaging    Phase = "packaging"
	PhaseCompleted    Phase = "completed"
	PhaseFailed       Phase = "failed"
)

// Broadcaster publishes progress events to a project topic. The
// realtime registry satisfies this.
type Broadcaster interface {
	BroadcastToTopic(topicID string, event realtime.Event, excludeUserID string) int
}

// Config bounds build concurrency and paces phase transitions.
type Config struct {
	MaxConcurrentBuilds int
	PhaseDelay          time.Duration
}

// DefaultConfig returns the runner defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentBuilds: 4,
		PhaseDelay:          750 * time.Millisecond,
	}
}

// Runner executes builds. One build per project at a time; total
// concurrency is bounded by a semaphore.
type Runner struct {
	config      Config
	projects    *project.Store
	gen         *generator.Generator
	broadcaster Broadcaster
	logger      logger.Logger
	metrics     *metrics.PipelineMetrics
	clock       clockwork.Clock

	mu      sync.Mutex
	active  map[string]context.CancelFunc
	results map[string]*generator.GeneratedProject
	closed  bool

	sem chan struct{}
	wg  sync.WaitGroup
}

// Option configures optional runner collaborators.
type Option func(*Runner)

// WithClock injects the clock pacing phase transitions.
func WithClock(clock clockwork.Clock) Option {
	return func(r *Runner) {
		r.clock = clock
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a build runner.
func NewRunner(config Config, projects *project.Store, gen *generator.Generator, broadcaster Broadcaster, log logger.Logger, opts ...Option) *Runner {
	if log == nil {
		log = logger.NewNoop()
	}
	if config.MaxConcurrentBuilds <= 0 {
		config.MaxConcurrentBuilds = DefaultConfig().MaxConcurrentBuilds
	}

	r := &Runner{
		config:      config,
		projects:    projects,
		gen:         gen,
		broadcaster: broadcaster,
		logger:      log,
		clock:       clockwork.NewRealClock(),
		active:      make(map[string]context.CancelFunc),
		results:     make(map[string]*generator.GeneratedProject),
		sem:         make(chan struct{}, config.MaxConcurrentBuilds),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// StartBuild accepts a build for the owner's project and runs it in
// the background. A project with a build already running is rejected.
func (r *Runner) StartBuild(ctx context.Context, ownerID, projectID string) error {
	p, err := r.projects.Get(ctx, ownerID, projectID)
	if err != nil {
		return err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return errors.New("build runner is shut down")
	}
	if _, running := r.active[projectID]; running {
		r.mu.Unlock()
		return errors.ErrBuildInProgress(projectID)
	}

	buildCtx, cancel := context.WithCancel(context.Background())
	r.active[projectID] = cancel
	r.mu.Unlock()

	if err := r.projects.SetStatus(ctx, projectID, project.StatusBuilding); err != nil {
		r.finish(projectID)
		return err
	}

	r.logger.Info("build accepted",
		logger.String("project_id", projectID),
		logger.String("owner_id", ownerID),
	)

	r.wg.Add(1)
	go r.run(buildCtx, p)

	return nil
}

// Files returns the owner's last generated scaffold.
func (r *Runner) Files(ctx context.Context, ownerID, projectID string) (*generator.GeneratedProject, error) {
	if _, err := r.projects.Get(ctx, ownerID, projectID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result, ok := r.results[projectID]
	if !ok {
		return nil, errors.NotFound("no generated files for this project yet")
	}

	return result, nil
}

// Building reports whether the project has a build in flight.
func (r *Runner) Building(projectID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, running := r.active[projectID]

	return running
}

// Shutdown cancels every in-flight build and waits for their
// goroutines to finish or the context to expire.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	for _, cancel := range r.active {
		cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) run(ctx context.Context, p *project.Project) {
	defer r.wg.Done()
	defer r.finish(p.ID)

	select {
	case r.sem <- struct{}{}:
		defer func() { <-r.sem }()
	case <-ctx.Done():
		r.fail(p, 0, ctx.Err())
		return
	}

	if r.metrics != nil {
		r.metrics.ActiveBuilds.Inc()
		defer r.metrics.ActiveBuilds.Dec()
	}
	started := r.clock.Now()

	r.announce(p, PhaseInitializing, 0, "Preparing build", 4)
	if err := r.pause(ctx); err != nil {
		r.fail(p, 0, err)
		return
	}

	r.announce(p, PhaseGenerating, 25, "Rendering project files", 3)
	result, err := r.gen.Generate(generator.GenerateRequest{
		ProjectName:    p.Name,
		ProtocolType:   p.ProtocolType,
		ServerLanguage: p.ServerLanguage,
		ClientLanguage: p.ClientLanguage,
	})
	if err != nil {
		r.fail(p, 25, err)
		return
	}
	if err := r.pause(ctx); err != nil {
		r.fail(p, 25, err)
		return
	}

	r.announce(p, PhaseValidating, 60, "Validating generated output", 2)
	if err := validate(result); err != nil {
		r.fail(p, 60, err)
		return
	}
	if err := r.pause(ctx); err != nil {
		r.fail(p, 60, err)
		return
	}

	r.announce(p, PhasePackaging, 85, "Assembling project archive", 1)
	r.mu.Lock()
	r.results[p.ID] = result
	r.mu.Unlock()
	if err := r.pause(ctx); err != nil {
		r.fail(p, 85, err)
		return
	}

	r.announce(p, PhaseCompleted, 100, "Build complete", 0)
	if err := r.projects.SetStatus(context.Background(), p.ID, project.StatusReady); err != nil {
		r.logger.Error("failed to mark project ready",
			logger.String("project_id", p.ID),
			logger.Error(err),
		)
	}

	if r.metrics != nil {
		r.metrics.BuildsTotal.WithLabelValues("completed").Inc()
		r.metrics.BuildDuration.Observe(r.clock.Since(started).Seconds())
	}

	r.logger.Info("build completed",
		logger.String("project_id", p.ID),
		logger.Int("files", len(result.Files)),
	)
}

// announce broadcasts one progress event to the project topic.
func (r *Runner) announce(p *project.Project, phase Phase, percentage int, message string, phasesLeft int) {
	event := realtime.ProgressEvent{
		ProjectID:              p.ID,
		Phase:                  string(phase),
		Percentage:             percentage,
		Message:                message,
		Timestamp:              r.clock.Now(),
		EstimatedTimeRemaining: r.eta(phasesLeft),
	}

	r.broadcaster.BroadcastToTopic(p.ID, realtime.Event{
		Type: realtime.FrameProgress,
		Data: event,
	}, "")
}

// fail broadcasts a failed progress event and marks the project
// failed.
func (r *Runner) fail(p *project.Project, percentage int, cause error) {
	event := realtime.ProgressEvent{
		ProjectID:  p.ID,
		Phase:      string(PhaseFailed),
		Percentage: percentage,
		Message:    "Build failed",
		Timestamp:  r.clock.Now(),
		Errors:     []string{cause.Error()},
	}

	r.broadcaster.BroadcastToTopic(p.ID, realtime.Event{
		Type: realtime.FrameProgress,
		Data: event,
	}, "")

	if err := r.projects.SetStatus(context.Background(), p.ID, project.StatusFailed); err != nil {
		r.logger.Error("failed to mark project failed",
			logger.String("project_id", p.ID),
			logger.Error(err),
		)
	}

	if r.metrics != nil {
		r.metrics.BuildsTotal.WithLabelValues("failed").Inc()
	}

	r.logger.Warn("build failed",
		logger.String("project_id", p.ID),
		logger.Error(errors.ErrBuildFailed(p.ID, cause)),
	)
}

// pause waits one phase delay, bailing out if the build is cancelled.
func (r *Runner) pause(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r.config.PhaseDelay <= 0 {
		return nil
	}

	select {
	case <-r.clock.After(r.config.PhaseDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// eta estimates seconds until completion from the phases left to run.
func (r *Runner) eta(phasesLeft int) *int {
	if r.config.PhaseDelay <= 0 || phasesLeft <= 0 {
		return nil
	}

	secs := int(math.Ceil((time.Duration(phasesLeft) * r.config.PhaseDelay).Seconds()))

	return &secs
}

func (r *Runner) finish(projectID string) {
	r.mu.Lock()
	if cancel, ok := r.active[projectID]; ok {
		cancel()
		delete(r.active, projectID)
	}
	r.mu.Unlock()
}

func validate(g *generator.GeneratedProject) error {
	if len(g.Files) == 0 {
		return fmt.Errorf("scaffold produced no files")
	}
	for _, f := range g.Files {
		if f.Path == "" || f.Content == "" {
			return fmt.Errorf("scaffold produced an empty file entry")
		}
	}
	if g.Instructions == "" {
		return fmt.Errorf("scaffold produced no setup instructions")
	}

	return nil
}
