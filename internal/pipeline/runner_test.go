package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/blueprint/internal/errors"
	"github.com/xraph/blueprint/internal/generator"
	"github.com/xraph/blueprint/internal/logger"
	"github.com/xraph/blueprint/internal/project"
	"github.com/xraph/blueprint/internal/realtime"
	"github.com/xraph/blueprint/internal/template"
)

type captureBroadcaster struct {
	mu     sync.Mutex
	topics []string
	events []realtime.ProgressEvent
}

func (c *captureBroadcaster) BroadcastToTopic(topicID string, event realtime.Event, _ string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.topics = append(c.topics, topicID)
	if pe, ok := event.Data.(realtime.ProgressEvent); ok {
		c.events = append(c.events, pe)
	}

	return 1
}

func (c *captureBroadcaster) progress() []realtime.ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]realtime.ProgressEvent, len(c.events))
	copy(out, c.events)

	return out
}

type runnerFixture struct {
	store     *project.Store
	runner    *Runner
	broadcast *captureBroadcaster
}

func newFixture(t *testing.T, config Config, opts ...Option) *runnerFixture {
	t.Helper()

	store := project.NewStore()
	broadcast := &captureBroadcaster{}
	runner := NewRunner(config, store, generator.New(template.NewCatalog()), broadcast, logger.NewNoop(), opts...)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})

	return &runnerFixture{store: store, runner: runner, broadcast: broadcast}
}

func (f *runnerFixture) createProject(t *testing.T, serverLanguage string) *project.Project {
	t.Helper()

	p, err := f.store.Create(context.Background(), "u1", project.CreateInput{
		Name:           "chat-api",
		ProtocolType:   "grpc",
		ServerLanguage: serverLanguage,
		ClientLanguage: "typescript",
	})
	require.NoError(t, err)

	return p
}

func (f *runnerFixture) waitDone(t *testing.T, projectID string) {
	t.Helper()

	require.Eventually(t, func() bool {
		return !f.runner.Building(projectID)
	}, 5*time.Second, 10*time.Millisecond)
}

func phasesOf(events []realtime.ProgressEvent) []string {
	phases := make([]string, 0, len(events))
	for _, e := range events {
		phases = append(phases, e.Phase)
	}

	return phases
}

func TestRunner_BuildWalksPhaseSequence(t *testing.T) {
	f := newFixture(t, Config{MaxConcurrentBuilds: 2})
	p := f.createProject(t, "go")

	require.NoError(t, f.runner.StartBuild(context.Background(), "u1", p.ID))
	f.waitDone(t, p.ID)

	events := f.broadcast.progress()
	require.Equal(t, []string{
		"initializing", "generating", "validating", "packaging", "completed",
	}, phasesOf(events))

	percentages := make([]int, 0, len(events))
	for _, e := range events {
		percentages = append(percentages, e.Percentage)
		assert.Equal(t, p.ID, e.ProjectID)
		assert.NotEmpty(t, e.Message)
	}
	assert.Equal(t, []int{0, 25, 60, 85, 100}, percentages)

	got, err := f.store.Get(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusReady, got.Status)

	files, err := f.runner.Files(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, files.Files)
	assert.NotEmpty(t, files.Instructions)
}

func TestRunner_FailureBroadcastsFailedPhase(t *testing.T) {
	f := newFixture(t, Config{MaxConcurrentBuilds: 2})
	p := f.createProject(t, "rust")

	require.NoError(t, f.runner.StartBuild(context.Background(), "u1", p.ID))
	f.waitDone(t, p.ID)

	events := f.broadcast.progress()
	require.Equal(t, []string{"initializing", "generating", "failed"}, phasesOf(events))

	last := events[len(events)-1]
	assert.Equal(t, 25, last.Percentage)
	require.NotEmpty(t, last.Errors)

	got, err := f.store.Get(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusFailed, got.Status)

	_, err = f.runner.Files(context.Background(), "u1", p.ID)
	require.Error(t, err)
}

func TestRunner_RejectsConcurrentBuildForSameProject(t *testing.T) {
	clk := clockwork.NewFakeClock()
	f := newFixture(t, Config{MaxConcurrentBuilds: 2, PhaseDelay: time.Hour}, WithClock(clk))
	p := f.createProject(t, "go")

	require.NoError(t, f.runner.StartBuild(context.Background(), "u1", p.ID))
	assert.True(t, f.runner.Building(p.ID))

	err := f.runner.StartBuild(context.Background(), "u1", p.ID)
	require.Error(t, err)
	assert.True(t, errors.IsBuildInProgress(err))

	// The first phase event carries an estimate for the slow phases.
	require.Eventually(t, func() bool {
		return len(f.broadcast.progress()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	first := f.broadcast.progress()[0]
	require.NotNil(t, first.EstimatedTimeRemaining)
	assert.Equal(t, 4*3600, *first.EstimatedTimeRemaining)

	// Shutdown cancels the parked build.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, f.runner.Shutdown(ctx))

	got, err := f.store.Get(context.Background(), "u1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, project.StatusFailed, got.Status)
}

func TestRunner_BoundsConcurrentBuilds(t *testing.T) {
	clk := clockwork.NewFakeClock()
	f := newFixture(t, Config{MaxConcurrentBuilds: 1, PhaseDelay: time.Hour}, WithClock(clk))

	first := f.createProject(t, "go")
	second, err := f.store.Create(context.Background(), "u1", project.CreateInput{
		Name:           "orders",
		ProtocolType:   "rest",
		ServerLanguage: "go",
		ClientLanguage: "go",
	})
	require.NoError(t, err)

	require.NoError(t, f.runner.StartBuild(context.Background(), "u1", first.ID))
	require.NoError(t, f.runner.StartBuild(context.Background(), "u1", second.ID))

	// Only the running build announces; the queued one stays silent.
	require.Eventually(t, func() bool {
		return len(f.broadcast.progress()) >= 1
	}, 2*time.Second, 10*time.Millisecond)
	for _, e := range f.broadcast.progress() {
		assert.Equal(t, first.ID, e.ProjectID)
	}
	assert.True(t, f.runner.Building(second.ID))
}

func TestRunner_StartBuildChecksOwnership(t *testing.T) {
	f := newFixture(t, Config{MaxConcurrentBuilds: 1})
	p := f.createProject(t, "go")

	err := f.runner.StartBuild(context.Background(), "intruder", p.ID)
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	err = f.runner.StartBuild(context.Background(), "u1", "missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestRunner_StartBuildAfterShutdownFails(t *testing.T) {
	f := newFixture(t, Config{MaxConcurrentBuilds: 1})
	p := f.createProject(t, "go")

	require.NoError(t, f.runner.Shutdown(context.Background()))

	err := f.runner.StartBuild(context.Background(), "u1", p.ID)
	require.Error(t, err)
}
