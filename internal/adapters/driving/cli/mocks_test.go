package cli

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
)

// completedRun builds a finished run with every work stage done.
func completedRun(id, documentPath string) *domain.PipelineRun {
	created := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	run := &domain.PipelineRun{
		ID:           id,
		DocumentID:   "doc-" + id,
		DocumentPath: documentPath,
		Stage:        domain.StageDone,
		Stages:       make(map[domain.Stage]*domain.StageRecord),
		WorkspaceDir: "/out/" + id,
		VideoPath:    "/out/" + id + "/video.mp4",
		CreatedAt:    created,
		UpdatedAt:    created.Add(3 * time.Minute),
	}
	start := created
	for _, stage := range domain.WorkStages() {
		run.Stages[stage] = &domain.StageRecord{
			Stage:      stage,
			State:      domain.StageStateDone,
			StartedAt:  start,
			FinishedAt: start.Add(30 * time.Second),
		}
		start = start.Add(30 * time.Second)
	}
	return run
}

// failedRun builds a run that failed during planning.
func failedRun(id, documentPath string) *domain.PipelineRun {
	created := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	run := &domain.PipelineRun{
		ID:           id,
		DocumentID:   "doc-" + id,
		DocumentPath: documentPath,
		Stage:        domain.StageFailed,
		Stages:       make(map[domain.Stage]*domain.StageRecord),
		Error:        "planning slides: invalid plan",
		WorkspaceDir: "/out/" + id,
		CreatedAt:    created,
		UpdatedAt:    created.Add(time.Minute),
	}
	for _, stage := range domain.WorkStages() {
		run.Stages[stage] = &domain.StageRecord{Stage: stage, State: domain.StageStatePending}
	}
	run.Stages[domain.StageExtracting].State = domain.StageStateDone
	run.Stages[domain.StageExtracting].StartedAt = created
	run.Stages[domain.StageExtracting].FinishedAt = created.Add(20 * time.Second)
	run.Stages[domain.StagePlanning].State = domain.StageStateFailed
	run.Stages[domain.StagePlanning].Error = "invalid plan"
	return run
}

// mockPipelineService implements driving.PipelineOrchestrator with
// canned successful responses.
type mockPipelineService struct{}

func (m *mockPipelineService) Convert(
	_ context.Context, documentPath string, _ domain.RunConfig,
) (*domain.PipelineRun, error) {
	return completedRun("run-123", documentPath), nil
}

func (m *mockPipelineService) Status(_ context.Context, runID string) (*domain.PipelineRun, error) {
	return completedRun(runID, "/docs/paper.pdf"), nil
}

func (m *mockPipelineService) Runs(_ context.Context, _ int) ([]*domain.PipelineRun, error) {
	return []*domain.PipelineRun{
		completedRun("run-1", "/docs/paper.pdf"),
		completedRun("run-2", "/docs/notes.md"),
	}, nil
}

func (m *mockPipelineService) DeleteRun(_ context.Context, _ string) error {
	return nil
}

func (m *mockPipelineService) AssembleSilent(
	_ context.Context, runID string, _ time.Duration,
) (*domain.VideoArtifact, error) {
	return &domain.VideoArtifact{
		Path:       "/out/" + runID + "/video.mp4",
		Duration:   time.Minute,
		SlideCount: 12,
	}, nil
}

// mockPipelineServiceEmpty has no run history.
type mockPipelineServiceEmpty struct{}

func (m *mockPipelineServiceEmpty) Convert(
	_ context.Context, documentPath string, _ domain.RunConfig,
) (*domain.PipelineRun, error) {
	return completedRun("run-123", documentPath), nil
}

func (m *mockPipelineServiceEmpty) Status(_ context.Context, _ string) (*domain.PipelineRun, error) {
	return nil, domain.ErrNotFound
}

func (m *mockPipelineServiceEmpty) Runs(_ context.Context, _ int) ([]*domain.PipelineRun, error) {
	return []*domain.PipelineRun{}, nil
}

func (m *mockPipelineServiceEmpty) DeleteRun(_ context.Context, _ string) error {
	return domain.ErrNotFound
}

func (m *mockPipelineServiceEmpty) AssembleSilent(
	_ context.Context, _ string, _ time.Duration,
) (*domain.VideoArtifact, error) {
	return nil, domain.ErrNotFound
}

// mockPipelineServiceError fails every operation.
type mockPipelineServiceError struct{}

func (m *mockPipelineServiceError) Convert(
	_ context.Context, _ string, _ domain.RunConfig,
) (*domain.PipelineRun, error) {
	return nil, errors.New("mock convert failure")
}

func (m *mockPipelineServiceError) Status(_ context.Context, _ string) (*domain.PipelineRun, error) {
	return nil, errors.New("mock status failure")
}

func (m *mockPipelineServiceError) Runs(_ context.Context, _ int) ([]*domain.PipelineRun, error) {
	return nil, errors.New("mock runs failure")
}

func (m *mockPipelineServiceError) DeleteRun(_ context.Context, _ string) error {
	return errors.New("mock delete failure")
}

func (m *mockPipelineServiceError) AssembleSilent(
	_ context.Context, _ string, _ time.Duration,
) (*domain.VideoArtifact, error) {
	return nil, errors.New("mock assemble failure")
}

// mockPipelineServiceFailedRun fails conversion but returns the partial
// run, the way the orchestrator does.
type mockPipelineServiceFailedRun struct {
	mockPipelineService
}

func (m *mockPipelineServiceFailedRun) Convert(
	_ context.Context, documentPath string, _ domain.RunConfig,
) (*domain.PipelineRun, error) {
	return failedRun("run-err", documentPath), errors.New("planning slides: invalid plan")
}

// mockCacheService implements driving.CacheService with two canned
// entries, one of them a cached failure.
type mockCacheService struct{}

func (m *mockCacheService) List(_ context.Context) ([]domain.CacheSummary, error) {
	cached := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	return []domain.CacheSummary{
		{
			DocumentID: "aabbccddeeff00112233",
			Pages:      12,
			Figures:    3,
			TextBytes:  40960,
			CachedAt:   cached,
		},
		{
			DocumentID: "ffeeddccbbaa99887766",
			Failed:     true,
			CachedAt:   cached.Add(-time.Hour),
		},
	}, nil
}

func (m *mockCacheService) Remove(_ context.Context, _ string) error {
	return nil
}

func (m *mockCacheService) Clear(_ context.Context) error {
	return nil
}

// mockCacheServiceEmpty has no cached extractions.
type mockCacheServiceEmpty struct{}

func (m *mockCacheServiceEmpty) List(_ context.Context) ([]domain.CacheSummary, error) {
	return []domain.CacheSummary{}, nil
}

func (m *mockCacheServiceEmpty) Remove(_ context.Context, _ string) error {
	return domain.ErrNotFound
}

func (m *mockCacheServiceEmpty) Clear(_ context.Context) error {
	return nil
}

// mockCacheServiceError fails every operation.
type mockCacheServiceError struct{}

func (m *mockCacheServiceError) List(_ context.Context) ([]domain.CacheSummary, error) {
	return nil, errors.New("mock list failure")
}

func (m *mockCacheServiceError) Remove(_ context.Context, _ string) error {
	return errors.New("mock remove failure")
}

func (m *mockCacheServiceError) Clear(_ context.Context) error {
	return errors.New("mock clear failure")
}

// mockSettingsService implements driving.SettingsService with the
// shipped defaults.
type mockSettingsService struct{}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	return &settings, nil
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error { return nil }

func (m *mockSettingsService) SetExtraction(_, _ string) error { return nil }

func (m *mockSettingsService) SetPlanner(_ domain.PlannerProvider, _, _ string) error { return nil }

func (m *mockSettingsService) SetSpeech(_ domain.SpeechProvider, _, _, _ string) error { return nil }

func (m *mockSettingsService) SetDefaults(_ domain.ConvertDefaults) error { return nil }

func (m *mockSettingsService) Validate() error { return nil }

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) RunConfigFromSettings() (domain.RunConfig, error) {
	return domain.RunConfig{
		TargetSlideCount: 10,
		FiguresEnabled:   true,
		Theme:            "gaia",
		Language:         "en-IN",
		Voice:            "anushka",
	}, nil
}

func (m *mockSettingsService) ValidateExtractionConfig() error { return nil }

func (m *mockSettingsService) ValidatePlannerConfig() error { return nil }

func (m *mockSettingsService) ValidateSpeechConfig() error { return nil }

// mockSettingsServiceError fails to load settings.
type mockSettingsServiceError struct {
	mockSettingsService
}

func (m *mockSettingsServiceError) Get() (*domain.AppSettings, error) {
	return nil, errors.New("mock settings failure")
}

func (m *mockSettingsServiceError) RunConfigFromSettings() (domain.RunConfig, error) {
	return domain.RunConfig{}, errors.New("mock settings failure")
}

// mockWatcherService implements driving.InboxWatcher and returns
// immediately.
type mockWatcherService struct{}

func (m *mockWatcherService) Watch(_ context.Context, _ string, _ domain.RunConfig) error {
	return nil
}

// mockWatcherServiceCanceled stops the way a Ctrl-C'd watch does.
type mockWatcherServiceCanceled struct{}

func (m *mockWatcherServiceCanceled) Watch(_ context.Context, _ string, _ domain.RunConfig) error {
	return context.Canceled
}

// mockWatcherServiceError fails to start watching.
type mockWatcherServiceError struct{}

func (m *mockWatcherServiceError) Watch(_ context.Context, _ string, _ domain.RunConfig) error {
	return errors.New("mock watch failure")
}

// mockDoctorService reports a healthy environment.
type mockDoctorService struct{}

func (m *mockDoctorService) Diagnose(_ context.Context, _ bool) []driving.CheckResult {
	return []driving.CheckResult{
		{Name: "ffmpeg", Status: driving.CheckPass, Detail: "found at /usr/bin/ffmpeg"},
		{Name: "marp", Status: driving.CheckPass, Detail: "found at /usr/local/bin/marp"},
		{Name: "speech", Status: driving.CheckWarn, Detail: "not configured, narration disabled"},
	}
}

// mockDoctorServiceFailing reports a broken environment.
type mockDoctorServiceFailing struct{}

func (m *mockDoctorServiceFailing) Diagnose(_ context.Context, _ bool) []driving.CheckResult {
	return []driving.CheckResult{
		{Name: "ffmpeg", Status: driving.CheckFail, Detail: "not found, install ffmpeg"},
		{Name: "marp", Status: driving.CheckPass, Detail: "found at /usr/local/bin/marp"},
	}
}

// setupTestServices installs happy-path mocks for every service and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldPipeline := pipelineService
	oldCache := cacheService
	oldSettings := settingsService
	oldWatcher := watcherService
	oldDoctor := doctorService

	pipelineService = &mockPipelineService{}
	cacheService = &mockCacheService{}
	settingsService = &mockSettingsService{}
	watcherService = &mockWatcherService{}
	doctorService = &mockDoctorService{}

	return func() {
		pipelineService = oldPipeline
		cacheService = oldCache
		settingsService = oldSettings
		watcherService = oldWatcher
		doctorService = oldDoctor
	}
}
