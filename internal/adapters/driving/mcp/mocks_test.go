package mcp

import (
	"context"
	"time"

	"github.com/custodia-labs/slidecast/internal/core/domain"
)

// mockPipelineService is a mock implementation of driving.PipelineOrchestrator.
type mockPipelineService struct {
	run   *domain.PipelineRun
	runs  []*domain.PipelineRun
	video *domain.VideoArtifact
	err   error

	convertPath string
	convertCfg  domain.RunConfig
	gotLimit    int
}

func (m *mockPipelineService) Convert(_ context.Context, documentPath string, cfg domain.RunConfig) (*domain.PipelineRun, error) {
	m.convertPath = documentPath
	m.convertCfg = cfg
	return m.run, m.err
}

func (m *mockPipelineService) Status(_ context.Context, _ string) (*domain.PipelineRun, error) {
	return m.run, m.err
}

func (m *mockPipelineService) Runs(_ context.Context, limit int) ([]*domain.PipelineRun, error) {
	m.gotLimit = limit
	return m.runs, m.err
}

func (m *mockPipelineService) DeleteRun(_ context.Context, _ string) error {
	return m.err
}

func (m *mockPipelineService) AssembleSilent(_ context.Context, _ string, _ time.Duration) (*domain.VideoArtifact, error) {
	return m.video, m.err
}

// mockCacheService is a mock implementation of driving.CacheService.
type mockCacheService struct {
	entries []domain.CacheSummary
	err     error

	removedID string
	cleared   bool
}

func (m *mockCacheService) List(_ context.Context) ([]domain.CacheSummary, error) {
	return m.entries, m.err
}

func (m *mockCacheService) Remove(_ context.Context, documentID string) error {
	m.removedID = documentID
	return m.err
}

func (m *mockCacheService) Clear(_ context.Context) error {
	m.cleared = true
	return m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings *domain.AppSettings
	cfg      domain.RunConfig
	err      error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) SetExtraction(_, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetPlanner(_ domain.PlannerProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetSpeech(_ domain.SpeechProvider, _, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetDefaults(_ domain.ConvertDefaults) error {
	return m.err
}

func (m *mockSettingsService) Validate() error {
	return m.err
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) RunConfigFromSettings() (domain.RunConfig, error) {
	return m.cfg, m.err
}

func (m *mockSettingsService) ValidateExtractionConfig() error {
	return m.err
}

func (m *mockSettingsService) ValidatePlannerConfig() error {
	return m.err
}

func (m *mockSettingsService) ValidateSpeechConfig() error {
	return m.err
}

// doneRun builds a completed run record for resource and status tests.
func doneRun(id, workspaceDir string) *domain.PipelineRun {
	stages := make(map[domain.Stage]*domain.StageRecord, len(domain.WorkStages()))
	for _, stage := range domain.WorkStages() {
		stages[stage] = &domain.StageRecord{Stage: stage, State: domain.StageStateDone}
	}
	return &domain.PipelineRun{
		ID:           id,
		DocumentID:   "doc-" + id,
		DocumentPath: "/docs/talk.pdf",
		Stage:        domain.StageDone,
		Stages:       stages,
		WorkspaceDir: workspaceDir,
		CreatedAt:    time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2026, 3, 14, 10, 35, 0, 0, time.UTC),
	}
}
