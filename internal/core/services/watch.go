package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/slidecast/internal/core/domain"
	"github.com/custodia-labs/slidecast/internal/core/ports/driving"
	"github.com/custodia-labs/slidecast/internal/logger"
	"github.com/custodia-labs/slidecast/internal/source"
)

// Ensure WatchService implements the interface.
var _ driving.InboxWatcher = (*WatchService)(nil)

const (
	// defaultSettleDelay is how long a file must stay unchanged before
	// it is queued. Editors and downloads write in bursts; converting
	// a half-written document wastes an OCR call.
	defaultSettleDelay = 2 * time.Second

	// watchQueueSize bounds the conversion backlog.
	watchQueueSize = 16
)

// WatchService watches an inbox directory and converts documents as
// they appear. Conversions run sequentially so a burst of drops does
// not fan out into parallel API load.
type WatchService struct {
	pipeline    driving.PipelineOrchestrator
	settleDelay time.Duration
}

// NewWatchService creates a new inbox watcher.
func NewWatchService(pipeline driving.PipelineOrchestrator, settleDelay time.Duration) *WatchService {
	if settleDelay <= 0 {
		settleDelay = defaultSettleDelay
	}
	return &WatchService{
		pipeline:    pipeline,
		settleDelay: settleDelay,
	}
}

// Watch blocks until the context is done, converting each new supported
// document that appears under dir. A failed conversion is logged and
// does not stop the watch.
//
//nolint:gocognit // Event loop coordinating debounce timers and the conversion queue
func (s *WatchService) Watch(ctx context.Context, dir string, cfg domain.RunConfig) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	logger.Info("Watching %s for documents", dir)

	queue := make(chan string, watchQueueSize)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.convertLoop(ctx, done, queue, cfg)
	}()

	// Debounce timers keyed by path. A path's timer restarts on every
	// write and only queues the file once it has settled.
	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	defer func() {
		mu.Lock()
		for _, timer := range pending {
			timer.Stop()
		}
		mu.Unlock()
		close(done)
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			path := event.Name
			if !watchable(path) {
				continue
			}

			mu.Lock()
			if timer, exists := pending[path]; exists {
				timer.Stop()
			}
			pending[path] = time.AfterFunc(s.settleDelay, func() {
				mu.Lock()
				delete(pending, path)
				mu.Unlock()

				select {
				case queue <- path:
				default:
					logger.Warn("Conversion queue full, dropping %s", path)
				}
			})
			mu.Unlock()

		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", watchErr)
		}
	}
}

// convertLoop drains the queue one conversion at a time.
func (s *WatchService) convertLoop(ctx context.Context, done <-chan struct{}, queue <-chan string, cfg domain.RunConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case path := <-queue:
			s.convertOne(ctx, path, cfg)
		}
	}
}

// convertOne runs a single conversion, logging the outcome.
func (s *WatchService) convertOne(ctx context.Context, path string, cfg domain.RunConfig) {
	logger.Info("New document: %s", path)

	run, err := s.pipeline.Convert(ctx, path, cfg)
	if err != nil {
		logger.Warn("Conversion of %s failed: %v", path, err)
		return
	}

	if run.VideoPath != "" {
		logger.Info("Converted %s: %s", path, run.VideoPath)
	} else {
		logger.Info("Converted %s: artifacts in %s", path, run.WorkspaceDir)
	}
}

// watchable filters events down to complete, supported documents.
// Hidden files and in-progress download extensions are skipped.
func watchable(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".tmp", ".part", ".crdownload", ".swp":
		return false
	}
	_, err := source.DetectFormat(path)
	return err == nil
}
