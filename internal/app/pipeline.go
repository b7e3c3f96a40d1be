package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/internal/domain"
	"github.com/yourusername/stream-master-go/internal/hls"
	"github.com/yourusername/stream-master-go/internal/infrastructure"
	"github.com/yourusername/stream-master-go/pkg/logger"
)

// Deliverer hands a finished MP4 buffer over to its destination
type Deliverer interface {
	Deliver(filename string, data []byte) (string, error)
}

// Pipeline runs download jobs end to end: manifest fetch, segment download,
// concatenation, remux, delivery. Job state is reported exclusively through
// the tracker; Submit never returns a pipeline error to the caller after
// the job is registered. The remux engine is a shared exclusive resource:
// a capacity-1 semaphore serializes conversions across concurrent jobs.
type Pipeline struct {
	tracker     *Tracker
	fetcher     *hls.Fetcher
	engine      domain.RemuxEngine
	delivery    Deliverer
	history     domain.HistoryRepository
	notifier    *infrastructure.NotificationService
	multiLogger *logger.MultiLogger
	logger      *zap.Logger

	engineSem chan struct{}

	baseCtx    context.Context
	baseCancel context.CancelFunc

	mu     sync.Mutex
	active map[string]context.CancelFunc
	wg     sync.WaitGroup
}

// NewPipeline creates a new pipeline. history may be nil when persistence
// is disabled.
func NewPipeline(
	tracker *Tracker,
	fetcher *hls.Fetcher,
	engine domain.RemuxEngine,
	delivery Deliverer,
	history domain.HistoryRepository,
	notifier *infrastructure.NotificationService,
	multiLogger *logger.MultiLogger,
	log *zap.Logger,
) *Pipeline {
	baseCtx, baseCancel := context.WithCancel(context.Background())
	return &Pipeline{
		baseCtx:     baseCtx,
		baseCancel:  baseCancel,
		tracker:     tracker,
		fetcher:     fetcher,
		engine:      engine,
		delivery:    delivery,
		history:     history,
		notifier:    notifier,
		multiLogger: multiLogger,
		logger:      log,
		engineSem:   make(chan struct{}, 1),
		active:      make(map[string]context.CancelFunc),
	}
}

// Submit registers a new job and starts processing it in the background.
// Jobs are bound to the pipeline's lifetime, not the caller's: the returned
// snapshot is the job in its queued state and all further state is
// observable only through the tracker.
func (p *Pipeline) Submit(req domain.DownloadRequest) (*domain.Job, error) {
	if req.ManifestURL == "" {
		return nil, fmt.Errorf("manifest URL is required")
	}

	job := domain.NewJob(req)
	p.tracker.Register(job)

	if p.multiLogger != nil {
		p.multiLogger.LogJobEvent("job_submitted",
			zap.String("id", job.ID),
			zap.String("filename", job.Filename),
			zap.String("manifest_url", job.ManifestURL))
	}

	jobCtx, cancel := context.WithCancel(p.baseCtx)
	p.mu.Lock()
	p.active[job.ID] = cancel
	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer func() {
			cancel()
			p.mu.Lock()
			delete(p.active, job.ID)
			p.mu.Unlock()
		}()
		p.run(jobCtx, job.ID)
	}()

	snapshot := *job
	return &snapshot, nil
}

// Cancel aborts an in-flight job. The job terminates in the error state
// with a cancellation message; finished jobs cannot be cancelled.
func (p *Pipeline) Cancel(id string) error {
	p.mu.Lock()
	cancel, ok := p.active[id]
	p.mu.Unlock()

	if !ok {
		return fmt.Errorf("no active job with id %s", id)
	}
	cancel()
	return nil
}

// Wait blocks until all in-flight jobs have finished
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Shutdown cancels every in-flight job and waits for them to settle
func (p *Pipeline) Shutdown() {
	p.baseCancel()
	p.wg.Wait()
}

// run executes one job through every stage
func (p *Pipeline) run(ctx context.Context, jobID string) {
	p.tracker.Update(jobID, func(j *domain.Job) { j.MarkDownloading() })

	output, err := p.downloadAndConvert(ctx, jobID)
	if err != nil {
		p.fail(jobID, err)
		return
	}

	job, ok := p.tracker.Get(jobID)
	if !ok {
		// Dismissed mid-flight; nothing left to report
		return
	}

	path, err := p.delivery.Deliver(job.Filename, output)
	if err != nil {
		p.fail(jobID, fmt.Errorf("failed to deliver file: %w", err))
		return
	}

	final, _ := p.tracker.Update(jobID, func(j *domain.Job) {
		j.MarkCompleted(path, int64(len(output)))
	})

	if p.multiLogger != nil {
		p.multiLogger.LogJobEvent("job_completed",
			zap.String("id", jobID),
			zap.String("file_path", path),
			zap.Int("output_bytes", len(output)))
	}
	p.logger.Info("Download completed",
		zap.String("id", jobID),
		zap.String("file", path))

	if p.notifier != nil {
		p.notifier.NotifyJobCompleted(job.Filename)
	}
	p.record(final)
}

// downloadAndConvert runs the fetch, concatenate and remux stages and
// returns the MP4 buffer
func (p *Pipeline) downloadAndConvert(ctx context.Context, jobID string) ([]byte, error) {
	job, ok := p.tracker.Get(jobID)
	if !ok {
		return nil, fmt.Errorf("job %s no longer tracked", jobID)
	}

	manifestURL := job.ManifestURL
	manifest, err := p.fetcher.FetchManifest(ctx, manifestURL)
	if err != nil {
		return nil, err
	}

	// A multivariant playlist points at renditions, not segments. Pick the
	// highest-bandwidth rendition and fetch its media playlist.
	if hls.IsMasterPlaylist(manifest) {
		variantURL, err := hls.SelectVariant(manifest, manifestURL)
		if err != nil {
			return nil, err
		}
		p.logger.Debug("Selected rendition",
			zap.String("id", jobID),
			zap.String("variant_url", variantURL))

		manifestURL = variantURL
		manifest, err = p.fetcher.FetchManifest(ctx, manifestURL)
		if err != nil {
			return nil, err
		}
	}

	segmentURLs, err := hls.ParseMediaPlaylist(manifest, manifestURL)
	if err != nil {
		return nil, err
	}
	if len(segmentURLs) == 0 {
		return nil, fmt.Errorf("manifest contains no segments")
	}

	segments, err := p.fetcher.FetchSegments(ctx, segmentURLs, func(percent int) {
		p.tracker.Update(jobID, func(j *domain.Job) { j.SetProgress(percent) })
	})
	if err != nil {
		return nil, err
	}

	combined := hls.Concat(segments)

	p.tracker.Update(jobID, func(j *domain.Job) { j.MarkConverting() })
	if p.multiLogger != nil {
		p.multiLogger.LogJobEvent("job_converting",
			zap.String("id", jobID),
			zap.Int("segments", len(segments)),
			zap.Int("input_bytes", len(combined)))
	}

	return p.remux(ctx, jobID, combined)
}

// remux runs the engine stage under the engine semaphore. Scratch files are
// scoped to the job id and removed afterwards so repeated jobs do not grow
// the engine's storage.
func (p *Pipeline) remux(ctx context.Context, jobID string, input []byte) ([]byte, error) {
	select {
	case p.engineSem <- struct{}{}:
		defer func() { <-p.engineSem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	inputName := jobID + ".ts"
	outputName := jobID + ".mp4"
	defer p.engine.Remove(inputName)
	defer p.engine.Remove(outputName)

	if err := p.engine.WriteInput(inputName, input); err != nil {
		return nil, fmt.Errorf("failed to write engine input: %w", err)
	}

	err := p.engine.Remux(ctx, inputName, outputName, func(fraction float64) {
		p.tracker.Update(jobID, func(j *domain.Job) {
			j.SetProgress(int(fraction * 100))
		})
	})
	if err != nil {
		return nil, fmt.Errorf("remux failed: %w", err)
	}

	output, err := p.engine.ReadOutput(outputName)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine output: %w", err)
	}
	return output, nil
}

// fail moves the job into the terminal error state and records it
func (p *Pipeline) fail(jobID string, err error) {
	if errors.Is(err, context.Canceled) {
		err = fmt.Errorf("cancelled by user")
	}

	final, ok := p.tracker.Update(jobID, func(j *domain.Job) { j.MarkFailed(err) })

	if p.multiLogger != nil {
		p.multiLogger.LogJobEvent("job_failed",
			zap.String("id", jobID),
			zap.Error(err))
		p.multiLogger.LogAppError("Download job failed",
			zap.String("id", jobID),
			zap.Error(err))
	}
	p.logger.Warn("Download failed",
		zap.String("id", jobID),
		zap.Error(err))

	if ok {
		if p.notifier != nil {
			p.notifier.NotifyJobFailed(final.Filename, err)
		}
		p.record(final)
	}
}

// record persists a terminal job to history
func (p *Pipeline) record(job *domain.Job) {
	if p.history == nil || job == nil {
		return
	}
	if err := p.history.Record(domain.HistoryFromJob(job)); err != nil {
		p.logger.Error("Failed to record job history",
			zap.String("id", job.ID),
			zap.Error(err))
	}
}
