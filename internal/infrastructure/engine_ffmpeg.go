package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/internal/domain"
)

// FFmpegEngine implements domain.RemuxEngine by shelling out to ffmpeg. The
// engine's scratch directory plays the role of the toolchain's filesystem:
// inputs are written there by name, outputs read back and removed per job.
type FFmpegEngine struct {
	ffmpegPath  string
	ffprobePath string
	workDir     string
	ownsWorkDir bool
	logger      *zap.Logger
}

// NewFFmpegEngine creates the engine. When no work directory is configured
// a temporary one is created and removed on Close.
func NewFFmpegEngine(config *domain.EngineConfig, logger *zap.Logger) (*FFmpegEngine, error) {
	workDir := config.WorkDir
	ownsWorkDir := false
	if workDir == "" {
		dir, err := os.MkdirTemp("", "stream-master-engine-")
		if err != nil {
			return nil, fmt.Errorf("failed to create engine work directory: %w", err)
		}
		workDir = dir
		ownsWorkDir = true
	} else {
		if err := os.MkdirAll(workDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create engine work directory: %w", err)
		}
	}

	return &FFmpegEngine{
		ffmpegPath:  config.FFmpegBinary,
		ffprobePath: config.FFprobeBinary,
		workDir:     workDir,
		ownsWorkDir: ownsWorkDir,
		logger:      logger,
	}, nil
}

// Close removes the scratch directory if the engine created it
func (e *FFmpegEngine) Close() {
	if e.ownsWorkDir {
		_ = os.RemoveAll(e.workDir)
	}
}

// path maps a scratch file name into the work directory. Base is taken so
// callers cannot escape the directory.
func (e *FFmpegEngine) path(name string) string {
	return filepath.Join(e.workDir, filepath.Base(name))
}

// WriteInput stores the concatenated transport stream under name
func (e *FFmpegEngine) WriteInput(name string, data []byte) error {
	return os.WriteFile(e.path(name), data, 0644)
}

// ReadOutput returns the produced MP4 bytes
func (e *FFmpegEngine) ReadOutput(name string) ([]byte, error) {
	return os.ReadFile(e.path(name))
}

// Remove deletes a scratch file; missing files are not an error
func (e *FFmpegEngine) Remove(name string) error {
	err := os.Remove(e.path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Remux repackages the transport stream into an MP4 without re-encoding.
// Streams are copied, AAC audio is rewritten from ADTS framing to the MP4
// convention, and the moov atom is moved to the front so playback can start
// before the whole file arrives.
func (e *FFmpegEngine) Remux(ctx context.Context, inputName, outputName string, onProgress domain.ProgressFunc) error {
	inputPath := e.path(inputName)
	outputPath := e.path(outputName)

	duration := e.probeDuration(ctx, inputPath)

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-i", inputPath,
		"-c", "copy",
		"-bsf:a", "aac_adtstoasc",
		"-movflags", "+faststart",
		"-progress", "pipe:1",
		"-nostats",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}

	if e.logger != nil {
		e.logger.Debug("Starting remux",
			zap.String("input", inputPath),
			zap.String("output", outputPath),
			zap.Duration("duration", duration))
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("ffmpeg start: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		elapsed, ok := parseProgressLine(scanner.Text())
		if !ok || onProgress == nil || duration <= 0 {
			continue
		}
		fraction := float64(elapsed) / float64(duration)
		if fraction > 1 {
			fraction = 1
		}
		onProgress(fraction)
	}

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The engine's own message is forwarded untouched for diagnostics
		stderrMsg := strings.TrimSpace(stderr.String())
		return fmt.Errorf("ffmpeg: %w: %s", err, stderrMsg)
	}

	if onProgress != nil {
		onProgress(1)
	}

	if e.logger != nil {
		e.logger.Info("Remux finished",
			zap.String("output", outputPath),
			zap.Duration("took", time.Since(start)))
	}
	return nil
}

// probeDuration asks ffprobe for the input duration so progress output can
// be mapped onto a completion fraction. A failed probe degrades progress
// reporting, not the remux itself.
func (e *FFmpegEngine) probeDuration(ctx context.Context, inputPath string) time.Duration {
	cmd := exec.CommandContext(ctx, e.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		inputPath,
	)

	out, err := cmd.Output()
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("ffprobe failed, conversion progress unavailable",
				zap.String("input", inputPath),
				zap.Error(err))
		}
		return 0
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// parseProgressLine extracts the elapsed output time from one line of
// ffmpeg -progress output (key=value pairs, one per line)
func parseProgressLine(line string) (time.Duration, bool) {
	value, found := strings.CutPrefix(strings.TrimSpace(line), "out_time_us=")
	if !found {
		return 0, false
	}
	micros, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || micros < 0 {
		return 0, false
	}
	return time.Duration(micros) * time.Microsecond, true
}
