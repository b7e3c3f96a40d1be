package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryPipeline LogCategory = "pipeline" // Job lifecycle events (JSON)
	CategoryError    LogCategory = "error"    // Application errors (JSON)
)

// MultiLogger provides categorized logging with separate dated output files.
// Job lifecycle events (submitted, downloading, converting, completed,
// failed) go to the pipeline log so the download history of a day can be
// replayed without grepping the main application log.
type MultiLogger struct {
	loggers map[LogCategory]*zap.Logger
	files   []*os.File
	config  MultiLoggerConfig
	mu      sync.RWMutex
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}
	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*zap.Logger),
		config:  config,
	}

	pipelineLogger, err := ml.createStructuredLogger(CategoryPipeline, level)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline logger: %w", err)
	}
	ml.loggers[CategoryPipeline] = pipelineLogger

	errorLogger, err := ml.createStructuredLogger(CategoryError, zapcore.ErrorLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create error logger: %w", err)
	}
	ml.loggers[CategoryError] = errorLogger

	return ml, nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, level zapcore.Level) (*zap.Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	dateStr := time.Now().Format("20060102")
	logPath := filepath.Join(ml.config.LogsDir, fmt.Sprintf("%s-%s.log", category, dateStr))
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	ml.files = append(ml.files, file)

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level)
	return zap.New(core), nil
}

// GetLogger returns the structured logger for a specific category
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	if logger, ok := ml.loggers[category]; ok {
		return logger
	}
	return ml.loggers[CategoryError]
}

// Pipeline returns the pipeline event logger
func (ml *MultiLogger) Pipeline() *zap.Logger {
	return ml.GetLogger(CategoryPipeline)
}

// Error returns the error logger
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogJobEvent logs a job lifecycle event to the pipeline log
func (ml *MultiLogger) LogJobEvent(event string, fields ...zap.Field) {
	allFields := append([]zap.Field{zap.String("event", event)}, fields...)
	ml.Pipeline().Info("job_event", allFields...)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// Close syncs and closes all category log files
func (ml *MultiLogger) Close() {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	for _, logger := range ml.loggers {
		_ = logger.Sync()
	}
	for _, file := range ml.files {
		_ = file.Close()
	}
}
