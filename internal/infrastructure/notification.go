package infrastructure

import (
	"fmt"
	"os/exec"

	"github.com/yourusername/stream-master-go/internal/domain"
	"go.uber.org/zap"
)

// NotificationService sends desktop notifications when jobs finish
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		config: config,
		logger: logger,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		return nil
	}

	switch n.config.Method {
	case "osascript":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
		return n.run("osascript", "-e", script)
	case "notify-send":
		return n.run("notify-send", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}
}

func (n *NotificationService) run(name string, args ...string) error {
	if err := exec.Command(name, args...).Run(); err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", name),
			zap.Error(err))
		return err
	}
	return nil
}

// NotifyJobCompleted sends a notification when a download finishes
func (n *NotificationService) NotifyJobCompleted(filename string) {
	n.Send("Download Completed", fmt.Sprintf("Saved: %s", truncateString(filename, 40)))
}

// NotifyJobFailed sends a notification when a download fails
func (n *NotificationService) NotifyJobFailed(filename string, err error) {
	n.Send("Download Failed", fmt.Sprintf("%s: %s", truncateString(filename, 40), err))
}

// truncateString truncates a string to the specified length
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
