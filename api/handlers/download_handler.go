package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/internal/app"
	"github.com/yourusername/stream-master-go/internal/domain"
)

// DownloadHandler handles download-related HTTP requests
type DownloadHandler struct {
	tracker  *app.Tracker
	pipeline *app.Pipeline
	resolver domain.StreamResolver
	history  domain.HistoryRepository
	logger   *zap.Logger
}

// NewDownloadHandler creates a new download handler. resolver and history
// may be nil when the corresponding features are disabled.
func NewDownloadHandler(
	tracker *app.Tracker,
	pipeline *app.Pipeline,
	resolver domain.StreamResolver,
	history domain.HistoryRepository,
	logger *zap.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		tracker:  tracker,
		pipeline: pipeline,
		resolver: resolver,
		history:  history,
		logger:   logger,
	}
}

// AddDownloadRequest represents a request to add a download. Either a
// manifest URL or an asset id must be supplied; with only an asset id the
// manifest is looked up through the playback resolver.
type AddDownloadRequest struct {
	EpisodeID   string `json:"episode_id,omitempty"`
	AssetID     string `json:"asset_id,omitempty"`
	ManifestURL string `json:"manifest_url,omitempty"`
	Filename    string `json:"filename" binding:"required"`
}

// AddDownload handles POST /api/v1/downloads
func (h *DownloadHandler) AddDownload(c *gin.Context) {
	var req AddDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ManifestURL == "" {
		if req.AssetID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "manifest_url or asset_id is required"})
			return
		}
		if h.resolver == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "stream resolver is not configured"})
			return
		}

		source, err := h.resolver.Resolve(c.Request.Context(), req.AssetID)
		if err != nil {
			h.logger.Error("Failed to resolve stream",
				zap.String("asset_id", req.AssetID),
				zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		req.ManifestURL = source.ManifestURL
	}

	job, err := h.pipeline.Submit(domain.DownloadRequest{
		EpisodeID:   req.EpisodeID,
		AssetID:     req.AssetID,
		ManifestURL: req.ManifestURL,
		Filename:    req.Filename,
	})
	if err != nil {
		h.logger.Error("Failed to submit download", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, job)
}

// ListDownloads handles GET /api/v1/downloads
func (h *DownloadHandler) ListDownloads(c *gin.Context) {
	jobs := h.tracker.List()

	if status := c.Query("status"); status != "" {
		filtered := make([]*domain.Job, 0, len(jobs))
		for _, job := range jobs {
			if string(job.Status) == status {
				filtered = append(filtered, job)
			}
		}
		jobs = filtered
	}

	c.JSON(http.StatusOK, jobs)
}

// GetDownload handles GET /api/v1/downloads/:id
func (h *DownloadHandler) GetDownload(c *gin.Context) {
	job, ok := h.tracker.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// CancelDownload handles POST /api/v1/downloads/:id/cancel
func (h *DownloadHandler) CancelDownload(c *gin.Context) {
	id := c.Param("id")

	if err := h.pipeline.Cancel(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "download cancelled"})
}

// DeleteDownload handles DELETE /api/v1/downloads/:id. Only finished jobs
// can be dismissed; active jobs must be cancelled first.
func (h *DownloadHandler) DeleteDownload(c *gin.Context) {
	id := c.Param("id")

	job, ok := h.tracker.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}
	if job.IsActive() {
		c.JSON(http.StatusConflict, gin.H{"error": "download is in progress; cancel it first"})
		return
	}

	h.tracker.Remove(id)
	c.JSON(http.StatusOK, gin.H{"message": "download removed"})
}

// ClearCompleted handles POST /api/v1/downloads/clear-completed
func (h *DownloadHandler) ClearCompleted(c *gin.Context) {
	removed := h.tracker.ClearCompleted()
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// GetFile handles GET /api/v1/downloads/:id/file
func (h *DownloadHandler) GetFile(c *gin.Context) {
	job, ok := h.tracker.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "download not found"})
		return
	}
	if job.Status != domain.StatusCompleted || job.FilePath == "" {
		c.JSON(http.StatusConflict, gin.H{"error": "download is not completed"})
		return
	}

	c.FileAttachment(job.FilePath, job.Filename)
}

// GetHistory handles GET /api/v1/downloads/history
func (h *DownloadHandler) GetHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is not enabled"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	records, err := h.history.FindRecent(limit)
	if err != nil {
		h.logger.Error("Failed to read history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetStats handles GET /api/v1/downloads/stats
func (h *DownloadHandler) GetStats(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is not enabled"})
		return
	}

	stats, err := h.history.GetStats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}
