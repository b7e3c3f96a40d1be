package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/stream-master-go/internal/domain"
)

// StreamHandler handles playback resolution requests
type StreamHandler struct {
	resolver domain.StreamResolver
	logger   *zap.Logger
}

// NewStreamHandler creates a new stream handler
func NewStreamHandler(resolver domain.StreamResolver, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		resolver: resolver,
		logger:   logger,
	}
}

// ResolveStreamRequest represents a request to resolve an asset reference
type ResolveStreamRequest struct {
	AssetID string `json:"asset_id" binding:"required"`
}

// ResolveStream handles POST /api/v1/streams/resolve
func (h *StreamHandler) ResolveStream(c *gin.Context) {
	if h.resolver == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "stream resolver is not configured"})
		return
	}

	var req ResolveStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
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

	c.JSON(http.StatusOK, source)
}
