package http

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"health-assistant/internal/domain"
	"health-assistant/internal/service"
)

// bodyOverhead leaves room for the JSON fields around the base64 image.
const bodyOverhead = 64 << 10

type createRecommendationRequest struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	// Image is base64 data, optionally in data URL form.
	Image string `json:"image"`
}

type feedbackRequest struct {
	Feedback *string `json:"feedback"`
}

type RecommendationResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user"`
	Type      string  `json:"type"`
	Content   string  `json:"content"`
	Feedback  *string `json:"feedback"`
	ImageURL  string  `json:"image_url,omitempty"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

func (h *Handler) createRecommendation(c *gin.Context) {
	limit := int64(h.recs.MaxImageBytes())*4/3 + bodyOverhead
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	var req createRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	image, err := decodeImage(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be base64 encoded"})
		return
	}

	rec, err := h.recs.Create(c.Request.Context(), service.CreateRecommendationRequest{
		UserID:  claimsFrom(c).UserID,
		Type:    domain.RecommendationType(req.Type),
		Content: req.Content,
		Image:   image,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, h.recommendationToResponse(c.Request.Context(), rec))
}

func (h *Handler) listRecommendations(c *gin.Context) {
	recs, err := h.recs.List(c.Request.Context(), claimsFrom(c).UserID, domain.RecommendationType(c.Query("type")))
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]RecommendationResponse, len(recs))
	for i := range recs {
		resp[i] = h.recommendationToResponse(c.Request.Context(), &recs[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) getRecommendation(c *gin.Context) {
	rec, err := h.recs.Get(c.Request.Context(), claimsFrom(c).UserID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.recommendationToResponse(c.Request.Context(), rec))
}

func (h *Handler) setFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.recs.SetFeedback(c.Request.Context(), claimsFrom(c).UserID, c.Param("id"), req.Feedback)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.recommendationToResponse(c.Request.Context(), rec))
}

func (h *Handler) deleteRecommendation(c *gin.Context) {
	if err := h.recs.Delete(c.Request.Context(), claimsFrom(c).UserID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("id")})
}

func (h *Handler) recommendationToResponse(ctx context.Context, rec *domain.Recommendation) RecommendationResponse {
	resp := RecommendationResponse{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Type:      string(rec.Type),
		Content:   rec.Content,
		Feedback:  rec.Feedback,
		CreatedAt: rec.CreatedAt.Format(time.RFC3339),
		UpdatedAt: rec.UpdatedAt.Format(time.RFC3339),
	}
	if rec.ImageKey != "" {
		url, err := h.recs.ImageURL(ctx, rec)
		if err != nil {
			h.logger.WithError(err).WithField("recommendation_id", rec.ID).Warn("presign recommendation image")
		} else {
			resp.ImageURL = url
		}
	}
	return resp
}

func decodeImage(value string) ([]byte, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if strings.HasPrefix(value, "data:") {
		if _, payload, ok := strings.Cut(value, ","); ok {
			value = payload
		}
	}
	return base64.StdEncoding.DecodeString(value)
}
