package analyses

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"clarify-backend/internal/shared/server/middleware"
	"clarify-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analyses service.
type Handler struct {
	Svc         *Service
	pollLimiter *pollLimiter
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{
		Svc:         svc,
		pollLimiter: newPollLimiter(pollLimitWindow, nil),
	}
}

// RegisterRoutes attaches workflow routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyses/:id/start", h.startAnalysis)
	rg.GET("/analyses/:id/status", h.getStatus)
	rg.GET("/analyses/:id/intents", h.getIntents)
	rg.POST("/analyses/:id/intent", h.selectIntent)
	rg.GET("/analyses/:id", h.getResults)
	rg.GET("/analyses/:id/findings/:findingId", h.getFinding)
	rg.GET("/history", h.listHistory)
	rg.DELETE("/analyses/:id", h.deleteAnalysis)
}

type startAnalysisRequest struct {
	Language string `json:"language"`
}

func (h *Handler) startAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "analysis id is required", nil)
		return
	}

	// The body is optional; an empty or absent one keeps the upload-time
	// language.
	var req startAnalysisRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
			return
		}
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	if err := h.Svc.Start(ctx, userID, analysisID, req.Language); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		case errors.Is(err, ErrInvalidState):
			respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start analysis", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, gin.H{
		"analysisId": analysisID,
		"status":     StatusProcessing,
	})
}

func (h *Handler) getStatus(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	if analysisID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "analysis id is required", nil)
		return
	}
	if !h.pollLimiter.Allow(userID, analysisID) {
		c.Header("Retry-After", strconv.Itoa(h.pollLimiter.RetryAfterSeconds()))
		respond.Error(c, http.StatusTooManyRequests, "rate_limited", "Polling too frequently", nil)
		return
	}

	status, err := h.Svc.Status(c.Request.Context(), userID, analysisID)
	if err != nil {
		// Unknown IDs poll as pending so clients can start polling before
		// the analysis row exists, and ownership is not leaked.
		if errors.Is(err, ErrNotFound) {
			respond.JSON(c, http.StatusOK, StatusInfo{
				ID:          analysisID,
				Status:      StatusPending,
				CurrentStep: StepPending,
				Progress:    0,
			})
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch status", nil)
		return
	}
	respond.JSON(c, http.StatusOK, status)
}

func (h *Handler) getIntents(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")

	result, err := h.Svc.Intents(c.Request.Context(), userID, analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		case errors.Is(err, ErrNotReady):
			respond.Error(c, http.StatusConflict, "not_ready", "domain detection has not completed", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch intents", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, result)
}

type intentSelectionRequest struct {
	IntentID     string `json:"intent_id"`
	CustomIntent string `json:"custom_intent"`
	Notes        string `json:"notes"`
}

func (h *Handler) selectIntent(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")

	var req intentSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	ctx := WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
	if err := h.Svc.SubmitIntent(ctx, userID, analysisID, req.IntentID, req.CustomIntent, req.Notes); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		case errors.Is(err, ErrIntentRequired):
			respond.Error(c, http.StatusBadRequest, "validation_error", "Custom intent required when selecting 'Other'", nil)
		case errors.Is(err, ErrInvalidState):
			respond.Error(c, http.StatusConflict, "invalid_state", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to record intent", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"success":  true,
		"nextStep": StepAnalysis,
	})
}

func (h *Handler) getResults(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")

	analysis, err := h.Svc.Get(c.Request.Context(), userID, analysisID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch analysis", nil)
		}
		return
	}

	if analysis.CurrentStep != StepComplete {
		respond.JSON(c, http.StatusOK, gin.H{
			"id":          analysis.ID,
			"status":      StatusFor(analysis.CurrentStep),
			"currentStep": analysis.CurrentStep,
			"progress":    ProgressFor(analysis.CurrentStep),
		})
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"id":            analysis.ID,
		"status":        StatusComplete,
		"domain":        analysis.Domain,
		"intent":        analysis.Intent,
		"documentNames": analysis.DocumentNames,
		"language":      analysis.Language,
		"result":        analysis.Result,
		"createdAt":     analysis.CreatedAt,
	})
}

func (h *Handler) getFinding(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")
	findingID := c.Param("findingId")

	finding, err := h.Svc.Finding(c.Request.Context(), userID, analysisID, findingID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "finding not found", nil)
		case errors.Is(err, ErrNotReady):
			respond.Error(c, http.StatusConflict, "not_ready", "analysis is not complete", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch finding", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, finding)
}

func (h *Handler) listHistory(c *gin.Context) {
	if middleware.IsGuestFromContext(c) {
		respond.Error(c, http.StatusUnauthorized, "login_required", "Login required to view history", nil)
		return
	}
	userID := middleware.UserIDFromContext(c)

	limit := 10
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	entries, err := h.Svc.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list analyses", nil)
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"analyses": entries,
		"hasMore":  limit > 0 && len(entries) == limit,
	})
}

func (h *Handler) deleteAnalysis(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	analysisID := c.Param("id")

	if err := h.Svc.Delete(c.Request.Context(), userID, analysisID); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "analysis not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to delete analysis", nil)
		}
		return
	}
	respond.JSON(c, http.StatusOK, gin.H{"success": true})
}
