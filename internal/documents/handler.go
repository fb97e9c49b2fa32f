package documents

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"clarify-backend/internal/pdfinfo"
	"clarify-backend/internal/shared/server/middleware"
	"clarify-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches upload routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/upload", h.upload)
}

func (h *Handler) upload(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	maxBytes := h.Svc.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 20 << 20
	}
	maxFiles := int64(h.Svc.MaxFiles)
	if maxFiles <= 0 {
		maxFiles = 5
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes*maxFiles)

	form, err := c.MultipartForm()
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "multipart form is required", nil)
		return
	}

	fileHeaders := form.File["files"]
	if len(fileHeaders) == 0 {
		respond.Error(c, http.StatusBadRequest, "validation_error", "at least one file is required", nil)
		return
	}

	language := ""
	if vals := form.Value["language"]; len(vals) > 0 {
		language = vals[0]
	}

	uploads := make([]Upload, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		if !pdfinfo.AcceptableMimeType(fh.Header.Get("Content-Type")) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "only PDF files are accepted", gin.H{"fileName": fh.Filename})
			return
		}
		file, err := fh.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", gin.H{"fileName": fh.Filename})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", gin.H{"fileName": fh.Filename})
			return
		}
		uploads = append(uploads, Upload{Name: fh.Filename, Data: data})
	}

	result, err := h.Svc.Stage(c.Request.Context(), userID, language, uploads)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooManyFiles), errors.Is(err, ErrFileTooLarge), errors.Is(err, ErrInvalidInput):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to stage upload", nil)
		}
		return
	}

	c.Set("analysisId", result.AnalysisID)
	respond.JSON(c, http.StatusCreated, result)
}
