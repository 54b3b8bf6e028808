package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/usecase/record"
	pkgerrors "profile-service/pkg/errors"
	"profile-service/pkg/logger"
)

// RecordUsecase is the profile collection logic the API handler needs.
type RecordUsecase interface {
	Query(ctx context.Context, in record.QueryRequest) ([]record.RecordResponse, error)
	Get(ctx context.Context, id string) (*record.RecordResponse, error)
	Create(ctx context.Context, in record.CreateRecordRequest) (*record.RecordResponse, error)
	Replace(ctx context.Context, in record.ReplaceRecordRequest) (*record.RecordResponse, error)
	Delete(ctx context.Context, id string) (*record.RecordResponse, error)
}

// ProfileHandler handles HTTP requests for the profile collection
type ProfileHandler struct {
	uc  RecordUsecase
	log *zap.Logger
}

// NewProfileHandler creates a new ProfileHandler instance
func NewProfileHandler(uc RecordUsecase, log *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		uc:  uc,
		log: log,
	}
}

// ProfileRequest represents the HTTP request body for creating or replacing a
// profile. Unknown fields, such as the id and createdAt echoed back by clients,
// are ignored.
type ProfileRequest struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      *int   `json:"age"`
}

// ProfileResponse represents the HTTP response for a profile
type ProfileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Age       *int      `json:"age,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func toProfileResponse(r *record.RecordResponse) ProfileResponse {
	return ProfileResponse{
		ID:        r.ID,
		Username:  r.Username,
		Name:      r.Name,
		Email:     r.Email,
		Age:       r.Age,
		CreatedAt: r.CreatedAt,
	}
}

// ListProfiles handles GET /v1/profiles?username=&email=
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	in := record.QueryRequest{
		Username: c.Query("username"),
		Email:    c.Query("email"),
	}

	out, err := h.uc.Query(c.Request.Context(), in)
	if err != nil {
		h.handleError(c, err)
		return
	}

	profiles := make([]ProfileResponse, len(out))
	for i := range out {
		profiles[i] = toProfileResponse(&out[i])
	}
	c.JSON(http.StatusOK, profiles)
}

// GetProfile handles GET /v1/profiles/:id
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	resp, err := h.uc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(resp))
}

// CreateProfile handles POST /v1/profiles
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid create profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.uc.Create(c.Request.Context(), record.CreateRecordRequest{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toProfileResponse(resp))
}

// ReplaceProfile handles PUT /v1/profiles/:id
func (h *ProfileHandler) ReplaceProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid replace profile request", zap.Error(err))
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.uc.Replace(c.Request.Context(), record.ReplaceRecordRequest{
		ID:       c.Param("id"),
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Age:      req.Age,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(resp))
}

// DeleteProfile handles DELETE /v1/profiles/:id
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	resp, err := h.uc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toProfileResponse(resp))
}

// handleError converts usecase errors to HTTP responses
func (h *ProfileHandler) handleError(c *gin.Context, err error) {
	status := pkgerrors.StatusOf(err)
	log := logger.WithContext(c.Request.Context(), h.log)

	var code string
	switch status {
	case http.StatusBadRequest:
		code = "validation_error"
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusConflict:
		code = "conflict"
	default:
		log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	log.Info("request rejected", zap.Int("status", status), zap.Error(err))
	c.JSON(status, ErrorResponse{
		Error:   code,
		Message: pkgerrors.UserMessage(err),
	})
}
