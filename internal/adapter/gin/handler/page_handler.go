package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"profile-service/internal/adapter/gin/view"
	domain "profile-service/internal/domain/profile"
	profileuc "profile-service/internal/usecase/profile"
	pkgerrors "profile-service/pkg/errors"
	"profile-service/pkg/logger"
)

// ProfileFlow is the profile application logic the page handler drives.
type ProfileFlow interface {
	Current() (*domain.Profile, error)
	Submit(ctx context.Context, in profileuc.FormInput) (*profileuc.SubmitResponse, error)
	Logout(ctx context.Context)
	Detail() profileuc.DetailView
	RequestDelete() profileuc.DetailView
	ConfirmDelete(ctx context.Context) (profileuc.DetailView, error)
}

// Page paths.
const (
	PathHome          = "/"
	PathForm          = "/profile-form"
	PathProfile       = "/profile-page"
	PathDelete        = "/profile-page/delete"
	PathDeleteConfirm = "/profile-page/delete/confirm"
	PathLogout        = "/logout"
)

// noticeParam carries the success notice across the post/redirect/get hop.
const noticeParam = "notice"

var successNotices = map[string]string{
	"created": profileuc.NoticeCreated,
	"updated": profileuc.NoticeUpdated,
}

// PageHandler renders the profile pages
type PageHandler struct {
	flow ProfileFlow
	log  *zap.Logger
}

// NewPageHandler creates a new PageHandler instance
func NewPageHandler(flow ProfileFlow, log *zap.Logger) *PageHandler {
	return &PageHandler{
		flow: flow,
		log:  log,
	}
}

// Home handles GET /: the detail page when a profile is held, the form otherwise.
func (h *PageHandler) Home(c *gin.Context) {
	if _, err := h.flow.Current(); err != nil {
		c.Redirect(http.StatusFound, PathForm)
		return
	}
	c.Redirect(http.StatusFound, PathProfile)
}

// ShowForm handles GET /profile-form. ?clear=1 renders empty inputs without
// touching the held profile.
func (h *PageHandler) ShowForm(c *gin.Context) {
	current, _ := h.flow.Current()

	values := view.FormValues{}
	if c.Query("clear") == "" {
		values = formValues(profileuc.FormInputFrom(current))
	}

	h.renderForm(c, http.StatusOK, current, values, nil)
}

// SubmitForm handles POST /profile-form
func (h *PageHandler) SubmitForm(c *gin.Context) {
	in := profileuc.FormInput{
		Name:  c.PostForm("name"),
		Email: c.PostForm("email"),
		Age:   c.PostForm("age"),
	}

	resp, err := h.flow.Submit(c.Request.Context(), in)
	if err != nil {
		current, _ := h.flow.Current()
		h.renderForm(c, pkgerrors.StatusOf(err), current, formValues(in), &view.Notice{
			Kind: view.NoticeError,
			Text: formErrorText(err),
		})
		return
	}

	notice := "updated"
	if resp.Created {
		notice = "created"
	}
	c.Redirect(http.StatusSeeOther, PathProfile+"?"+noticeParam+"="+notice)
}

// ShowProfile handles GET /profile-page
func (h *PageHandler) ShowProfile(c *gin.Context) {
	var notice *view.Notice
	if text, ok := successNotices[c.Query(noticeParam)]; ok {
		notice = &view.Notice{Kind: view.NoticeSuccess, Text: text}
	}
	h.renderDetail(c, http.StatusOK, h.flow.Detail(), notice)
}

// RequestDelete handles POST /profile-page/delete
func (h *PageHandler) RequestDelete(c *gin.Context) {
	h.renderDetail(c, http.StatusOK, h.flow.RequestDelete(), nil)
}

// ConfirmDelete handles POST /profile-page/delete/confirm
func (h *PageHandler) ConfirmDelete(c *gin.Context) {
	detail, err := h.flow.ConfirmDelete(c.Request.Context())
	if err != nil {
		if errors.Is(err, profileuc.ErrNoProfile) {
			c.Redirect(http.StatusSeeOther, PathForm)
			return
		}
		h.renderDetail(c, pkgerrors.StatusOf(err), detail, nil)
		return
	}
	c.Redirect(http.StatusSeeOther, PathForm)
}

// Logout handles POST /logout
func (h *PageHandler) Logout(c *gin.Context) {
	h.flow.Logout(c.Request.Context())
	c.Redirect(http.StatusSeeOther, PathForm)
}

// NotFound renders the 404 page for unknown routes
func (h *PageHandler) NotFound(c *gin.Context) {
	current, _ := h.flow.Current()
	c.HTML(http.StatusNotFound, view.NotFoundTemplate, view.Page{Title: "Page Not Found", Current: current})
}

// InternalError renders the generic error page, used by panic recovery
func (h *PageHandler) InternalError(c *gin.Context) {
	current, _ := h.flow.Current()
	c.HTML(http.StatusInternalServerError, view.ErrorTemplate, view.Page{Title: "Error", Current: current})
}

func (h *PageHandler) renderForm(c *gin.Context, status int, current *domain.Profile, values view.FormValues, notice *view.Notice) {
	title := "Create Profile"
	if current != nil {
		title = "Edit Profile"
	}
	c.HTML(status, view.FormTemplate, view.FormPage{
		Page:    view.Page{Title: title, Current: current, Notice: notice},
		Editing: current != nil,
		Form:    values,
	})
}

func (h *PageHandler) renderDetail(c *gin.Context, status int, detail profileuc.DetailView, notice *view.Notice) {
	if detail.State == profileuc.StateError {
		logger.WithContext(c.Request.Context(), h.log).Info("detail error shown", zap.String("message", detail.Message))
	}
	current, _ := h.flow.Current()
	c.HTML(status, view.ProfileTemplate, view.DetailPage{
		Page:    view.Page{Title: "Profile Details", Current: current, Notice: notice},
		State:   string(detail.State),
		Profile: detail.Profile,
		Message: detail.Message,
	})
}

func formValues(in profileuc.FormInput) view.FormValues {
	return view.FormValues{Name: in.Name, Email: in.Email, Age: in.Age}
}

// formErrorText is the notice shown when a submission fails. Anything that is
// neither a validation nor a busy rejection reads as a failed save.
func formErrorText(err error) string {
	var ve *pkgerrors.ValidationError
	var ce *pkgerrors.ConflictError
	if errors.As(err, &ve) || errors.As(err, &ce) {
		return pkgerrors.UserMessage(err)
	}
	return "Failed to save profile"
}
