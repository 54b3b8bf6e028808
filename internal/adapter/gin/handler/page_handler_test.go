package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"profile-service/internal/adapter/gin/view"
	domain "profile-service/internal/domain/profile"
	profileuc "profile-service/internal/usecase/profile"
	pkgerrors "profile-service/pkg/errors"
)

// MockProfileFlow is a mock implementation of ProfileFlow
type MockProfileFlow struct {
	mock.Mock
}

func (m *MockProfileFlow) Current() (*domain.Profile, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Profile), args.Error(1)
}

func (m *MockProfileFlow) Submit(ctx context.Context, in profileuc.FormInput) (*profileuc.SubmitResponse, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profileuc.SubmitResponse), args.Error(1)
}

func (m *MockProfileFlow) Logout(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockProfileFlow) Detail() profileuc.DetailView {
	return m.Called().Get(0).(profileuc.DetailView)
}

func (m *MockProfileFlow) RequestDelete() profileuc.DetailView {
	return m.Called().Get(0).(profileuc.DetailView)
}

func (m *MockProfileFlow) ConfirmDelete(ctx context.Context) (profileuc.DetailView, error) {
	args := m.Called(ctx)
	return args.Get(0).(profileuc.DetailView), args.Error(1)
}

var alice = &domain.Profile{ID: "1", Username: "Alice", Name: "Alice", Email: "alice@b.com"}

func setupPageTest(t *testing.T) (*gin.Engine, *MockProfileFlow) {
	gin.SetMode(gin.TestMode)
	flow := new(MockProfileFlow)
	h := NewPageHandler(flow, zaptest.NewLogger(t))

	tmpl, err := view.Templates()
	require.NoError(t, err)

	r := gin.New()
	r.SetHTMLTemplate(tmpl)
	r.GET(PathHome, h.Home)
	r.GET(PathForm, h.ShowForm)
	r.POST(PathForm, h.SubmitForm)
	r.GET(PathProfile, h.ShowProfile)
	r.POST(PathDelete, h.RequestDelete)
	r.POST(PathDeleteConfirm, h.ConfirmDelete)
	r.POST(PathLogout, h.Logout)
	r.NoRoute(h.NotFound)
	return r, flow
}

func withProfile(flow *MockProfileFlow, p *domain.Profile) {
	if p == nil {
		flow.On("Current").Return(nil, profileuc.ErrNoProfile)
		return
	}
	flow.On("Current").Return(p, nil)
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHome(t *testing.T) {
	t.Run("without profile", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, nil)

		w := get(r, "/")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, PathForm, w.Header().Get("Location"))
	})

	t.Run("with profile", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)

		w := get(r, "/")
		assert.Equal(t, PathProfile, w.Header().Get("Location"))
	})
}

func TestShowForm(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, nil)

		w := get(r, PathForm)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Create Profile")
		assert.Contains(t, w.Body.String(), ">Login</a>")
	})

	t.Run("edit is pre-filled", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)

		w := get(r, PathForm)
		body := w.Body.String()
		assert.Contains(t, body, "Edit Profile")
		assert.Contains(t, body, "Update Profile")
		assert.Contains(t, body, `value="alice@b.com"`)
		assert.Contains(t, body, "welcome, Alice")
	})

	t.Run("clear empties inputs", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)

		w := get(r, PathForm+"?clear=1")
		body := w.Body.String()
		assert.Contains(t, body, "Edit Profile")
		assert.NotContains(t, body, `value="alice@b.com"`)
	})
}

func TestSubmitForm(t *testing.T) {
	t.Run("created redirects to detail with notice", func(t *testing.T) {
		r, flow := setupPageTest(t)
		in := profileuc.FormInput{Name: "Alice", Email: "alice@b.com", Age: "30"}
		flow.On("Submit", mock.Anything, in).Return(&profileuc.SubmitResponse{Profile: alice, Created: true, Notice: profileuc.NoticeCreated}, nil)

		w := postForm(r, PathForm, url.Values{"name": {"Alice"}, "email": {"alice@b.com"}, "age": {"30"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/profile-page?notice=created", w.Header().Get("Location"))
	})

	t.Run("updated", func(t *testing.T) {
		r, flow := setupPageTest(t)
		flow.On("Submit", mock.Anything, mock.Anything).Return(&profileuc.SubmitResponse{Profile: alice, Notice: profileuc.NoticeUpdated}, nil)

		w := postForm(r, PathForm, url.Values{"name": {"Alice"}, "email": {"alice@b.com"}})
		assert.Equal(t, "/profile-page?notice=updated", w.Header().Get("Location"))
	})

	t.Run("validation error keeps input", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, nil)
		flow.On("Submit", mock.Anything, mock.Anything).Return(nil, pkgerrors.NewValidationError("name", profileuc.MsgNameTooShort))

		w := postForm(r, PathForm, url.Values{"name": {"Al"}, "email": {"a@b.com"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), profileuc.MsgNameTooShort)
		assert.Contains(t, w.Body.String(), `value="a@b.com"`)
	})

	t.Run("remote failure", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, nil)
		flow.On("Submit", mock.Anything, mock.Anything).
			Return(nil, pkgerrors.NewNetworkError("upsert", "Failed to save profile", errors.New("eof")))

		w := postForm(r, PathForm, url.Values{"name": {"Alice"}, "email": {"alice@b.com"}})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to save profile")
	})

	t.Run("busy", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)
		flow.On("Submit", mock.Anything, mock.Anything).Return(nil, profileuc.ErrBusy)

		w := postForm(r, PathForm, url.Values{"name": {"Alice"}, "email": {"alice@b.com"}})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "Another operation is in progress")
	})
}

func TestShowProfile(t *testing.T) {
	t.Run("with notice", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)
		flow.On("Detail").Return(profileuc.DetailView{State: profileuc.StateHasProfile, Profile: alice})

		w := get(r, PathProfile+"?notice=created")
		body := w.Body.String()
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, body, profileuc.NoticeCreated)
		assert.Contains(t, body, "Name: Alice")
	})

	t.Run("unknown notice ignored", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)
		flow.On("Detail").Return(profileuc.DetailView{State: profileuc.StateHasProfile, Profile: alice})

		w := get(r, PathProfile+"?notice=<b>hi</b>")
		assert.NotContains(t, w.Body.String(), `class="notice`)
	})

	t.Run("no profile", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, nil)
		flow.On("Detail").Return(profileuc.DetailView{State: profileuc.StateNoProfile})

		w := get(r, PathProfile)
		assert.Contains(t, w.Body.String(), "No profile found !!")
	})
}

func TestDeleteFlow(t *testing.T) {
	t.Run("request shows confirmation", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)
		flow.On("RequestDelete").Return(profileuc.DetailView{State: profileuc.StateConfirmDelete, Profile: alice})

		w := postForm(r, PathDelete, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Confirm Delete")
	})

	t.Run("request without id shows error", func(t *testing.T) {
		r, flow := setupPageTest(t)
		noID := &domain.Profile{Name: "Alice", Email: "alice@b.com"}
		withProfile(flow, noID)
		flow.On("RequestDelete").Return(profileuc.DetailView{State: profileuc.StateError, Profile: noID, Message: "No user ID found to delete."})

		w := postForm(r, PathDelete, nil)
		assert.Contains(t, w.Body.String(), "No user ID found to delete.")
	})

	t.Run("confirm success redirects to form", func(t *testing.T) {
		r, flow := setupPageTest(t)
		flow.On("ConfirmDelete", mock.Anything).Return(profileuc.DetailView{State: profileuc.StateNoProfile}, nil)

		w := postForm(r, PathDeleteConfirm, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, PathForm, w.Header().Get("Location"))
	})

	t.Run("confirm failure shows error", func(t *testing.T) {
		r, flow := setupPageTest(t)
		withProfile(flow, alice)
		flow.On("ConfirmDelete", mock.Anything).Return(
			profileuc.DetailView{State: profileuc.StateError, Profile: alice, Message: "Failed to delete user."},
			pkgerrors.NewNetworkError("remove", "Failed to delete user.", nil),
		)

		w := postForm(r, PathDeleteConfirm, nil)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "Failed to delete user.")
		assert.Contains(t, w.Body.String(), "Name: Alice")
	})

	t.Run("confirm without profile", func(t *testing.T) {
		r, flow := setupPageTest(t)
		flow.On("ConfirmDelete", mock.Anything).Return(profileuc.DetailView{State: profileuc.StateNoProfile}, profileuc.ErrNoProfile)

		w := postForm(r, PathDeleteConfirm, nil)
		assert.Equal(t, PathForm, w.Header().Get("Location"))
	})
}

func TestLogout(t *testing.T) {
	r, flow := setupPageTest(t)
	flow.On("Logout", mock.Anything).Return().Once()

	w := postForm(r, PathLogout, nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, PathForm, w.Header().Get("Location"))
	flow.AssertExpectations(t)
}

func TestNotFound(t *testing.T) {
	r, flow := setupPageTest(t)
	withProfile(flow, nil)

	w := get(r, "/does-not-exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Oops! Page not found.")
	assert.Contains(t, w.Body.String(), "Go to Profile Form")
}
