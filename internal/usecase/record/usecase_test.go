package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	domain "profile-service/internal/domain/profile"
	pkgerrors "profile-service/pkg/errors"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, r *domain.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id string) (*domain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

func (m *MockRepository) Find(ctx context.Context, f domain.Filter) ([]domain.Record, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Record), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, r *domain.Record) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id string) (*domain.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Record), args.Error(1)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func setupTestUsecase(t *testing.T) (*Usecase, *MockRepository) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, zaptest.NewLogger(t))
	uc.now = func() time.Time { return fixedNow }
	uc.newID = func() string { return "0b6f2c4e-1d8a-4c55-9a43-5b1f0f7c1e11" }
	return uc, mockRepo
}

func intPtr(i int) *int { return &i }

// ==================== CREATE ====================

func TestCreate_Success(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("Create", ctx, mock.MatchedBy(func(r *domain.Record) bool {
		return r.ID == "0b6f2c4e-1d8a-4c55-9a43-5b1f0f7c1e11" &&
			r.Username == "Alice" && r.Email == "alice@b.com" &&
			r.Age != nil && *r.Age == 30 && r.CreatedAt.Equal(fixedNow)
	})).Return(nil)

	resp, err := uc.Create(ctx, CreateRecordRequest{Username: "Alice", Name: "Alice", Email: "alice@b.com", Age: intPtr(30)})

	require.NoError(t, err)
	assert.Equal(t, "0b6f2c4e-1d8a-4c55-9a43-5b1f0f7c1e11", resp.ID)
	assert.Equal(t, fixedNow, resp.CreatedAt)
	mockRepo.AssertExpectations(t)
}

func TestCreate_DefaultIDsAreUUIDs(t *testing.T) {
	mockRepo := new(MockRepository)
	uc := New(mockRepo, zaptest.NewLogger(t))
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	a, err := uc.Create(context.Background(), CreateRecordRequest{Username: "Alice", Name: "Alice", Email: "alice@b.com"})
	require.NoError(t, err)
	b, err := uc.Create(context.Background(), CreateRecordRequest{Username: "Alice", Name: "Alice", Email: "alice@b.com"})
	require.NoError(t, err)

	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRecordRequest
		wantMsg string
	}{
		{"missing username", CreateRecordRequest{Name: "Alice", Email: "alice@b.com"}, "Username is required"},
		{"short name", CreateRecordRequest{Username: "Al", Name: "Al", Email: "alice@b.com"}, "Name must be at least 3"},
		{"bad email", CreateRecordRequest{Username: "Alice", Name: "Alice", Email: "nope"}, "Email must be a valid email"},
		{"age too high", CreateRecordRequest{Username: "Alice", Name: "Alice", Email: "alice@b.com", Age: intPtr(121)}, "Age must be at most 120"},
		{"age zero", CreateRecordRequest{Username: "Alice", Name: "Alice", Email: "alice@b.com", Age: intPtr(0)}, "Age must be at least 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc, mockRepo := setupTestUsecase(t)

			resp, err := uc.Create(context.Background(), tt.req)

			assert.Nil(t, resp)
			var ve *pkgerrors.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Contains(t, ve.Message, tt.wantMsg)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	mockRepo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := uc.Create(context.Background(), CreateRecordRequest{Username: "Alice", Name: "Alice", Email: "alice@b.com"})
	assert.EqualError(t, err, "db down")
}

// ==================== QUERY ====================

func TestQuery_PassesTrimmedFilters(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("Find", ctx, domain.Filter{Username: "Alice", Email: "alice@b.com"}).Return([]domain.Record{
		{ID: "1", Username: "Alice", Name: "Alice", Email: "alice@b.com", CreatedAt: fixedNow},
	}, nil)

	out, err := uc.Query(ctx, QueryRequest{Username: " Alice ", Email: "alice@b.com"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}

func TestQuery_EmptyResultIsEmptySlice(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	mockRepo.On("Find", mock.Anything, domain.Filter{}).Return([]domain.Record{}, nil)

	out, err := uc.Query(context.Background(), QueryRequest{})
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestQuery_RejectsBadFilter(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	_, err := uc.Query(context.Background(), QueryRequest{Username: "\xff\xfe"})
	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "username", ve.Field)
	mockRepo.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
}

// ==================== GET ====================

func TestGet(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()

	mockRepo.On("GetByID", ctx, "1").Return(&domain.Record{ID: "1", Name: "Alice"}, nil)
	mockRepo.On("GetByID", ctx, "2").Return(nil, pkgerrors.NewNotFoundError("profile", ""))

	resp, err := uc.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", resp.Name)

	_, err = uc.Get(ctx, "2")
	var nf *pkgerrors.NotFoundError
	assert.True(t, errors.As(err, &nf))

	_, err = uc.Get(ctx, " ")
	var ve *pkgerrors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

// ==================== REPLACE ====================

func TestReplace_KeepsIDCreatedAtAndUsername(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	created := fixedNow.Add(-time.Hour)

	mockRepo.On("GetByID", ctx, "1").Return(&domain.Record{ID: "1", Username: "Alice", Name: "Alice", Email: "alice@b.com", Age: intPtr(30), CreatedAt: created}, nil)
	mockRepo.On("Update", ctx, &domain.Record{ID: "1", Username: "Alice", Name: "Alice B", Email: "alice@b.com", CreatedAt: created}).Return(nil)

	resp, err := uc.Replace(ctx, ReplaceRecordRequest{ID: "1", Name: "Alice B", Email: "alice@b.com"})
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "Alice", resp.Username)
	assert.Nil(t, resp.Age)
	assert.Equal(t, created, resp.CreatedAt)
	mockRepo.AssertExpectations(t)
}

func TestReplace_UnknownID(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	mockRepo.On("GetByID", mock.Anything, "missing").Return(nil, pkgerrors.NewNotFoundError("profile", "profile not found: id=missing"))

	_, err := uc.Replace(context.Background(), ReplaceRecordRequest{ID: "missing", Name: "Alice", Email: "alice@b.com"})
	assert.Equal(t, 404, pkgerrors.StatusOf(err))
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestReplace_ValidationError(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)

	_, err := uc.Replace(context.Background(), ReplaceRecordRequest{ID: "1", Name: "Al", Email: "alice@b.com"})
	var ve *pkgerrors.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "name", ve.Field)
	mockRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

// ==================== DELETE ====================

func TestDelete(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	ctx := context.Background()
	mockRepo.On("Delete", ctx, "1").Return(&domain.Record{ID: "1", Name: "Alice"}, nil)

	resp, err := uc.Delete(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "Alice", resp.Name)
}

func TestDelete_NotFound(t *testing.T) {
	uc, mockRepo := setupTestUsecase(t)
	mockRepo.On("Delete", mock.Anything, "9").Return(nil, pkgerrors.NewNotFoundError("profile", ""))

	_, err := uc.Delete(context.Background(), "9")
	assert.Equal(t, 404, pkgerrors.StatusOf(err))
}
