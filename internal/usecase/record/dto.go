package record

import (
	"time"

	domain "profile-service/internal/domain/profile"
)

// CreateRecordRequest is the payload for creating a record.
type CreateRecordRequest struct {
	Username string `validate:"required,max=254"`
	Name     string `validate:"required,min=3,max=254"`
	Email    string `validate:"required,email,max=254"`
	Age      *int   `validate:"omitempty,min=1,max=120"`
}

// ReplaceRecordRequest is the payload for replacing a record. An empty Username
// keeps the stored one.
type ReplaceRecordRequest struct {
	ID       string `validate:"required"`
	Username string `validate:"omitempty,max=254"`
	Name     string `validate:"required,min=3,max=254"`
	Email    string `validate:"required,email,max=254"`
	Age      *int   `validate:"omitempty,min=1,max=120"`
}

// QueryRequest holds the optional exact-match filters of a collection query.
type QueryRequest struct {
	Username string
	Email    string
}

// RecordResponse is a record as returned to transport adapters.
type RecordResponse struct {
	ID        string
	Username  string
	Name      string
	Email     string
	Age       *int
	CreatedAt time.Time
}

func toResponse(r *domain.Record) *RecordResponse {
	return &RecordResponse{
		ID:        r.ID,
		Username:  r.Username,
		Name:      r.Name,
		Email:     r.Email,
		Age:       r.Age,
		CreatedAt: r.CreatedAt,
	}
}
