package profile

import (
	"strconv"

	domain "profile-service/internal/domain/profile"
)

// FormInput is the raw profile form as typed by the user. Age is text and may be empty.
type FormInput struct {
	Name  string
	Email string
	Age   string
}

// FormInputFrom pre-fills a form from an existing profile.
func FormInputFrom(p *domain.Profile) FormInput {
	if p == nil {
		return FormInput{}
	}
	in := FormInput{Name: p.Name, Email: p.Email}
	if p.Age != nil {
		in.Age = strconv.Itoa(*p.Age)
	}
	return in
}

// SubmitResponse is the outcome of a successful form submission.
type SubmitResponse struct {
	Profile *domain.Profile
	Created bool   // Created is true when no profile was held before the submission
	Notice  string // Notice is the success message shown to the user
}
