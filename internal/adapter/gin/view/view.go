package view

import (
	"embed"
	"html/template"
	"strconv"

	domain "profile-service/internal/domain/profile"
)

// Template names.
const (
	FormTemplate     = "form.html"
	ProfileTemplate  = "profile.html"
	NotFoundTemplate = "not_found.html"
	ErrorTemplate    = "error.html"
)

// Notice kinds.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Notice is a dismissible message shown at the top of a page.
type Notice struct {
	Kind string
	Text string
}

// Page holds what every page renders: the title and the navbar.
type Page struct {
	Title   string
	Current *domain.Profile // nil renders the Login link
	Notice  *Notice
}

// FormValues are the raw inputs of the profile form.
type FormValues struct {
	Name  string
	Email string
	Age   string
}

// FormPage renders the create/edit form.
type FormPage struct {
	Page
	Editing bool
	Form    FormValues
}

// DetailPage renders the profile detail view in one of its states.
type DetailPage struct {
	Page
	State   string
	Profile *domain.Profile
	Message string
}

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"ageText": ageText,
	}).ParseFS(templatesFS, "templates/*.html")
}

func ageText(age *int) string {
	if age == nil {
		return "Not Provided"
	}
	return strconv.Itoa(*age)
}
