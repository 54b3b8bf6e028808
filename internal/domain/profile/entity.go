package profile

import "time"

// Profile is the single user record managed by the web application.
type Profile struct {
	ID       string `json:"id,omitempty"`       // ID is assigned by the remote store
	Username string `json:"username,omitempty"` // Username is the remote lookup key
	Name     string `json:"name"`
	Email    string `json:"email"`
	Age      *int   `json:"age,omitempty"` // Age is optional
}

// HasID reports whether the remote store has assigned an id.
func (p *Profile) HasID() bool {
	return p != nil && p.ID != ""
}

// Clone returns a deep copy of p.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	c := *p
	if p.Age != nil {
		age := *p.Age
		c.Age = &age
	}
	return &c
}

// Record is a profile as stored by the remote profile API.
type Record struct {
	ID        string
	Username  string
	Name      string
	Email     string
	Age       *int
	CreatedAt time.Time
}

// Filter selects records by exact username and/or email. Empty fields match anything.
type Filter struct {
	Username string
	Email    string
}
