package model

import "strings"

// FirstNameError is reported when the first name fails validation.
const FirstNameError = `First name must contain "Test"`

// ContactForm is the create/edit input. It is never stored directly; it is
// converted to a Contact at the repository boundary.
type ContactForm struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// NewContactForm prefills a form from an existing contact.
func NewContactForm(c *Contact) ContactForm {
	return ContactForm{
		FirstName: c.First,
		LastName:  c.Last,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}

// Validate reports whether the form may be saved. The first name must contain
// "test" (case-sensitive); that is the only rule and checking stops there.
// errs is never nil.
func (f ContactForm) Validate() (valid bool, errs map[string]string) {
	errs = map[string]string{}
	if !strings.Contains(f.FirstName, "test") {
		errs["first_name"] = FirstNameError
		return false, errs
	}
	return true, errs
}

// Contact converts the form into a record carrying the given id.
func (f ContactForm) Contact(id int64) *Contact {
	return &Contact{
		ID:    id,
		First: f.FirstName,
		Last:  f.LastName,
		Phone: f.Phone,
		Email: f.Email,
	}
}
