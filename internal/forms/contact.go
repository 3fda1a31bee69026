// Package forms validates contact form submissions for both the gateway
// relay and the sitectl client.
package forms

import (
	"errors"
	"regexp"
	"sort"
	"strings"
)

var (
	ErrMissingFields = errors.New("Missing required fields: name, email, and message are required")
	ErrInvalidEmail  = errors.New("Invalid email format")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// InquiryTypes are the accepted values for Contact.InquiryType.
var InquiryTypes = []string{"general", "partnership", "product", "support", "career", "media"}

// Contact is a contact form submission.
type Contact struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone,omitempty"`
	Company     string `json:"company,omitempty"`
	InquiryType string `json:"inquiry_type,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Message     string `json:"message"`
}

// FieldErrors maps a field's JSON name to its problems.
type FieldErrors map[string][]string

func (f FieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

// Fields returns the field names in a stable order.
func (f FieldErrors) Fields() []string {
	out := make([]string, 0, len(f))
	for k := range f {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ValidEmail reports whether s looks like local@domain.tld.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// CheckRelay applies the relay endpoint's rules: name, email and message are
// required and email must be well formed. It returns ErrMissingFields or
// ErrInvalidEmail.
func (c Contact) CheckRelay() error {
	if blank(c.Name) || blank(c.Email) || blank(c.Message) {
		return ErrMissingFields
	}
	if !ValidEmail(c.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// Validate applies the full form rules used before a client submission and
// returns nil when the form is acceptable.
func (c Contact) Validate() FieldErrors {
	errs := FieldErrors{}
	if blank(c.Name) {
		errs.add("name", "Name is required")
	}
	switch {
	case blank(c.Email):
		errs.add("email", "Email is required")
	case !ValidEmail(c.Email):
		errs.add("email", "Enter a valid email address")
	}
	if blank(c.Subject) {
		errs.add("subject", "Subject is required")
	}
	if blank(c.Message) {
		errs.add("message", "Message is required")
	}
	if c.InquiryType != "" && !validInquiry(c.InquiryType) {
		errs.add("inquiry_type", "Choose one of: "+strings.Join(InquiryTypes, ", "))
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validInquiry(v string) bool {
	for _, t := range InquiryTypes {
		if t == v {
			return true
		}
	}
	return false
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
