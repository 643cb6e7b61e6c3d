// Package inquiry implements the contact form of the landing page: the
// draft a visitor fills in, the rules it must satisfy, and the submit
// flow that hands a valid draft to a delivery collaborator and resets it.
package inquiry

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Field names a draft field. The values match the form input names and
// the JSON keys of the API.
type Field string

const (
	FieldName           Field = "name"
	FieldPhone          Field = "phone"
	FieldEmail          Field = "email"
	FieldMessage        Field = "message"
	FieldPreferredTime  Field = "preferredTime"
	FieldAgreeToContact Field = "agreeToContact"
)

// Fields lists every draft field in form order.
var Fields = []Field{
	FieldName,
	FieldPhone,
	FieldEmail,
	FieldMessage,
	FieldPreferredTime,
	FieldAgreeToContact,
}

// ErrUnknownField is returned when a mutation names a field the draft
// does not have.
var ErrUnknownField = errors.New("inquiry: unknown field")

// Draft is the in-progress, not-yet-submitted contact form.
// The zero value is the empty initial state.
type Draft struct {
	Name           string `json:"name" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Message        string `json:"message" validate:"required"`
	PreferredTime  string `json:"preferredTime" validate:"required"`
	AgreeToContact bool   `json:"agreeToContact" validate:"accepted"`
}

// IsEmpty reports whether d equals the initial empty draft.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// Value returns the text value of a field. AgreeToContact is rendered as
// "true" or "false".
func (d Draft) Value(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldPhone:
		return d.Phone
	case FieldEmail:
		return d.Email
	case FieldMessage:
		return d.Message
	case FieldPreferredTime:
		return d.PreferredTime
	case FieldAgreeToContact:
		if d.AgreeToContact {
			return "true"
		}
		return "false"
	}
	return ""
}

// with returns a copy of d with one text field replaced.
func (d Draft) with(f Field, value string) (Draft, error) {
	switch f {
	case FieldName:
		d.Name = value
	case FieldPhone:
		d.Phone = value
	case FieldEmail:
		d.Email = value
	case FieldMessage:
		d.Message = value
	case FieldPreferredTime:
		d.PreferredTime = value
	case FieldAgreeToContact:
		d.AgreeToContact = parseAgree(value)
	default:
		return d, ErrUnknownField
	}
	return d, nil
}

// parseAgree accepts the values browsers and JSON clients send for a
// checked box.
func parseAgree(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// Inquiry is a validated draft handed to a Sender.
type Inquiry struct {
	ID            string    `json:"id"`
	ReceivedAt    time.Time `json:"received_at"`
	Name          string    `json:"name"`
	Phone         string    `json:"phone"`
	Email         string    `json:"email"`
	Message       string    `json:"message"`
	PreferredTime string    `json:"preferred_time"`
}

// newInquiry trims the draft values and stamps an ID.
func newInquiry(d Draft, now time.Time) Inquiry {
	return Inquiry{
		ID:            newID(),
		ReceivedAt:    now.UTC(),
		Name:          strings.TrimSpace(d.Name),
		Phone:         strings.TrimSpace(d.Phone),
		Email:         strings.TrimSpace(d.Email),
		Message:       strings.TrimSpace(d.Message),
		PreferredTime: strings.TrimSpace(d.PreferredTime),
	}
}

// newID returns a time-ordered ID so inquiries sort by arrival in logs
// and queues.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return "inq_" + id.String()
}
