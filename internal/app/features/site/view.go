package site

import (
	"github.com/dalemusser/landing/inquiry"
)

// MenuState is the open/closed state of the mobile navigation menu.
// The page always renders closed; the page script toggles it and any
// nav link closes it again.
type MenuState int

const (
	MenuClosed MenuState = iota
	MenuOpen
)

func (m MenuState) String() string {
	if m == MenuOpen {
		return "open"
	}
	return "closed"
}

// Toggle returns the other state.
func (m MenuState) Toggle() MenuState {
	if m == MenuOpen {
		return MenuClosed
	}
	return MenuOpen
}

// Expanded is the aria-expanded value for the menu button.
func (m MenuState) Expanded() string {
	if m == MenuOpen {
		return "true"
	}
	return "false"
}

// pageData is the root value of every page template.
type pageData struct {
	Title   string
	Content *Content
	Menu    MenuState
	Form    formView
}

// formView is what the contact_form snippet renders.
type formView struct {
	Fields []fieldView

	Agree      bool
	AgreeError string

	// Acknowledgment replaces nothing; it is shown above an empty form.
	Acknowledgment string
	// Error is a form-level message (delivery failure, rate limit).
	Error string
}

type fieldView struct {
	FieldCopy
	Value string
	Error string
}

// Multiline reports whether the field renders as a textarea.
func (f fieldView) Multiline() bool { return f.Type == "textarea" }

// newFormView merges the form copy with a draft and its errors.
func newFormView(c *Content, d inquiry.Draft, res inquiry.Result) formView {
	fv := formView{
		Fields:     make([]fieldView, 0, len(c.Contact.Form.Fields)),
		Agree:      d.AgreeToContact,
		AgreeError: res.Message(inquiry.FieldAgreeToContact),
	}
	for _, fc := range c.Contact.Form.Fields {
		f := inquiry.Field(fc.Name)
		fv.Fields = append(fv.Fields, fieldView{
			FieldCopy: fc,
			Value:     d.Value(f),
			Error:     res.Message(f),
		})
	}
	return fv
}
