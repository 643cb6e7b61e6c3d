package inquiry

import (
	"github.com/dalemusser/landing/validate"
)

// FieldError is a named reason a single field fails its submission rule.
type FieldError struct {
	Field   Field
	Message string
}

func (e *FieldError) Error() string {
	return string(e.Field) + ": " + e.Message
}

// Result is the outcome of validating a draft. A Result with no errors
// is Valid.
type Result struct {
	Errors []*FieldError
}

// Valid reports whether every field passed.
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

// ByField returns the error messages keyed by field name.
func (r Result) ByField() map[string]string {
	out := make(map[string]string, len(r.Errors))
	for _, e := range r.Errors {
		out[string(e.Field)] = e.Message
	}
	return out
}

// Message returns the error for f, or "" when f passed.
func (r Result) Message(f Field) string {
	for _, e := range r.Errors {
		if e.Field == f {
			return e.Message
		}
	}
	return ""
}

var messages = map[string]string{
	"name.required":           "Name is required",
	"phone.required":          "Phone is required",
	"email.required":          "Email is required",
	"email.email":             "Email is invalid",
	"message.required":        "This field is required",
	"preferredTime.required":  "Preferred time is required",
	"agreeToContact.accepted": "You must agree to be contacted",
}

var validator = newValidator()

func newValidator() *validate.Validator {
	m := validate.DefaultMessages()
	m.RegisterLocale("en", messages)
	return validate.New(validate.WithMessages(m))
}

// Validate checks every field of d independently and collects one error
// per failing field. It has no side effects.
func Validate(d Draft) Result {
	err := validator.Struct(d)
	if err == nil {
		return Result{}
	}
	errs, ok := err.(validate.Errors)
	if !ok {
		// Draft is always a struct; anything else is a programming error.
		panic(err)
	}

	res := Result{Errors: make([]*FieldError, 0, len(errs))}
	for _, e := range errs {
		res.Errors = append(res.Errors, &FieldError{Field: Field(e.Field), Message: e.Message})
	}
	return res
}
