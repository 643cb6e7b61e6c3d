package inquiry

import (
	"context"
	"time"
)

// State is the lifecycle state of a Form.
type State int

const (
	// Editing is the initial state; every field mutation stays here.
	Editing State = iota
	// Submitted is entered on a successful submit. The form is re-armed to
	// Editing with an empty draft before Submit returns.
	Submitted
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// Status classifies the result of a submit.
type Status int

const (
	StatusInvalid Status = iota
	StatusAcknowledged
	StatusDeliveryFailed
)

func (s Status) String() string {
	switch s {
	case StatusInvalid:
		return "invalid"
	case StatusAcknowledged:
		return "acknowledged"
	case StatusDeliveryFailed:
		return "delivery_failed"
	}
	return "unknown"
}

// DeliveryFailedMessage is shown when a valid draft could not be handed
// to the delivery channel.
const DeliveryFailedMessage = "Sorry, your message could not be sent. Please try again later or call the office."

// Acknowledgment builds the confirmation shown after a successful submit.
func Acknowledgment(practitioner string) string {
	if practitioner == "" {
		return "Thank you for your message. We will contact you soon!"
	}
	return "Thank you for your message. " + practitioner + " will contact you soon!"
}

// Outcome describes what a submit did.
type Outcome struct {
	Status Status
	// State is the state the submit transitioned into: Submitted for an
	// acknowledged draft, Editing otherwise.
	State State
	// Result holds the field errors when Status is StatusInvalid.
	Result Result
	// Acknowledgment is set when Status is StatusAcknowledged.
	Acknowledgment string
	// Inquiry is what was handed to the sender.
	Inquiry Inquiry
	// Err is the delivery error when Status is StatusDeliveryFailed.
	Err error
}

// Form owns one draft and the error mapping currently on display.
// A Form is not safe for concurrent use; each page view owns its own.
type Form struct {
	draft  Draft
	result Result
	state  State
	ack    string
	now    func() time.Time
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithAcknowledgment overrides the acknowledgment text.
func WithAcknowledgment(msg string) FormOption {
	return func(f *Form) { f.ack = msg }
}

// WithClock sets the time source used to stamp inquiries.
func WithClock(now func() time.Time) FormOption {
	return func(f *Form) { f.now = now }
}

// NewForm returns a form in the Editing state with an empty draft.
func NewForm(opts ...FormOption) *Form {
	f := &Form{
		ack: Acknowledgment(""),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Draft returns a copy of the current draft.
func (f *Form) Draft() Draft { return f.draft }

// Errors returns the error mapping from the last submit.
func (f *Form) Errors() Result { return f.result }

// State returns the current lifecycle state.
func (f *Form) State() State { return f.state }

// Set replaces one field value. Errors on display are left as they are
// until the next submit.
func (f *Form) Set(field Field, value string) error {
	d, err := f.draft.with(field, value)
	if err != nil {
		return err
	}
	f.draft = d
	f.state = Editing
	return nil
}

// SetAgree sets the agreeToContact checkbox.
func (f *Form) SetAgree(v bool) {
	f.draft.AgreeToContact = v
	f.state = Editing
}

// Fill replaces every field at once, as a full form post does.
func (f *Form) Fill(d Draft) {
	f.draft = d
	f.state = Editing
}

// Submit validates the draft. An invalid draft is left untouched and its
// errors are exposed. A valid draft is handed to s; on success the form
// shows the acknowledgment and resets to an empty draft with no errors.
// A nil sender acknowledges locally without delivering anything.
//
// A delivery failure keeps the draft so the visitor can try again. Submit
// does not retry.
func (f *Form) Submit(ctx context.Context, s Sender) Outcome {
	res := Validate(f.draft)
	if !res.Valid() {
		f.result = res
		return Outcome{Status: StatusInvalid, State: Editing, Result: res}
	}

	in := newInquiry(f.draft, f.now())
	if s != nil {
		if err := s.Send(ctx, in); err != nil {
			f.result = Result{}
			return Outcome{Status: StatusDeliveryFailed, State: Editing, Inquiry: in, Err: err}
		}
	}

	f.state = Submitted
	out := Outcome{
		Status:         StatusAcknowledged,
		State:          Submitted,
		Acknowledgment: f.ack,
		Inquiry:        in,
	}

	f.draft = Draft{}
	f.result = Result{}
	f.state = Editing
	return out
}
