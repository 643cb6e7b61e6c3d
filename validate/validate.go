// Package validate checks structs against rules named in struct tags and
// reports one message per failing field.
//
//	type Draft struct {
//	    Name  string `json:"name" validate:"required"`
//	    Email string `json:"email" validate:"required,email"`
//	    Agree bool   `json:"agree" validate:"accepted"`
//	}
//
//	if err := validate.Struct(d); err != nil {
//	    for _, e := range err.(validate.Errors) {
//	        fmt.Println(e.Field, e.Message)
//	    }
//	}
//
// Rules in one tag run left to right and the first failure wins. Every
// tagged field is visited, in declaration order.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
)

// RuleFunc checks one value. It returns the message key on failure and
// "" when the value passes.
type RuleFunc func(value any, param string) string

// Validator holds the rule set, the messages and a per-type cache of
// parsed tags.
type Validator struct {
	tagName  string
	messages *MessageProvider

	mu    sync.RWMutex
	rules map[string]RuleFunc

	plans sync.Map // reflect.Type -> []fieldPlan
}

// Option configures a Validator.
type Option func(*Validator)

// WithTagName reads rules from a tag other than "validate".
func WithTagName(name string) Option {
	return func(v *Validator) { v.tagName = name }
}

// WithMessages replaces the default English messages.
func WithMessages(m *MessageProvider) Option {
	return func(v *Validator) { v.messages = m }
}

// New returns a validator with the required, email and accepted rules.
func New(opts ...Option) *Validator {
	v := &Validator{
		tagName:  "validate",
		messages: DefaultMessages(),
		rules: map[string]RuleFunc{
			"required": ruleRequired,
			"email":    ruleEmail,
			"accepted": ruleAccepted,
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// RegisterRule adds or replaces a rule.
func (v *Validator) RegisterRule(name string, fn RuleFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rules[name] = fn
}

type ruleRef struct {
	name  string
	param string
}

// fieldPlan is the parsed tag of one struct field.
type fieldPlan struct {
	index int
	name  string
	rules []ruleRef
}

var errNilPointer = errors.New("validate: nil pointer")

// Struct validates s, a struct or pointer to struct. It returns nil or a
// non-empty Errors.
func (v *Validator) Struct(s any) error {
	val := reflect.ValueOf(s)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return errNilPointer
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return fmt.Errorf("validate: expected struct, got %s", val.Kind())
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	var errs Errors
	for _, fp := range v.plan(val.Type()) {
		fv := val.Field(fp.index)
		value := fv.Interface()
		for _, r := range fp.rules {
			fn, ok := v.rules[r.name]
			if !ok {
				continue
			}
			if key := fn(value, r.param); key != "" {
				errs = append(errs, &Error{
					Field:   fp.name,
					Rule:    r.name,
					Param:   r.param,
					Value:   value,
					Message: v.messages.Get(key, fp.name, r.param),
				})
				break
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// plan parses the tags of t once.
func (v *Validator) plan(t reflect.Type) []fieldPlan {
	if p, ok := v.plans.Load(t); ok {
		return p.([]fieldPlan)
	}
	var plans []fieldPlan
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get(v.tagName)
		if !f.IsExported() || tag == "" || tag == "-" {
			continue
		}
		plans = append(plans, fieldPlan{index: i, name: fieldName(f), rules: parseTag(tag)})
	}
	p, _ := v.plans.LoadOrStore(t, plans)
	return p.([]fieldPlan)
}

// fieldName is the json name when there is one, so errors use the same
// keys as the wire format.
func fieldName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// parseTag splits "required,min=3" into rules.
func parseTag(tag string) []ruleRef {
	var out []ruleRef
	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, param, _ := strings.Cut(part, "=")
		out = append(out, ruleRef{name: name, param: param})
	}
	return out
}

// Error is the failure of one field.
type Error struct {
	Field   string
	Rule    string
	Param   string
	Value   any
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errors lists field failures in declaration order.
type Errors []*Error

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Message
	}
	return strings.Join(msgs, "; ")
}

// FieldErrors returns the errors for one field.
func (e Errors) FieldErrors(field string) Errors {
	var out Errors
	for _, err := range e {
		if err.Field == field {
			out = append(out, err)
		}
	}
	return out
}

// ToMap returns field -> message.
func (e Errors) ToMap() map[string]string {
	out := make(map[string]string, len(e))
	for _, err := range e {
		if _, ok := out[err.Field]; !ok {
			out[err.Field] = err.Message
		}
	}
	return out
}

// First returns the first error, or nil.
func (e Errors) First() *Error {
	if len(e) == 0 {
		return nil
	}
	return e[0]
}

var std = New()

// Struct validates s with the default validator.
func Struct(s any) error {
	return std.Struct(s)
}
