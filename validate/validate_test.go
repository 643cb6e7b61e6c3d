package validate

import "testing"

type signup struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Agree   bool   `json:"agree" validate:"accepted"`
	Comment string `json:"comment"`
	hidden  string `validate:"required"`
}

func TestStruct_Valid(t *testing.T) {
	v := New()
	err := v.Struct(signup{Name: "Ada", Email: "ada@example.com", Agree: true})
	if err != nil {
		t.Fatalf("Struct() = %v, want nil", err)
	}
}

func TestStruct_CollectsEveryField(t *testing.T) {
	v := New()
	err := v.Struct(&signup{})
	errs, ok := err.(Errors)
	if !ok {
		t.Fatalf("Struct() error type = %T, want Errors", err)
	}

	got := errs.ToMap()
	want := map[string]string{
		"name":  "name is required",
		"email": "email is required",
		"agree": "agree must be accepted",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d errors (%v), want %d", len(got), got, len(want))
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("%s = %q, want %q", field, got[field], msg)
		}
	}

	// Declaration order is preserved.
	if first := errs.First(); first == nil || first.Field != "name" {
		t.Errorf("First() = %+v, want field name", first)
	}
}

func TestStruct_OneErrorPerField(t *testing.T) {
	v := New()
	err := v.Struct(signup{Name: "Ada", Email: "   ", Agree: true})
	errs := err.(Errors)
	if n := len(errs.FieldErrors("email")); n != 1 {
		t.Fatalf("email errors = %d, want 1", n)
	}
	if errs[0].Rule != "required" {
		t.Errorf("rule = %q, want required", errs[0].Rule)
	}
}

func TestStruct_RejectsNonStruct(t *testing.T) {
	if err := New().Struct(42); err == nil {
		t.Fatal("expected error for non-struct")
	}
	var p *signup
	if err := New().Struct(p); err == nil {
		t.Fatal("expected error for nil pointer")
	}
}

func TestEmailShape(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a@b.c", true},
		{"first.last@example.co.uk", true},
		{"not-an-email", false},
		{"a@b", false},
		{"@b.c", false},
		{"a@.c", false},
		{"a @b.c", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := EmailShape(tt.in); got != tt.want {
			t.Errorf("EmailShape(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMessageProvider_FieldOverride(t *testing.T) {
	m := DefaultMessages()
	m.AddMessage("en", "name.required", "Tell us your name")

	if got := m.Get("required", "name", ""); got != "Tell us your name" {
		t.Errorf("field override = %q", got)
	}
	if got := m.Get("required", "city", ""); got != "city is required" {
		t.Errorf("generic = %q", got)
	}
	if got := m.Get("nosuchrule", "city", ""); got != "nosuchrule validation failed for city" {
		t.Errorf("unknown = %q", got)
	}
}

func TestMessageProvider_LocaleFallback(t *testing.T) {
	m := DefaultMessages()
	m.RegisterLocale("es", map[string]string{"required": "{field} es obligatorio"})
	m.SetLocale("es")

	if got := m.Get("required", "nombre", ""); got != "nombre es obligatorio" {
		t.Errorf("es required = %q", got)
	}
	if got := m.Get("email", "correo", ""); got != "correo is invalid" {
		t.Errorf("fallback email = %q", got)
	}
}

func TestRegisterRule(t *testing.T) {
	type code struct {
		Value string `json:"value" validate:"upper"`
	}
	v := New()
	v.RegisterRule("upper", func(value any, param string) string {
		if s, _ := value.(string); s != "" && s[0] >= 'A' && s[0] <= 'Z' {
			return ""
		}
		return "upper"
	})

	if err := v.Struct(code{Value: "Abc"}); err != nil {
		t.Errorf("Struct(Abc) = %v", err)
	}
	err := v.Struct(code{Value: "abc"})
	if err == nil {
		t.Fatal("expected error for lowercase value")
	}
	if got := err.Error(); got != "upper validation failed for value" {
		t.Errorf("message = %q", got)
	}
}
