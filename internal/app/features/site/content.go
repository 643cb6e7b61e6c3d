package site

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dalemusser/landing/inquiry"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// Content is everything the page says. It is loaded once at startup.
type Content struct {
	Practice Practice    `yaml:"practice"`
	Nav      []NavItem   `yaml:"nav"`
	Hero     Hero        `yaml:"hero"`
	About    About       `yaml:"about"`
	Services Services    `yaml:"services"`
	FAQ      FAQ         `yaml:"faq"`
	Contact  ContactInfo `yaml:"contact"`
	Footer   Footer      `yaml:"footer"`
}

type Practice struct {
	Name        string `yaml:"name"`
	Credentials string `yaml:"credentials"`
	City        string `yaml:"city"`
	Initials    string `yaml:"initials"`
}

// NavItem links to a section of the page by its element id.
type NavItem struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

type Hero struct {
	Heading    string `yaml:"heading"`
	Highlight  string `yaml:"highlight"`
	Subheading string `yaml:"subheading"`
	CTA        string `yaml:"cta"`
}

type About struct {
	Heading     string   `yaml:"heading"`
	PortraitAlt string   `yaml:"portrait_alt"`
	Paragraphs  []string `yaml:"paragraphs"`
	Highlights  []string `yaml:"highlights"`
}

type Services struct {
	Heading string    `yaml:"heading"`
	Intro   string    `yaml:"intro"`
	Items   []Service `yaml:"items"`
}

type Service struct {
	Title       string `yaml:"title"`
	Theme       string `yaml:"theme"`
	Description string `yaml:"description"`
	Price       string `yaml:"price"`
}

type FAQ struct {
	Heading string    `yaml:"heading"`
	Intro   string    `yaml:"intro"`
	Items   []FAQItem `yaml:"items"`
}

type FAQItem struct {
	ID       string `yaml:"id"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type ContactInfo struct {
	Heading string       `yaml:"heading"`
	Intro   string       `yaml:"intro"`
	Address []string     `yaml:"address"`
	Phone   string       `yaml:"phone"`
	Email   string       `yaml:"email"`
	Hours   []OfficeHour `yaml:"hours"`
	Form    FormCopy     `yaml:"form"`
}

type OfficeHour struct {
	Label string `yaml:"label"`
	Times string `yaml:"times"`
}

// FormCopy holds the labels of the contact form.
type FormCopy struct {
	Heading    string      `yaml:"heading"`
	Submit     string      `yaml:"submit"`
	AgreeLabel string      `yaml:"agree_label"`
	Fields     []FieldCopy `yaml:"fields"`
}

// FieldCopy describes one text input. Type "textarea" renders a
// multi-line field.
type FieldCopy struct {
	Name         string `yaml:"name"`
	Label        string `yaml:"label"`
	Type         string `yaml:"type"`
	Placeholder  string `yaml:"placeholder"`
	Autocomplete string `yaml:"autocomplete"`
	Rows         int    `yaml:"rows"`
}

type Footer struct {
	Blurb     []string `yaml:"blurb"`
	Copyright string   `yaml:"copyright"`
}

// DefaultContent returns the embedded page content.
func DefaultContent() (*Content, error) {
	return parseContent(defaultContent)
}

// LoadContent reads content from path, or the embedded default when
// path is empty. Unknown keys are an error.
func LoadContent(path string) (*Content, error) {
	if path == "" {
		return DefaultContent()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content: %w", err)
	}
	c, err := parseContent(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

func parseContent(b []byte) (*Content, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var c Content
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate checks what the templates and the form rely on.
func (c *Content) validate() error {
	var problems []string
	if strings.TrimSpace(c.Practice.Name) == "" {
		problems = append(problems, "practice.name is required")
	}
	if len(c.Nav) == 0 {
		problems = append(problems, "nav needs at least one item")
	}

	seen := map[string]bool{}
	for i, item := range c.FAQ.Items {
		if item.ID == "" {
			problems = append(problems, fmt.Sprintf("faq.items[%d].id is required", i))
		} else if seen[item.ID] {
			problems = append(problems, fmt.Sprintf("faq.items[%d].id %q is duplicated", i, item.ID))
		}
		seen[item.ID] = true
	}

	known := map[string]bool{}
	for _, f := range inquiry.Fields {
		known[string(f)] = true
	}
	for i, f := range c.Contact.Form.Fields {
		if !known[f.Name] || f.Name == string(inquiry.FieldAgreeToContact) {
			problems = append(problems, fmt.Sprintf("contact.form.fields[%d].name %q is not a text field of the form", i, f.Name))
		}
	}

	if len(problems) > 0 {
		return errors.New("invalid content: " + strings.Join(problems, "; "))
	}
	return nil
}
