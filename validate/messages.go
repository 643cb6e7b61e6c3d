package validate

import (
	"fmt"
	"strings"
	"sync"
)

// catalog maps message keys to templates for one locale.
type catalog map[string]string

// lookup tries "<field>.<key>" before "<key>".
func (c catalog) lookup(key, field string) (string, bool) {
	if msg, ok := c[field+"."+key]; ok {
		return msg, true
	}
	msg, ok := c[key]
	return msg, ok
}

// MessageProvider turns rule keys into text. Templates may use {field}
// and {param}. Lookups that miss in the active locale retry in "en".
type MessageProvider struct {
	mu       sync.RWMutex
	catalogs map[string]catalog
	locale   string
}

const fallbackLocale = "en"

// NewMessageProvider returns a provider with no messages.
func NewMessageProvider() *MessageProvider {
	return &MessageProvider{catalogs: map[string]catalog{}, locale: fallbackLocale}
}

// DefaultMessages returns the English messages for the built-in rules.
func DefaultMessages() *MessageProvider {
	m := NewMessageProvider()
	m.RegisterLocale(fallbackLocale, map[string]string{
		"required": "{field} is required",
		"email":    "{field} is invalid",
		"accepted": "{field} must be accepted",
	})
	return m
}

// SetLocale selects the active locale.
func (m *MessageProvider) SetLocale(locale string) {
	m.mu.Lock()
	m.locale = locale
	m.mu.Unlock()
}

// RegisterLocale merges messages into a locale.
func (m *MessageProvider) RegisterLocale(locale string, messages map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.catalogs[locale]
	if !ok {
		c = make(catalog, len(messages))
		m.catalogs[locale] = c
	}
	for k, v := range messages {
		c[k] = v
	}
}

// AddMessage sets one message.
func (m *MessageProvider) AddMessage(locale, key, message string) {
	m.RegisterLocale(locale, map[string]string{key: message})
}

// Get renders the message for key on field.
func (m *MessageProvider) Get(key, field, param string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, loc := range []string{m.locale, fallbackLocale} {
		if msg, ok := m.catalogs[loc].lookup(key, field); ok {
			return strings.NewReplacer("{field}", field, "{param}", param).Replace(msg)
		}
	}
	return fmt.Sprintf("%s validation failed for %s", key, field)
}
