package bootstrap

import (
	"errors"

	"github.com/dalemusser/landing/delivery"
	"github.com/dalemusser/landing/health"
	"github.com/dalemusser/landing/internal/app/features/site"
	"github.com/dalemusser/landing/ratelimit"
)

// Deps are the backends connected at startup.
type Deps struct {
	Content  *site.Content
	Delivery *delivery.Backend

	// Limiter is nil when contact_rate is 0.
	Limiter ratelimit.Store

	// Checks are probed by /health.
	Checks map[string]health.Check

	closers []func() error
}

func (d *Deps) onClose(fn func() error) {
	d.closers = append(d.closers, fn)
}

// close runs the closers in reverse order.
func (d *Deps) close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
