// Command landing serves the practice landing page and its contact form.
package main

import (
	"context"
	"os"

	"github.com/dalemusser/landing/app"
	"github.com/dalemusser/landing/internal/app/bootstrap"
)

func main() {
	if err := app.Run(context.Background(), bootstrap.Hooks); err != nil {
		os.Exit(1)
	}
}
