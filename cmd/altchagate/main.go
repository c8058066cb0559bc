package main

import (
	"os"

	"altchagate/cmd/internal/app"
)

func main() {
	// app.Run logs its own failures.
	if err := app.Run(); err != nil {
		os.Exit(1)
	}
}
