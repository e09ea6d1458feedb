package main

import (
	"os"

	"github.com/cheahjs/stable-diffusion-frontend/internal/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
