package main

import (
	"os"

	"github.com/TimHeckel/maestro/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
