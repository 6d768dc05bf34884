package main

import (
	"context"
	"os"
	"strings"

	"github.com/aretw0/leadflow"
	"github.com/charmbracelet/fang"
)

func main() {
	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(strings.TrimSpace(leadflow.Version))); err != nil {
		os.Exit(1)
	}
}
