package main

import (
	"context"
	"fmt"
	"os"

	"github.com/tidycode/magetui/internal/cmd"
)

func main() {
	if err := cmd.RootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Force truecolor so hex colors render correctly
	// Must be set before any lipgloss style initialization
	os.Setenv("COLORTERM", "truecolor")
}
