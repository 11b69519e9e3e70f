package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/codex-router/codex.gerrit/internal/app"
	"github.com/codex-router/codex.gerrit/internal/commands"
	"github.com/codex-router/codex.gerrit/internal/source"
)

func main() {
	if err := commands.NewRootCommand(source.New()).Execute(); err != nil {
		var detailed *app.DetailedError
		if errors.As(err, &detailed) {
			fmt.Fprintf(os.Stderr, "\n--- Stack Trace ---\n%s\n", detailed.Stack)
		}
		os.Exit(1)
	}
}
