// Command latticedb-inspect launches the read-only TUI browser over an
// existing storage directory (spec §4.10), grounded on the teacher's
// cmd/graphdb-inspect entrypoint.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/lattice-graph/latticedb/internal/inspect"
	"github.com/lattice-graph/latticedb/internal/storage"
)

func main() {
	dir := flag.String("dir", "./data", "storage directory to inspect")
	flag.Parse()

	if err := run(*dir); err != nil {
		fmt.Fprintln(os.Stderr, "latticedb-inspect:", err)
		os.Exit(1)
	}
}

func run(dir string) error {
	tuning := storage.DefaultTuning(dir)
	store, err := storage.Open(tuning)
	if err != nil {
		return fmt.Errorf("open storage at %s: %w", dir, err)
	}
	defer store.Close()

	model, err := inspect.New(store)
	if err != nil {
		return fmt.Errorf("build inspector: %w", err)
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
