package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/halden/nextstep/internal/app"
	"github.com/halden/nextstep/internal/model"
	"github.com/halden/nextstep/internal/quickadd"
	"github.com/halden/nextstep/internal/server"
	"github.com/halden/nextstep/internal/ui"
	"github.com/halden/nextstep/internal/ui/theme"
)

var (
	version = "0.1.0"
)

func main() {
	// Subcommand handling
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "add":
			handleAdd(os.Args[2:])
			return
		case "serve":
			handleServe(os.Args[2:])
			return
		case "version":
			fmt.Printf("nextstep v%s\n", version)
			return
		case "help", "-h", "--help":
			printHelp()
			return
		}
	}

	// Parse flags for TUI mode
	dataDirFlag := flag.String("data-dir", "", "Data directory (default: ~/.local/share/nextstep)")
	themeFlag := flag.String("theme", "", "Theme name (nord, dracula)")
	flag.Parse()

	if err := runTUI(*dataDirFlag, *themeFlag); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	help := `nextstep - A reactive task manager

Usage:
  nextstep                  Start the TUI
  nextstep add <task>       Quick add a task
  nextstep serve            Run the sync HTTP server
  nextstep version          Show version
  nextstep help             Show this help

Quick Add Syntax:
  nextstep add "Buy groceries"
  nextstep add "Review PR @work !high due:tomorrow"

  Labels:    @label        (e.g., @home, @work, @errands)
  Priority:  !low !medium !high
  Due date:  due:tomorrow due:friday due:2024-01-15

TUI Options:
  --data-dir <path>  Data directory (default: ~/.local/share/nextstep)
  --theme <name>     Theme (nord, dracula)

Keybindings:
  Navigation:   ↑/↓ or j/k    Move cursor
                g/G           Go to top/bottom

  Actions:      a             Add new task
                tab           Toggle done
                d             Delete (with confirm)
                p             Cycle priority
                s             Cycle due date

  Filters:      A t w o       All / today / week / overdue
                P L           Cycle project / label filter
                /             Search as you type

  Views:        1 2 3         List / calendar / stats
                ?             Help
                q             Quit`

	fmt.Println(help)
}

// handleAdd inserts a task and exits. It goes through the full application
// so the single-instance lock and migrations apply.
func handleAdd(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: nextstep add <task>")
		fmt.Fprintln(os.Stderr, "Example: nextstep add \"Buy groceries @errands !high due:tomorrow\"")
		os.Exit(1)
	}

	text := strings.Join(args, " ")
	now := time.Now()
	draft := quickadd.Parse(text, now)

	application, err := app.New("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	task, err := application.DB.CreateTask(context.Background(), draft)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating task: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Created: %s\n", task.Title)
	if task.DueDate != nil {
		fmt.Printf("Due: %s\n", quickadd.FormatDue(*task.DueDate, now))
	}
	if task.Priority != model.PriorityNone {
		fmt.Printf("Priority: %s\n", task.Priority)
	}
	if len(task.Labels) > 0 {
		fmt.Printf("Labels: @%s\n", strings.Join(task.Labels, " @"))
	}
}

// handleServe runs the sync HTTP server until interrupted.
func handleServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addrFlag := fs.String("addr", "", "Listen address (default from config)")
	dataDirFlag := fs.String("data-dir", "", "Data directory (default: ~/.local/share/nextstep)")
	fs.Parse(args)

	application, err := app.New(*dataDirFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	addr := *addrFlag
	if addr == "" {
		addr = application.Config.ListenAddr
	}

	srv := server.New(application.DB, application.Aggregator, application.Policy)
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runTUI(dataDir, themeName string) error {
	application, err := app.New(dataDir)
	if err != nil {
		return err
	}
	defer application.Close()

	if themeName != "" {
		if t, ok := theme.ByName(themeName); ok {
			theme.SetTheme(t)
		} else {
			fmt.Fprintf(os.Stderr, "Unknown theme %q, using default\n", themeName)
		}
	}

	rootModel := ui.NewRootModel(application)

	p := tea.NewProgram(
		rootModel,
		tea.WithAltScreen(),
	)

	_, err = p.Run()
	return err
}
