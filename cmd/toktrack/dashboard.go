package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wfarley16/toktrack/internal/config"
	"github.com/wfarley16/toktrack/internal/dataloader"
	"github.com/wfarley16/toktrack/internal/tui"
)

// RunDashboard launches the full-screen usage dashboard.
func RunDashboard(cfg config.Config) {
	tui.SetThemeByName(cfg.Theme)

	watchDirs := defaultWatchDirs()

	model := tui.NewModel(dataloader.New(), tui.Config{
		Theme:                  cfg.Theme,
		RefreshIntervalSeconds: cfg.UI.RefreshIntervalSeconds,
		WarnThresholdUSD:       cfg.UI.WarnThresholdUSD,
		CritThresholdUSD:       cfg.UI.CritThresholdUSD,
		WatchDirs:              watchDirs,
	})

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		program.Quit()
	}()

	if _, err := program.Run(); err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("TUI error: %v", err)
	}
}

// defaultWatchDirs lists the vendor log directories the background
// fsnotify refresh watches for newly-written entries: each built-in
// parser's default data directory that exists. The config's parser toggles
// are not consulted.
func defaultWatchDirs() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	candidates := []string{
		home + "/.claude/projects",
		home + "/.codex/sessions",
		home + "/.gemini/tmp",
		home + "/.local/share/opencode/storage/message",
	}
	var dirs []string
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}
