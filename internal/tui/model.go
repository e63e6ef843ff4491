// Package tui renders toktrack's dashboard: a daily spend chart,
// a per-model breakdown, and a per-source ranking, refreshed on a timer
// and on vendor-log filesystem events.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"

	"github.com/wfarley16/toktrack/internal/aggregator"
	"github.com/wfarley16/toktrack/internal/dataloader"
	"github.com/wfarley16/toktrack/internal/types"
)

type tab int

const (
	tabDaily tab = iota
	tabModels
	tabSources
	tabCount
)

func (t tab) String() string {
	switch t {
	case tabDaily:
		return "Daily"
	case tabModels:
		return "Models"
	case tabSources:
		return "Sources"
	default:
		return ""
	}
}

// loadResultMsg carries a fresh load, success or failure, back into Update.
type loadResultMsg struct {
	result dataloader.LoadResult
	err    error
}

type fsEventMsg struct{}

type tickMsg time.Time

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	loader *dataloader.Service
	cfg    Config

	width, height int
	active        tab

	result  dataloader.LoadResult
	loaded  bool
	loadErr error
}

// Config is the subset of internal/config.Config the dashboard consults.
type Config struct {
	Theme                  string
	RefreshIntervalSeconds int
	WarnThresholdUSD       float64
	CritThresholdUSD       float64
	WatchDirs              []string
}

// NewModel constructs the dashboard model; call SetThemeByName separately
// to apply cfg.Theme before starting the program.
func NewModel(loader *dataloader.Service, cfg Config) Model {
	return Model{loader: loader, cfg: cfg}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), m.tickCmd(), m.watchCmd())
}

func (m Model) loadCmd() tea.Cmd {
	loader := m.loader
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result, err := loader.Load(ctx)
		return loadResultMsg{result: result, err: err}
	}
}

func (m Model) tickCmd() tea.Cmd {
	interval := time.Duration(m.cfg.RefreshIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// watchCmd starts a fresh fsnotify watch over the configured vendor log
// directories and blocks for exactly one event, so a newly-written log
// line wakes a reload even before the next timer tick. Re-armed by Update
// on every fsEventMsg.
func (m Model) watchCmd() tea.Cmd {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil
	}
	for _, dir := range m.cfg.WatchDirs {
		_ = watcher.Add(dir)
	}

	return func() tea.Msg {
		defer watcher.Close()
		select {
		case _, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			return fsEventMsg{}
		case <-watcher.Errors:
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case loadResultMsg:
		m.loaded = true
		m.loadErr = msg.err
		if msg.err == nil {
			m.result = msg.result
		}
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.loadCmd(), m.tickCmd())

	case fsEventMsg:
		return m, tea.Batch(m.loadCmd(), m.watchCmd())

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = (m.active + 1) % tabCount
		case "shift+tab", "left", "h":
			m.active = (m.active - 1 + tabCount) % tabCount
		case "r":
			return m, m.loadCmd()
		}
	}
	return m, nil
}

func (m Model) View() string {
	if !m.loaded {
		return "\n  " + dimStyle.Render("loading usage data…") + "\n"
	}
	if m.loadErr != nil {
		return "\n  " + badgeCritStyle.Render("error: "+m.loadErr.Error()) + "\n"
	}

	header := m.renderHeader()
	tabs := m.renderTabs()
	body := m.renderBody()
	footer := helpStyle.Render("  tab: switch view   r: refresh   q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, tabs, body, footer)
}

func (m Model) renderHeader() string {
	total := aggregator.TotalFromDaily(m.result.Summaries)
	return fmt.Sprintf("\n  %s   %s across %d days\n",
		headerBrandStyle.Render("toktrack"),
		valueStyle.Render(formatUSD(total.TotalCostUSD)),
		total.DayCount)
}

func (m Model) renderTabs() string {
	var out string
	for t := tab(0); t < tabCount; t++ {
		style := dimStyle
		if t == m.active {
			style = sectionHeaderStyle
		}
		out += style.Render(" "+t.String()+" ") + " "
	}
	return "  " + out + "\n"
}

func (m Model) renderBody() string {
	width := m.width - 4
	if width < 20 {
		width = 60
	}

	switch m.active {
	case tabDaily:
		daily := m.result.Summaries
		chart := renderDailySpendChart(daily, width, 10, m.cfg.WarnThresholdUSD, m.cfg.CritThresholdUSD)
		latest := 0.0
		if len(daily) > 0 {
			last := daily[len(daily)-1]
			now := time.Now()
			if y, mo, d := last.Date.Date(); y == now.Year() && mo == now.Month() && d == now.Day() {
				latest = last.TotalCostUSD
			}
		}
		gauge := renderSpendGauge("Today", latest, m.cfg.WarnThresholdUSD, m.cfg.CritThresholdUSD, 30, 8)
		return chart + "\n\n" + gauge

	case tabModels:
		byModel := aggregator.ByModel(entriesFromSummaries(m.result.Summaries))
		items := make([]barItem, 0, len(byModel))
		for model, usage := range byModel {
			items = append(items, barItem{Label: model, Value: usage.CostUSD, SubLabel: formatTokens(usage.InputTokens + usage.OutputTokens)})
		}
		return renderHBarChart(items, width-40, 24)

	case tabSources:
		items := make([]barItem, 0, len(m.result.SourceUsage))
		for _, s := range m.result.SourceUsage {
			items = append(items, barItem{Label: s.Source, Value: s.TotalCostUSD, SubLabel: formatTokens(s.TotalTokens)})
		}
		return renderHBarChart(items, width-40, 24)
	}
	return ""
}

// entriesFromSummaries is a placeholder aggregation seam: ByModel expects
// UsageRecords, but the dashboard only holds DailySummary rollups, so the
// models tab reduces those rollups back into per-model synthetic entries.
func entriesFromSummaries(daily []types.DailySummary) []types.UsageRecord {
	var out []types.UsageRecord
	for _, d := range daily {
		for model, usage := range d.ModelUsage {
			cost := usage.CostUSD
			out = append(out, types.UsageRecord{
				Timestamp: d.Date, Model: model,
				InputTokens: usage.InputTokens, OutputTokens: usage.OutputTokens,
				CacheReadTokens: usage.CacheReadTokens, CacheCreationTokens: usage.CacheCreationTokens,
				ThinkingTokens: usage.ThinkingTokens,
				CostUSD:        &cost,
			})
		}
	}
	return out
}
