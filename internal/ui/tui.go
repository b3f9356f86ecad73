package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/coderag/docrag/internal/crawler"
)

// TUIRenderer shows live crawl progress using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *crawlModel
	tracker *Tracker
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer. Returns an error if cfg.Output
// is not a TTY.
func NewTUIRenderer(cfg Config) (*TUIRenderer, error) {
	if !IsTTY(cfg.Output) {
		return nil, fmt.Errorf("output is not a TTY")
	}

	tracker := NewTracker()
	model := newCrawlModel(tracker, cfg.ProjectDir)
	if cfg.NoColor || DetectNoColor() {
		model.styles = NoColorStyles()
	}

	return &TUIRenderer{cfg: cfg, tracker: tracker, model: model, done: make(chan struct{})}, nil
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}
	_, r.cancel = context.WithCancel(ctx)

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}
	opts = append(opts, tea.WithAltScreen())

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// Update implements Renderer.
func (r *TUIRenderer) Update(p crawler.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracker.Update(p)
	if r.program != nil {
		r.program.Send(progressMsg(p))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(s Summary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(s))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
	if r.program != nil {
		r.program.Quit()
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}
	return nil
}

type progressMsg crawler.Progress
type completeMsg Summary
type tickMsg time.Time

// crawlModel is the bubbletea model for crawl progress.
type crawlModel struct {
	tracker    *Tracker
	width      int
	height     int
	quitting   bool
	complete   bool
	summary    Summary
	spinner    spinner.Model
	styles     Styles
	projectDir string
}

func newCrawlModel(tracker *Tracker, projectDir string) *crawlModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime))

	return &crawlModel{
		tracker:    tracker,
		spinner:    s,
		styles:     DefaultStyles(),
		width:      80,
		height:     24,
		projectDir: projectDir,
	}
}

// Init implements tea.Model.
func (m *crawlModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Update implements tea.Model.
func (m *crawlModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case progressMsg:
		return m, nil

	case completeMsg:
		m.complete = true
		m.summary = Summary(msg)
		return m, tea.Quit

	case tickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m *crawlModel) View() string {
	if m.quitting {
		return "Cancelled.\n"
	}
	if m.complete {
		return m.renderComplete()
	}

	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var sections []string
	sections = append(sections, m.renderCounters())
	sections = append(sections, m.renderDivider(contentWidth))
	sections = append(sections, m.renderSpeed())
	sections = append(sections, m.renderSparkline(contentWidth))
	if url := m.tracker.Stats().CurrentURL; url != "" {
		sections = append(sections, m.renderDivider(contentWidth))
		sections = append(sections, m.renderCurrentURL(contentWidth))
	}

	content := strings.Join(sections, "\n")

	title := "docrag crawl"
	if m.projectDir != "" {
		title = fmt.Sprintf("docrag crawl • %s", m.projectDir)
	}
	panel := m.wrapInPanel(title, content, contentWidth)

	return panel + "\n" + m.styles.Dim.Render("q to quit")
}

func (m *crawlModel) renderCounters() string {
	stats := m.tracker.Stats()
	crawled := m.styles.Active.Render(fmt.Sprintf("%d crawled", stats.Crawled))
	queued := m.styles.Label.Render(fmt.Sprintf("%d queued", stats.Queued))
	sep := m.styles.Dim.Render("  •  ")

	parts := []string{m.spinner.View() + " " + crawled, queued}
	if stats.Failed > 0 {
		parts = append(parts, m.styles.Error.Render(fmt.Sprintf("%d failed", stats.Failed)))
	}
	return strings.Join(parts, sep)
}

func (m *crawlModel) renderSpeed() string {
	stats := m.tracker.Stats()
	speedStr := fmt.Sprintf("Speed: %.1f pages/s", stats.Speed.Current)
	if stats.Speed.Avg > 0 {
		speedStr += fmt.Sprintf(" (avg: %.1f, peak: %.1f)", stats.Speed.Avg, stats.Speed.Peak)
	}
	return m.styles.Speed.Render(speedStr)
}

func (m *crawlModel) renderSparkline(width int) string {
	sparkWidth := width - 10
	if sparkWidth < 10 {
		sparkWidth = 10
	}
	spark := m.tracker.RenderSparkline(sparkWidth)
	label := m.styles.Dim.Render("throughput ─")
	return m.styles.Sparkline.Render(spark) + " " + label
}

func (m *crawlModel) renderCurrentURL(width int) string {
	url := m.tracker.Stats().CurrentURL
	return m.styles.Dim.Render(truncateURL(url, width-2))
}

func (m *crawlModel) renderDivider(width int) string {
	return m.styles.Border.Render(strings.Repeat("─", width))
}

func (m *crawlModel) wrapInPanel(title, content string, width int) string {
	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorDarkGray)).
		Padding(0, 1).
		Width(width)

	return lipgloss.JoinVertical(lipgloss.Left, m.styles.Header.Render(title), panel.Render(content))
}

func (m *crawlModel) renderComplete() string {
	contentWidth := m.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var lines []string
	lines = append(lines, m.styles.Success.Render("✓ Crawl complete"), "")
	lines = append(lines, fmt.Sprintf("%s    %s", m.styles.Label.Render("Pages:"), m.styles.Active.Render(fmt.Sprintf("%d", m.summary.PagesCrawled))))
	lines = append(lines, fmt.Sprintf("%s %s", m.styles.Label.Render("Documents:"), m.styles.Active.Render(fmt.Sprintf("%d", m.summary.DocumentsCreated))))
	lines = append(lines, fmt.Sprintf("%s    %s", m.styles.Label.Render("Chunks:"), m.styles.Active.Render(fmt.Sprintf("%d", m.summary.ChunksCreated))))
	lines = append(lines, fmt.Sprintf("%s  %s", m.styles.Label.Render("Duration:"), m.styles.Active.Render(formatDuration(m.summary.Duration))))
	if m.summary.PagesFailed > 0 {
		lines = append(lines, "", m.styles.Error.Render(fmt.Sprintf("✗ %d pages failed", m.summary.PagesFailed)))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorLime)).
		Padding(1, 2).
		Width(contentWidth)

	return panel.Render(strings.Join(lines, "\n")) + "\n"
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return fmt.Sprintf("%dm", mins)
		}
		return fmt.Sprintf("%dm %ds", mins, secs)
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh %dm", hours, mins)
}

func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen || maxLen < 4 {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

var _ Renderer = (*TUIRenderer)(nil)
