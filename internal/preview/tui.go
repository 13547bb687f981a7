package preview

import (
	"context"
	"fmt"
	"math"
	"strings"

	"textcards/internal/card"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ExportFunc runs a download action and returns where the archive was saved.
type ExportFunc func(ctx context.Context) (string, error)

// Options configures the interactive preview.
type Options struct {
	CardsPerPage int
	// Export is bound to the "d" key when set.
	Export ExportFunc
}

type exportDoneMsg struct {
	path string
	err  error
}

// UI states
type state int

const (
	stateBrowse state = iota
	stateExporting
)

type model struct {
	cards   []card.Card
	page    int
	perPage int

	state  state
	status string
	export ExportFunc
	ctx    context.Context

	width  int
	height int

	titleStyle  lipgloss.Style
	helpStyle   lipgloss.Style
	statusStyle lipgloss.Style
	errorStyle  lipgloss.Style
	indexStyle  lipgloss.Style
}

func initialModel(ctx context.Context, cards []card.Card, opts Options) model {
	perPage := opts.CardsPerPage
	if perPage <= 0 {
		perPage = 3
	}

	return model{
		cards:   cards,
		perPage: perPage,
		state:   stateBrowse,
		export:  opts.Export,
		ctx:     ctx,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Align(lipgloss.Center),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		statusStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Bold(true),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
		indexStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case exportDoneMsg:
		m.state = stateBrowse
		if msg.err != nil {
			m.status = "Export failed: " + msg.err.Error()
		} else if msg.path == "" {
			m.status = "Nothing to export"
		} else {
			m.status = "Saved " + msg.path
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "left", "h", "pgup":
			if m.page > 0 {
				m.page--
			}

		case "right", "l", "pgdown", " ":
			if m.hasNextPage() {
				m.page++
			}

		case "home", "g":
			m.page = 0

		case "end", "G":
			m.page = m.totalPages() - 1

		case "d":
			if m.export == nil || m.state == stateExporting {
				return m, nil
			}
			m.state = stateExporting
			m.status = "Exporting..."
			return m, m.runExport()
		}
	}
	return m, nil
}

// runExport performs the download off the UI loop and reports back with a message.
func (m model) runExport() tea.Cmd {
	export, ctx := m.export, m.ctx
	return func() tea.Msg {
		path, err := export(ctx)
		return exportDoneMsg{path: path, err: err}
	}
}

func (m model) totalPages() int {
	pages := int(math.Ceil(float64(len(m.cards)) / float64(m.perPage)))
	if pages == 0 {
		return 1
	}
	return pages
}

func (m model) hasNextPage() bool {
	return (m.page+1)*m.perPage < len(m.cards)
}

func (m model) View() string {
	var b strings.Builder

	title := m.titleStyle.Width(m.width).Render("Card Preview")
	b.WriteString(title)
	b.WriteString("\n\n")

	pageInfo := fmt.Sprintf("Page %d/%d  (%d cards)", m.page+1, m.totalPages(), len(m.cards))
	b.WriteString(m.helpStyle.Render(pageInfo))
	b.WriteString("\n\n")

	maxWidth := 0
	if m.width > 4 {
		maxWidth = m.width - 2
	}

	start := m.page * m.perPage
	end := min(start+m.perPage, len(m.cards))
	for i := start; i < end; i++ {
		b.WriteString(m.indexStyle.Render(fmt.Sprintf("#%d", m.cards[i].Index+1)))
		b.WriteString("\n")
		b.WriteString(Render(m.cards[i], maxWidth))
		b.WriteString("\n\n")
	}

	if m.status != "" {
		statusStyle := m.statusStyle
		if strings.HasPrefix(m.status, "Export failed") {
			statusStyle = m.errorStyle
		}
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	help := "←→: prev/next page | g/G: first/last | q: quit"
	if m.export != nil {
		help = "←→: prev/next page | g/G: first/last | d: download zip | q: quit"
	}
	b.WriteString(m.helpStyle.Render(help))

	return b.String()
}

// Run starts the interactive preview over cards.
func Run(ctx context.Context, cards []card.Card, opts Options) error {
	m := initialModel(ctx, cards, opts)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running preview: %w", err)
	}
	return nil
}
