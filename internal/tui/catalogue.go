package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"go.uber.org/zap"

	"github.com/verte-zerg/sharpie/internal/catalogue"
	"github.com/verte-zerg/sharpie/internal/glyph"
)

const letterColumnWidth = 24

// CatalogueModel browses the letters of a catalogue and their graphs.
type CatalogueModel struct {
	cat     *catalogue.Catalogue
	log     *zap.Logger
	letters []catalogue.Letter

	table    table.Model
	detail   viewport.Model
	selected int

	width  int
	height int
}

// NewCatalogueModel constructs the catalogue browser.
func NewCatalogueModel(cat *catalogue.Catalogue, log *zap.Logger) *CatalogueModel {
	if log == nil {
		log = zap.NewNop()
	}
	m := &CatalogueModel{
		cat:      cat,
		log:      log,
		letters:  cat.ByLetter(),
		detail:   viewport.New(0, 0),
		selected: -1,
	}
	m.table = table.New(
		table.WithColumns([]table.Column{
			{Title: "Letter", Width: 6},
			{Title: "Graphs", Width: 6},
			{Title: "Sets", Width: 10},
		}),
		table.WithRows(letterRows(cat, m.letters)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	m.table.SetStyles(letterTableStyles())
	m.syncDetail()
	return m
}

// Init implements tea.Model.
func (m *CatalogueModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *CatalogueModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.selected = -1
		m.syncDetail()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "pgdown", "pgup", "f", "b":
			var cmd tea.Cmd
			m.detail, cmd = m.detail.Update(msg)
			return m, cmd
		}
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		m.syncDetail()
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *CatalogueModel) View() string {
	if len(m.letters) == 0 {
		return "The catalogue has no graphs."
	}
	left := frameStyle.Render(m.table.View())
	right := frameStyle.Render(m.detail.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	help := footerStyle.Render("↑/↓ letter  pgup/pgdn scroll graphs  q quit")
	return body + "\n" + help
}

func (m *CatalogueModel) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	bodyHeight := m.height - 3
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.table.SetHeight(bodyHeight - 1)
	detailWidth := m.width - letterColumnWidth - 6
	if detailWidth < 10 {
		detailWidth = 10
	}
	m.detail.Width = detailWidth
	m.detail.Height = bodyHeight
}

func (m *CatalogueModel) syncDetail() {
	cursor := m.table.Cursor()
	if cursor == m.selected || cursor < 0 || cursor >= len(m.letters) {
		return
	}
	m.selected = cursor
	m.detail.SetContent(m.renderLetter(m.letters[cursor]))
	m.detail.GotoTop()
}

func (m *CatalogueModel) renderLetter(l catalogue.Letter) string {
	width := m.detail.Width - 2
	if width <= 0 {
		width = 40
	}
	glyphCols := width / 2
	if glyphCols > glyphWidth {
		glyphCols = glyphWidth
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%d graphs)", l.Char, len(l.Graphs))))
	b.WriteString("\n\n")
	for _, g := range l.Graphs {
		var art string
		path, err := m.cat.Resolve(g.Image)
		if err == nil {
			art, err = glyph.Render(path, glyphCols)
		}
		if err != nil {
			m.log.Warn("failed to render graph", zap.String("image", g.Image), zap.Error(err))
			art = mutedStyle.Render("[" + g.Image + "]")
		}
		caption := []string{labelStyle.Render(runewidth.Truncate(g.Image, width-glyphCols-2, "…"))}
		if g.Source != "" {
			caption = append(caption, mutedStyle.Render(runewidth.Truncate(m.cat.SourceTitle(g.Source), width-glyphCols-2, "…")))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, art, "  ", strings.Join(caption, "\n")))
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func letterRows(cat *catalogue.Catalogue, letters []catalogue.Letter) []table.Row {
	rows := make([]table.Row, 0, len(letters))
	for _, l := range letters {
		rows = append(rows, table.Row{
			l.Char,
			fmt.Sprintf("%d", len(l.Graphs)),
			strings.Join(setsWithLetter(cat, l.Char), ","),
		})
	}
	return rows
}

func setsWithLetter(cat *catalogue.Catalogue, char string) []string {
	var ids []string
	for _, set := range cat.Sets {
		for _, g := range set.Graphs {
			if g.Char == char {
				ids = append(ids, set.ID)
				break
			}
		}
	}
	return ids
}

func letterTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		PaddingLeft(0)
	styles.Cell = styles.Cell.PaddingLeft(0)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#C89A3A")).
		Bold(true)
	return styles
}
