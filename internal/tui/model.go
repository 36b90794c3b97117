// Package tui implements the interactive lineage browser. It walks one
// snapshot's lineage views in the terminal, mirroring the item resolution
// the panel serves to editors.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/leapstack-labs/leappanel/internal/manifest"
	"github.com/leapstack-labs/leappanel/internal/treeview"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4")).Padding(0, 1)
	breadcrumbStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	cursorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Background(lipgloss.Color("4"))
	labelStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	kindStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	emptyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
)

// kindGlyphs are the per-kind list markers.
var kindGlyphs = map[treeview.ItemKind]string{
	treeview.ItemModel:     "▸",
	treeview.ItemChainLeaf: "▪",
	treeview.ItemSource:    "◆",
	treeview.ItemTest:      "✓",
}

// keyMap defines the browser key bindings.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Enter    key.Binding
	Back     key.Binding
	NextView key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Enter, k.Back, k.NextView, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Back},
		{k.NextView, k.Help, k.Quit},
	}
}

var defaultKeys = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Enter:    key.NewBinding(key.WithKeys("enter", "l"), key.WithHelp("enter", "expand")),
	Back:     key.NewBinding(key.WithKeys("esc", "h", "backspace"), key.WithHelp("esc", "back")),
	NextView: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch view")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// frame is one level of the breadcrumb trail.
type frame struct {
	key    string
	cursor int
}

// Model is the bubbletea model for the lineage browser.
type Model struct {
	snap     *manifest.Snapshot
	relation manifest.Relation

	stack  []frame
	items  []treeview.DisplayItem
	cursor int

	keys keyMap
	help help.Model

	width    int
	height   int
	quitting bool
}

// New creates a browser over one snapshot, rooted at rootKey.
func New(snap *manifest.Snapshot, relation manifest.Relation, rootKey string) Model {
	m := Model{
		snap:     snap,
		relation: relation,
		stack:    []frame{{key: rootKey}},
		keys:     defaultKeys,
		help:     help.New(),
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keys.Enter):
			return m.drill(), nil

		case key.Matches(msg, m.keys.Back):
			return m.pop(), nil

		case key.Matches(msg, m.keys.NextView):
			return m.nextView(), nil
		}
	}

	return m, nil
}

// drill descends into the item under the cursor.
func (m Model) drill() Model {
	if m.cursor >= len(m.items) {
		return m
	}
	item := m.items[m.cursor]
	if !item.Expandable() {
		return m
	}
	m.stack[len(m.stack)-1].cursor = m.cursor
	m.stack = append(m.stack, frame{key: item.Key})
	m.cursor = 0
	m.reload()
	return m
}

// pop returns to the previous level; at the root it is a no-op.
func (m Model) pop() Model {
	if len(m.stack) <= 1 {
		return m
	}
	m.stack = m.stack[:len(m.stack)-1]
	m.cursor = m.stack[len(m.stack)-1].cursor
	m.reload()
	return m
}

// nextView cycles to the next relation, keeping the current position.
func (m Model) nextView() Model {
	rels := manifest.Relations()
	for i, rel := range rels {
		if rel == m.relation {
			m.relation = rels[(i+1)%len(rels)]
			break
		}
	}
	m.cursor = 0
	m.reload()
	return m
}

// reload resolves the items for the current key and relation.
func (m *Model) reload() {
	m.items = treeview.ResolveChildren(m.currentKey(), m.relation, m.snap)
	if m.cursor >= len(m.items) {
		m.cursor = 0
	}
}

func (m Model) currentKey() string {
	return m.stack[len(m.stack)-1].key
}

// Relation returns the relation currently displayed.
func (m Model) Relation() manifest.Relation {
	return m.relation
}

// Items returns the items currently displayed.
func (m Model) Items() []treeview.DisplayItem {
	return m.items
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	title := fmt.Sprintf("%s · %s", m.snap.ProjectName, m.relation)
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(breadcrumbStyle.Render(m.breadcrumb()))
	b.WriteString("\n\n")

	if len(m.items) == 0 {
		b.WriteString(emptyStyle.Render("no items"))
		b.WriteString("\n")
	}
	for i, item := range m.items {
		glyph := kindGlyphs[item.Kind]
		line := fmt.Sprintf("%s %s %s", glyph, item.Label, kindStyle.Render("("+string(item.Kind)+")"))
		if i == m.cursor {
			line = cursorStyle.Render("> " + line)
		} else {
			line = "  " + labelStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) breadcrumb() string {
	keys := make([]string, len(m.stack))
	for i, f := range m.stack {
		keys[i] = f.key
	}
	return strings.Join(keys, " › ")
}
