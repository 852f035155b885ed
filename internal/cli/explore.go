package cli

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowlens/pkg/flow"
	"github.com/matzehuels/flowlens/pkg/project"
	"github.com/matzehuels/flowlens/pkg/state"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		mapping mappingFlags
		focus   string
	)

	cmd := &cobra.Command{
		Use:   "explore <file>",
		Short: "Pick a node interactively and show its ego network",
		Long: `Pick a node interactively and show its ego network.

The list holds every distinct destination value. Selecting one prints the
ego statistics and the edges of its neighborhood. --focus skips the list.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := c.loadState(cmd.Context(), args[0], mapping)
			if err != nil {
				return err
			}

			if focus == "" {
				nodes := s.EgoOptions()
				if len(nodes) == 0 {
					printWarning("No nodes to explore, map the destination column first")
					return nil
				}
				p := tea.NewProgram(NewNodeListModel(s.Graph(), nodes), tea.WithContext(cmd.Context()))
				finalModel, err := p.Run()
				if err != nil {
					return err
				}
				fm, ok := finalModel.(NodeListModel)
				if !ok || fm.Selected == "" {
					printDetail("No selection made")
					return nil
				}
				focus = fm.Selected
			}

			proj := state.Project(s.Graph(), state.ViewEgo1, state.Params{Focus: focus})
			fmt.Print(egoReport(*proj.Ego))
			return nil
		},
	}

	mapping.register(cmd)
	cmd.Flags().StringVar(&focus, "focus", "", "node to show without opening the list")
	registerColumnCompletion(cmd)
	return cmd
}

// =============================================================================
// NodeListModel - Interactive node selection
// =============================================================================

type nodeRow struct {
	name    string
	out, in int
	weight  float64
}

// NodeListModel is the bubbletea model for picking an ego focus.
type NodeListModel struct {
	Nodes    []nodeRow
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewNodeListModel lists names with their degree in g.
func NewNodeListModel(g *flow.Graph, names []string) NodeListModel {
	idx := g.Index()
	nodes := make([]nodeRow, len(names))
	for i, name := range names {
		r := nodeRow{name: name}
		for _, e := range idx.Out(name) {
			r.out++
			r.weight += e.Value
		}
		for _, e := range idx.In(name) {
			r.in++
			r.weight += e.Value
		}
		nodes[i] = r
	}
	return NodeListModel{Nodes: nodes, Height: 15}
}

func (m NodeListModel) Init() tea.Cmd {
	return nil
}

func (m NodeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Nodes)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Nodes) == 0 {
				return m, nil
			}
			m.Selected = m.Nodes[m.Cursor].name
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m NodeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Node"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Nodes))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		n := m.Nodes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, n.name, strconv.Itoa(n.out), strconv.Itoa(n.in), formatValue(n.weight)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("", "Node", "Out", "In", "Weight").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			idx := m.Offset + row
			isolated := idx < len(m.Nodes) && m.Nodes[idx].out+m.Nodes[idx].in == 0
			switch {
			case idx == m.Cursor:
				return listSelectedStyle
			case isolated:
				return listDimStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Nodes))))

	return b.String()
}

// =============================================================================
// Ego Report
// =============================================================================

// egoReport renders the stats line and the edge table of an ego payload.
func egoReport(p project.EgoPayload) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(p.Focus))
	b.WriteString("\n")
	if p.Status != project.StatusOK {
		b.WriteString(StyleWarning.Render(p.Message))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(StyleDim.Render(p.Stats.Label()))
	b.WriteString("\n")
	if len(p.Edges) == 0 {
		b.WriteString(StyleDim.Render("No edges touch this node."))
		b.WriteString("\n")
		return b.String()
	}

	t := newTable("", "Origin", "Destination", "Value")
	for _, e := range p.Edges {
		t.Row(egoDirection(p.Focus, e), e.Source, e.Target, formatValue(e.Value))
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

func egoDirection(focus string, e project.EgoLink) string {
	switch {
	case e.Source == focus && e.Target == focus:
		return "self"
	case e.Source == focus:
		return "out"
	case e.Target == focus:
		return "in"
	}
	return "between"
}
