package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/peekjef72/modloader/resourcemap"
)

func newGraphCmd() *cobra.Command {
	var noTUI bool

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Browse the project's static require() graph.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildLoaderConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			rm, err := buildResourceMap(cfg)
			if err != nil {
				return fmt.Errorf("scanning %s: %w", flagRoot, err)
			}

			sources := rm.GetAllResourcesByType(resourcemap.KindSource)
			sort.Slice(sources, func(i, j int) bool { return sources[i].ID < sources[j].ID })

			if noTUI {
				return renderGraphTable(sources)
			}
			return runGraphTUI(sources)
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "print a plain table instead of the interactive browser")
	return cmd
}

func renderGraphTable(sources []*resourcemap.Resource) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"module", "requires"})
	for _, r := range sources {
		requires := "-"
		if len(r.RequiredModules) > 0 {
			requires = fmt.Sprintf("%v", r.RequiredModules)
		}
		table.Append([]string{r.ID, requires})
	}
	table.Render()
	return nil
}

// graphItem adapts a resourcemap.Resource to list.Item.
type graphItem struct{ r *resourcemap.Resource }

func (g graphItem) Title() string { return g.r.ID }
func (g graphItem) Description() string {
	if len(g.r.RequiredModules) == 0 {
		return "no static requires"
	}
	return fmt.Sprintf("requires %d module(s)", len(g.r.RequiredModules))
}
func (g graphItem) FilterValue() string { return g.r.ID }

type graphModel struct {
	list   list.Model
	detail string
}

var detailStyle = lipgloss.NewStyle().Padding(1, 2).Border(lipgloss.RoundedBorder())

func newGraphModel(sources []*resourcemap.Resource) graphModel {
	items := make([]list.Item, len(sources))
	for i, r := range sources {
		items[i] = graphItem{r: r}
	}
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "require() graph"
	return graphModel{list: l}
}

func (m graphModel) Init() tea.Cmd { return nil }

func (m graphModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := lipgloss.NewStyle().GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-6)
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "enter":
			if item, ok := m.list.SelectedItem().(graphItem); ok {
				m.detail = fmt.Sprintf("%v", item.r.RequiredModules)
			}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m graphModel) View() string {
	view := m.list.View()
	if m.detail != "" {
		view += "\n" + detailStyle.Render(m.detail)
	}
	return view
}

func runGraphTUI(sources []*resourcemap.Resource) error {
	if len(sources) == 0 {
		fmt.Println("no source modules found")
		return nil
	}
	program := tea.NewProgram(newGraphModel(sources), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
