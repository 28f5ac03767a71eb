package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/depsync/pkg/updates"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
	headerStyle  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// UpdatePickerModel - Interactive upgrade selection
// =============================================================================

// UpdatePickerModel is the bubbletea model for choosing which updates to
// apply. Nothing is selected initially.
type UpdatePickerModel struct {
	Updates   []updates.Update
	Chosen    map[int]bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewUpdatePickerModel creates a picker over list.
func NewUpdatePickerModel(list []updates.Update) UpdatePickerModel {
	return UpdatePickerModel{
		Updates: list,
		Chosen:  make(map[int]bool),
		Height:  15,
	}
}

// Selected returns the chosen updates in list order, or nil when the picker
// was dismissed.
func (m UpdatePickerModel) Selected() []updates.Update {
	if !m.Confirmed {
		return nil
	}
	var out []updates.Update
	for i, u := range m.Updates {
		if m.Chosen[i] {
			out = append(out, u)
		}
	}
	return out
}

func (m UpdatePickerModel) Init() tea.Cmd {
	return nil
}

func (m UpdatePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Updates)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			if len(m.Updates) == 0 {
				break
			}
			if m.Chosen[m.Cursor] {
				delete(m.Chosen, m.Cursor)
			} else {
				m.Chosen[m.Cursor] = true
			}
		case "a":
			all := len(m.Chosen) == len(m.Updates)
			for i := range m.Updates {
				if all {
					delete(m.Chosen, i)
				} else {
					m.Chosen[i] = true
				}
			}
		case "enter":
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m UpdatePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Updates"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ apply  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Updates) {
		end = len(m.Updates)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		u := m.Updates[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		mark := "[ ]"
		if m.Chosen[i] {
			mark = "[x]"
		}
		rows = append(rows, []string{cursor + mark, u.Scope.String(), u.Dependency.Key().String(), u.Current(), u.Latest.String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Scope", "Dependency", "Current", "Latest").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			base := lipgloss.NewStyle()
			if col == 1 || col == 3 {
				base = base.Foreground(colorGray)
			}
			if m.Chosen[idx] {
				base = base.Foreground(colorGreen)
			}
			if idx == m.Cursor {
				base = base.Bold(true)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d] %d selected", m.Cursor+1, len(m.Updates), len(m.Chosen))))

	return b.String()
}

// updatesTable renders list as a static table.
func updatesTable(list []updates.Update) string {
	rows := make([][]string, len(list))
	for i, u := range list {
		rows[i] = []string{u.Scope.String(), u.Dependency.Key().String(), u.Current(), u.Latest.String(), u.Repository}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Scope", "Dependency", "Current", "Latest", "Repository").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == -1:
				return headerStyle
			case col == 3:
				return StyleSuccess
			case col == 0 || col == 4:
				return StyleDim
			}
			return lipgloss.NewStyle()
		}).
		Render()
}
