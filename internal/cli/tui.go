package cli

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	errs "github.com/matzehuels/composeviz/pkg/errors"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listCheckedStyle  = lipgloss.NewStyle().Foreground(colorGreen)
)

// =============================================================================
// ServicePickerModel - Interactive service selection
// =============================================================================

// ServicePickerModel is the bubbletea model for choosing the services to
// draw. The selection becomes the --include list.
type ServicePickerModel struct {
	Services  []string
	Checked   map[int]bool
	Cursor    int
	Height    int
	Offset    int
	Confirmed bool
}

// NewServicePickerModel creates a picker over services with the names in
// preselected already checked.
func NewServicePickerModel(services, preselected []string) ServicePickerModel {
	m := ServicePickerModel{
		Services: services,
		Checked:  make(map[int]bool),
		Height:   15,
	}
	for i, s := range services {
		if slices.Contains(preselected, s) {
			m.Checked[i] = true
		}
	}
	return m
}

func (m ServicePickerModel) Init() tea.Cmd {
	return nil
}

func (m ServicePickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Services)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case " ", "x":
			m.toggle(m.Cursor)
		case "a":
			all := len(m.Choices()) == len(m.Services)
			for i := range m.Services {
				m.Checked[i] = !all
			}
		case "enter":
			if len(m.Choices()) == 0 {
				return m, nil
			}
			m.Confirmed = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

// toggle flips service i. The map is shared between model copies, which is
// fine for the single program that owns it.
func (m ServicePickerModel) toggle(i int) {
	if i >= 0 && i < len(m.Services) {
		m.Checked[i] = !m.Checked[i]
	}
}

// Choices returns the checked services in list order.
func (m ServicePickerModel) Choices() []string {
	var out []string
	for i, s := range m.Services {
		if m.Checked[i] {
			out = append(out, s)
		}
	}
	return out
}

func (m ServicePickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Services"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  a all  ⏎ render  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Services))
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Checked[i] {
			box = listCheckedStyle.Render("[x]")
		}

		line := fmt.Sprintf("%s%s %s", cursor, box, m.Services[i])
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d selected / %d]", len(m.Choices()), len(m.Services))))
	return b.String()
}

// pickServices runs the picker. ok is false when the user quit without
// confirming a selection.
func pickServices(services, preselected []string) (selected []string, ok bool, err error) {
	if len(services) == 0 {
		return nil, false, errs.New(errs.ErrCodeInvalidConfiguration, "the configuration declares no services")
	}

	p := tea.NewProgram(NewServicePickerModel(services, preselected))
	final, err := p.Run()
	if err != nil {
		return nil, false, err
	}

	fm, ok := final.(ServicePickerModel)
	if !ok || !fm.Confirmed {
		return nil, false, nil
	}
	return fm.Choices(), true, nil
}
