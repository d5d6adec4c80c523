package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petiaccja/sorbit"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateSelectType modelState = iota
	stateInspect
)

type inspectorModel struct {
	err      error
	files    []string
	result   *sorbit.Result
	view     viewport.Model
	selected int
	showCode bool
	ready    bool
	state    modelState
}

type compiledMsg struct {
	err    error
	result *sorbit.Result
}

func newInspectorModel(files []string) *inspectorModel {
	return &inspectorModel{
		files: files,
		state: stateSelectType,
	}
}

func (m *inspectorModel) Init() tea.Cmd {
	return m.compile
}

func (m *inspectorModel) compile() tea.Msg {
	res, err := sorbit.Compile(m.files...)
	if err != nil {
		return compiledMsg{err: err}
	}
	return compiledMsg{result: res}
}

func (m *inspectorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view = viewport.New(msg.Width, msg.Height-4)
		m.ready = true
		if m.state == stateInspect {
			m.view.SetContent(m.content())
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectType && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectType && m.result != nil && m.selected < len(m.result.Programs)-1 {
				m.selected++
			}

		case "enter":
			if m.state == stateSelectType && m.result != nil && m.ready {
				m.state = stateInspect
				m.showCode = false
				m.view.SetContent(m.content())
				m.view.GotoTop()
			}

		case "tab":
			if m.state == stateInspect {
				m.showCode = !m.showCode
				m.view.SetContent(m.content())
				m.view.GotoTop()
			}

		case "esc":
			if m.state == stateInspect {
				m.state = stateSelectType
			}
		}

	case compiledMsg:
		m.err = msg.err
		m.result = msg.result
	}

	if m.state == stateInspect {
		var cmd tea.Cmd
		m.view, cmd = m.view.Update(msg)
		return m, cmd
	}
	return m, nil
}

// content renders the inspected view: the selected type's op dump, or
// the whole generated file when toggled.
func (m *inspectorModel) content() string {
	if m.showCode {
		return string(m.result.Source)
	}
	return m.result.Programs[m.selected].String()
}

func (m *inspectorModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if m.result == nil {
		return "Compiling..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("sorbit inspector"))
	b.WriteString(" ")
	b.WriteString(strings.Join(m.files, " "))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectType:
		b.WriteString("Select a type to inspect:\n\n")
		for i, p := range m.result.Programs {
			line := fmt.Sprintf("%s %s", p.Type.Kind, typeStyle.Render(p.Type.Name))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter inspect • q quit"))

	case stateInspect:
		what := "IR"
		if m.showCode {
			what = "generated code"
		}
		b.WriteString(typeStyle.Render(m.result.Programs[m.selected].Type.Name))
		b.WriteString(" (" + what + ")\n")
		b.WriteString(m.view.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab toggle IR/code • esc back • q quit"))
	}

	return b.String()
}

func runInteractive(files []string) error {
	p := tea.NewProgram(newInspectorModel(files), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
