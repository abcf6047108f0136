package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nijaru/webm-fix/controller"
	"github.com/nijaru/webm-fix/models"
	"github.com/sirupsen/logrus"
)

type field int

const (
	fieldFile field = iota
	fieldDuration
	fieldCompress
	fieldCRF
	fieldBitrate
	fieldSubmit
	fieldCount
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle    = lipgloss.NewStyle().Width(10)
	focusedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	infoStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	disabledStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type submitDoneMsg struct {
	err error
}

type Model struct {
	ctx    context.Context
	ctrl   *controller.Controller
	logger *logrus.Logger

	spinner  spinner.Model
	inputs   map[field]*textinput.Model
	focus    field
	view     controller.View
	loading  bool
	errorMsg string
	quitting bool
}

// New builds the form around ctrl. A non-empty path is selected up front.
func New(ctx context.Context, ctrl *controller.Controller, path string, logger *logrus.Logger) *Model {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = focusedStyle

	view := ctrl.View()
	m := &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		logger:  logger,
		spinner: s,
		inputs: map[field]*textinput.Model{
			fieldFile:     newInput("path/to/clip.webm", path),
			fieldDuration: newInput("seconds", view.Duration),
			fieldCRF:      newInput("30", view.CRF),
			fieldBitrate:  newInput("1M", view.Bitrate),
		},
		view: view,
	}
	m.inputs[fieldFile].Focus()

	if path != "" {
		m.selectFile(path)
	}
	return m
}

func newInput(placeholder, value string) *textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Width = 40
	ti.SetValue(value)
	return &ti
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case submitDoneMsg:
		m.loading = false
		m.view = m.ctrl.View()
		if msg.err != nil {
			m.logger.WithError(msg.err).Debug("Submission finished with error")
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.quitting = true
		return m, tea.Quit
	case "tab", "down":
		return m, m.moveFocus(1)
	case "shift+tab", "up":
		return m, m.moveFocus(-1)
	case "ctrl+s":
		return m, m.submit()
	case "enter":
		switch m.focus {
		case fieldFile:
			m.selectFile(m.inputs[fieldFile].Value())
			return m, nil
		case fieldSubmit:
			return m, m.submit()
		default:
			return m, m.moveFocus(1)
		}
	case " ":
		if m.focus == fieldCompress {
			m.ctrl.ToggleCompression(!m.view.Compress)
			m.view = m.ctrl.View()
			return m, nil
		}
	}

	input, ok := m.inputs[m.focus]
	if !ok {
		return m, nil
	}
	var cmd tea.Cmd
	*input, cmd = input.Update(msg)
	m.syncInput(m.focus)
	return m, cmd
}

// syncInput pushes the text of f into the controller.
func (m *Model) syncInput(f field) {
	value := m.inputs[f].Value()
	switch f {
	case fieldDuration:
		m.ctrl.SetDuration(value)
	case fieldCRF:
		m.ctrl.SetCRF(value)
	case fieldBitrate:
		m.ctrl.SetBitrate(value)
	}
	m.view = m.ctrl.View()
}

func (m *Model) selectFile(path string) {
	m.errorMsg = ""
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}

	file, err := models.NewSelectedFile(path)
	if err != nil {
		m.errorMsg = fmt.Sprintf("Cannot open %s", path)
		m.logger.WithError(err).WithField("path", path).Warn("Failed to stat file")
		return
	}

	m.ctrl.SelectFile(*file)
	m.view = m.ctrl.View()
}

func (m *Model) submit() tea.Cmd {
	if m.loading || !m.view.SubmitEnabled {
		return nil
	}
	m.errorMsg = ""
	m.loading = true

	ctx, ctrl := m.ctx, m.ctrl
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return submitDoneMsg{err: ctrl.Submit(ctx)}
	})
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	if input, ok := m.inputs[m.focus]; ok {
		input.Blur()
	}

	next := m.focus
	for {
		next = (next + field(delta) + fieldCount) % fieldCount
		if m.view.Compress || (next != fieldCRF && next != fieldBitrate) {
			break
		}
	}
	m.focus = next

	if input, ok := m.inputs[m.focus]; ok {
		return input.Focus()
	}
	return nil
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("webm-fix") + "\n\n")

	b.WriteString(m.row(fieldFile, "File", m.inputs[fieldFile].View()))
	if m.view.File != nil {
		b.WriteString("  " + labelStyle.Render("") + infoStyle.Render(fmt.Sprintf("%s (%s)", m.view.File.Name, m.view.FileSize)) + "\n")
	}
	b.WriteString(m.row(fieldDuration, "Duration", m.inputs[fieldDuration].View()))

	check := "[ ]"
	if m.view.Compress {
		check = "[x]"
	}
	b.WriteString(m.cursor(fieldCompress) + check + " Compress\n")
	if m.view.Compress {
		b.WriteString(m.row(fieldCRF, "CRF", m.inputs[fieldCRF].View()))
		b.WriteString(m.row(fieldBitrate, "Bitrate", m.inputs[fieldBitrate].View()))
	}

	button := "[ Process ]"
	switch {
	case !m.view.SubmitEnabled || m.loading:
		button = disabledStyle.Render(button)
	case m.focus == fieldSubmit:
		button = focusedStyle.Render(button)
	}
	b.WriteString("\n" + m.cursor(fieldSubmit) + button + "\n\n")

	if m.loading {
		progress := m.view.Progress
		if progress == "" {
			progress = (&models.ProcessingRequest{Compress: m.view.Compress}).ProgressText()
		}
		b.WriteString(m.spinner.View() + " " + progress + "\n")
	}
	if m.errorMsg != "" {
		b.WriteString(errorStyle.Render(m.errorMsg) + "\n")
	}
	if status := m.view.Status; status != nil && !m.loading {
		if status.IsError() {
			b.WriteString(errorStyle.Render("✗ "+status.Text) + "\n")
		} else {
			b.WriteString(successStyle.Render("✓ "+status.Text) + "\n")
			if m.view.Location != "" {
				b.WriteString(infoStyle.Render("  "+m.view.Location) + "\n")
			}
		}
	}

	b.WriteString("\n" + helpStyle.Render("tab: next • space: toggle compress • enter: select/submit • ctrl+s: submit • esc: quit"))
	return b.String()
}

func (m *Model) row(f field, label, content string) string {
	return m.cursor(f) + labelStyle.Render(label+":") + content + "\n"
}

func (m *Model) cursor(f field) string {
	if m.focus == f {
		return focusedStyle.Render("> ")
	}
	return "  "
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller, path string, logger *logrus.Logger) error {
	p := tea.NewProgram(New(ctx, ctrl, path, logger), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
