package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/mujoco-runtime/sim"
)

const frameInterval = time.Second / 30

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	pausedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type viewState int

const (
	stateRunning viewState = iota
	statePaused
	stateEditControls
)

type interactiveModel struct {
	err          error
	inputErr     error
	sim          *sim.Simulation
	filename     string
	bodies       []sim.Body
	positions    [][3]float64
	controls     []float64
	sensors      []float64
	input        textinput.Model
	stepsPerTick int
	state        viewState
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func newInteractiveModel(s *sim.Simulation, filename string) *interactiveModel {
	ti := textinput.New()
	ti.Prompt = "ctrl: "
	ti.Placeholder = "comma-separated values"
	ti.Width = 40

	m := &interactiveModel{
		sim:          s,
		filename:     filename,
		input:        ti,
		stepsPerTick: 1,
		state:        statePaused,
	}
	m.bodies, m.err = s.Model().Bodies()
	m.refresh()
	return m
}

func (m *interactiveModel) Init() tea.Cmd {
	return tick()
}

// refresh re-reads the vectors shown in the view.
func (m *interactiveModel) refresh() {
	if m.err != nil {
		return
	}
	var err error
	if m.positions, err = m.sim.BodyPositions(); err != nil {
		m.err = err
		return
	}
	if m.controls, err = m.sim.Controls(); err != nil {
		m.err = err
		return
	}
	if err = m.sim.EvaluateSensors(); err == nil {
		m.sensors, err = m.sim.SensorReadings()
	}
	m.err = err
}

func (m *interactiveModel) advance(n int) {
	for i := 0; i < n && m.err == nil; i++ {
		m.err = m.sim.Step()
	}
	m.refresh()
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.state == stateRunning {
			m.advance(m.stepsPerTick)
		}
		return m, tick()

	case tea.KeyMsg:
		if m.state == stateEditControls {
			return m.updateControls(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case " ":
			if m.state == stateRunning {
				m.state = statePaused
			} else {
				m.state = stateRunning
			}

		case "s", "right":
			m.advance(1)

		case "r":
			if m.err = m.sim.Reset(); m.err == nil {
				m.refresh()
			}

		case "+", "=":
			if m.stepsPerTick < 1000 {
				m.stepsPerTick *= 2
			}

		case "-":
			if m.stepsPerTick > 1 {
				m.stepsPerTick /= 2
			}

		case "c":
			if len(m.controls) > 0 {
				m.state = stateEditControls
				m.input.SetValue(strings.Trim(formatVec(m.controls), "()"))
				m.input.Focus()
			}
		}
	}
	return m, nil
}

func (m *interactiveModel) updateControls(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.input.Blur()
		m.inputErr = nil
		m.state = statePaused
		return m, nil
	case "enter":
		values, err := parseControls(m.input.Value())
		if err == nil {
			err = m.sim.SetControl(values)
		}
		if err != nil {
			m.inputErr = err
			return m, nil
		}
		m.inputErr = nil
		m.input.Blur()
		m.state = statePaused
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MuJoCo"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	status := fmt.Sprintf("t = %.4f  steps/frame = %d", m.sim.Time(), m.stepsPerTick)
	if m.state != stateRunning {
		status += "  " + pausedStyle.Render("paused")
	}
	b.WriteString(status)
	b.WriteString("\n\n")

	for i, body := range m.bodies {
		if i >= len(m.positions) {
			break
		}
		b.WriteString(fmt.Sprintf("  %-20s %s\n",
			nameStyle.Render(displayName(body.Name)), valueStyle.Render(formatVec(m.positions[i][:]))))
	}

	if len(m.controls) > 0 {
		b.WriteString("\nControls: " + valueStyle.Render(formatVec(m.controls)) + "\n")
	}
	if len(m.sensors) > 0 {
		b.WriteString("Sensors:  " + valueStyle.Render(formatVec(m.sensors)) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.state == stateEditControls {
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.inputErr != nil {
			b.WriteString(errorStyle.Render(m.inputErr.Error()))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter apply • esc cancel"))
	} else {
		b.WriteString(helpStyle.Render("space run/pause • s step • r reset • +/- speed • c controls • q quit"))
	}
	return b.String()
}

func runInteractive(s *sim.Simulation, filename string) error {
	p := tea.NewProgram(newInteractiveModel(s, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
