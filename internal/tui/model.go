package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/sensorboard/sensor"
)

// Fixed dashboard text.
const (
	WindowTitle = "Мониторинг на Пожароизвестяване (ESP32)"
	Title       = "Състояние на сензорите и история"
)

// Column titles of the history table, in order.
var ColumnTitles = []string{"Време", "Температура (°C)", "Влажност (%)", "Газ/Дим (MQ-2)", "Състояние"}

// Model is the Bubble Tea model for the dashboard.
//
// The model owns every on-screen value. It changes only in response to
// [OutcomeMsg], window resizes and scroll keys.
type Model struct {
	display    sensor.DisplayState
	rows       []table.Row
	table      table.Model
	footer     string
	width      int
	height     int
	cancelFunc context.CancelFunc
	quitting   bool
	err        error
}

// NewModel creates a dashboard model showing the loading state.
func NewModel(interval time.Duration, cancelFunc context.CancelFunc) Model {
	t := table.New(
		table.WithColumns(columns(0)),
		table.WithFocused(true),
		table.WithHeight(minTableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.NoColor{}).
		Bold(true)
	t.SetStyles(s)

	return Model{
		display:    sensor.LoadingDisplay(),
		table:      t,
		footer:     fmt.Sprintf("Обновяване на всеки %d секунди", int(interval.Seconds())),
		cancelFunc: cancelFunc,
	}
}

// columns sizes the history columns for the terminal width. The status
// column takes whatever is left.
func columns(width int) []table.Column {
	fixed := colTimeWidth + colTemperatureWidth + colHumidityWidth + colGasWidth
	status := width - fixed - 2*len(ColumnTitles)
	if status < colStatusMinWidth {
		status = colStatusMinWidth
	}

	widths := []int{colTimeWidth, colTemperatureWidth, colHumidityWidth, colGasWidth, status}
	cols := make([]table.Column, len(ColumnTitles))
	for i, title := range ColumnTitles {
		cols[i] = table.Column{Title: title, Width: widths[i]}
	}
	return cols
}

// Init sets the terminal window title.
func (m Model) Init() tea.Cmd {
	return tea.SetWindowTitle(WindowTitle)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.cancelFunc != nil {
				m.cancelFunc()
			}
			return m, tea.Quit
		}
		// everything else only scrolls the history
		var cmd tea.Cmd
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-chromeHeight, minTableHeight))
		m.table.GotoBottom()
		return m, nil

	case OutcomeMsg:
		m.display = msg.Outcome.Display()
		m.rows = append(m.rows, table.Row(msg.Outcome.Row().Cells()))
		m.table.SetRows(m.rows)
		m.table.GotoBottom()
		return m, nil

	case stoppedMsg:
		m.err = msg.err
		if msg.err != nil {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	header := headerStyle
	if m.width > 0 {
		header = header.Width(m.width)
	}
	b.WriteString(header.Render(Title))
	b.WriteString("\n")

	current := strings.Join([]string{
		valueStyle.Render(m.display.Temperature),
		valueStyle.Render(m.display.Humidity),
		valueStyle.Render(m.display.GasLevel),
		statusStyle(m.display.Color).Render(m.display.Status),
	}, "\n")
	b.WriteString(currentStyle.Render(current))
	b.WriteString("\n")

	b.WriteString(m.table.View())
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render(m.footer + "  ·  q: изход"))

	return b.String()
}

// Display returns the current-value block.
func (m Model) Display() sensor.DisplayState {
	return m.display
}

// Rows returns the history rows shown in the table.
func (m Model) Rows() []table.Row {
	return m.rows
}
