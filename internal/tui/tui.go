// Package tui provides the Bubbletea terminal UI for a live tracking
// session: a table of confirmed tracks refreshed once per processed frame.
package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/arraytrack/doa/internal/pipeline"
)

// SnapshotMsg carries one pipeline.Snapshot into the Bubbletea event loop.
type SnapshotMsg struct {
	Snapshot pipeline.Snapshot
}

// DoneMsg signals that the input has been fully consumed.
type DoneMsg struct {
	Err error
}

// Model is the Bubbletea model for the live tracking view.
type Model struct {
	SnapshotChan chan tea.Msg

	Latest    pipeline.Snapshot
	StartTime time.Time
	Done      bool
	Err       error

	Width, Height int
}

// NewModel builds a Model fed from ch; the caller is responsible for sending
// SnapshotMsg and a final DoneMsg on ch as the pipeline runs.
func NewModel(ch chan tea.Msg) Model {
	return Model{
		SnapshotChan: ch,
		StartTime:    time.Now(),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForMsg(m.SnapshotChan)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case SnapshotMsg:
		m.Latest = msg.Snapshot
		return m, waitForMsg(m.SnapshotChan)

	case DoneMsg:
		m.Done = true
		m.Err = msg.Err
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing...\n"
	}

	var b strings.Builder
	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")
	b.WriteString(renderTrackTable(m))
	if m.Done {
		b.WriteString("\n\ndone, press q to exit")
	}
	return b.String()
}

func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3DAEE9")).
		Render("arraytrack doa — live azimuth tracking")

	subtitle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Italic(true).
		Render(fmt.Sprintf("frame %d · %d active track(s) · elapsed %s",
			m.Latest.FrameIndex, len(m.Latest.Tracks), time.Since(m.StartTime).Round(time.Second)))

	return title + "\n" + subtitle
}

func renderTrackTable(m Model) string {
	var b strings.Builder

	var tracks []trackRow
	for _, t := range m.Latest.Tracks {
		tracks = append(tracks, trackRow{
			id:         t.ID,
			azimuth:    t.AzimuthDeg,
			velocity:   t.AngularVelocity,
			confidence: t.Confidence,
			age:        t.Age,
		})
	}
	sort.Slice(tracks, func(i, j int) bool { return tracks[i].id < tracks[j].id })

	if len(tracks) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("  (no confirmed tracks)"))
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %-4s %-10s %-10s %-10s %-6s\n", "ID", "Azimuth", "Velocity", "Confid.", "Age"))
	for _, t := range tracks {
		color := confidenceColor(t.confidence)
		row := fmt.Sprintf("  %-4d %-10.1f %-10.2f %-10.2f %-6d",
			t.id, t.azimuth, t.velocity, t.confidence, t.age)
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(row))
		b.WriteString("\n")
	}
	return b.String()
}

type trackRow struct {
	id         int
	azimuth    float64
	velocity   float64
	confidence float64
	age        int
}

func confidenceColor(c float64) string {
	switch {
	case c < 0.3:
		return "#AA0000"
	case c < 0.7:
		return "#CCAA00"
	default:
		return "#00AA00"
	}
}

func waitForMsg(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-ch
	}
}
