// Package report generates a human-readable summary of a tracking session,
// written alongside the session's input file.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arraytrack/doa/internal/tracker"
)

// interpretConfidence describes a track's confidence score in plain terms.
func interpretConfidence(c float64) string {
	switch {
	case c < 0.2:
		return "weak, likely transient"
	case c < 0.5:
		return "moderate, still stabilizing"
	case c < 0.8:
		return "solid, sustained source"
	default:
		return "very strong, well-established source"
	}
}

// interpretHitRate describes how consistently a track has been re-detected.
func interpretHitRate(r float64) string {
	switch {
	case r < 0.3:
		return "sparse, frequently lost"
	case r < 0.7:
		return "intermittent"
	default:
		return "consistent"
	}
}

// interpretSpread describes the angular spread of a track's observed
// azimuth history; a wide spread suggests either a moving source or two
// sources being merged onto one track.
func interpretSpread(deg float64) string {
	switch {
	case deg < 5:
		return "stationary"
	case deg < 20:
		return "slow drift"
	case deg < 60:
		return "moving source"
	default:
		return "erratic, possible track confusion"
	}
}

// TrackSummary is the terminal state recorded for one track across a
// session, used to fill out the report's per-track table.
type TrackSummary struct {
	ID              int
	FirstAzimuthDeg float64
	LastAzimuthDeg  float64
	AngularSpanDeg  float64
	FramesAlive     int
	FinalState      tracker.TrackState
}

// SessionData is everything GenerateReport needs about one processed input.
type SessionData struct {
	InputPath   string
	StartTime   time.Time
	EndTime     time.Time
	FramesSeen  int
	SampleRate  float64
	Summaries   []TrackSummary
}

// GenerateReport writes a plain-text summary to <input>-tracking.log,
// alongside the session's input file.
func GenerateReport(data SessionData) error {
	logPath := strings.TrimSuffix(data.InputPath, filepath.Ext(data.InputPath)) + "-tracking.log"

	f, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("report: creating log file: %w", err)
	}
	defer f.Close()

	writeHeader(f, data)
	writeTrackTable(f, data.Summaries)

	return nil
}

func writeHeader(f *os.File, data SessionData) {
	fmt.Fprintf(f, "=== DOA tracking session report ===\n")
	fmt.Fprintf(f, "Input:        %s\n", data.InputPath)
	fmt.Fprintf(f, "Started:      %s\n", data.StartTime.Format(time.RFC3339))
	fmt.Fprintf(f, "Ended:        %s\n", data.EndTime.Format(time.RFC3339))
	fmt.Fprintf(f, "Duration:     %s\n", data.EndTime.Sub(data.StartTime).Round(time.Millisecond))
	fmt.Fprintf(f, "Frames:       %d (sample rate %.0f Hz)\n", data.FramesSeen, data.SampleRate)
	fmt.Fprintf(f, "Tracks seen:  %d\n\n", len(data.Summaries))
}

func writeTrackTable(f *os.File, summaries []TrackSummary) {
	fmt.Fprintf(f, "%-6s %-10s %-10s %-8s %-8s %-10s %-10s %s\n",
		"ID", "First(deg)", "Last(deg)", "Span", "Frames", "Hit rate", "Confid.", "Interpretation")
	for _, s := range summaries {
		hitRate := 0.0
		if s.FinalState.Age > 0 {
			hitRate = float64(s.FinalState.Hits) / float64(s.FinalState.Age)
		}
		fmt.Fprintf(f, "%-6d %-10.1f %-10.1f %-8.1f %-8d %-10.2f %-10.2f %s / %s / %s\n",
			s.ID, s.FirstAzimuthDeg, s.LastAzimuthDeg, s.AngularSpanDeg, s.FramesAlive,
			hitRate, s.FinalState.Confidence,
			interpretConfidence(s.FinalState.Confidence),
			interpretHitRate(hitRate),
			interpretSpread(s.AngularSpanDeg),
		)
	}
}
