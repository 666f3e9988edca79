// Command doatrack runs the direction-of-arrival tracking engine against a
// recorded multichannel WAV capture and reports the tracks it found.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/arraytrack/doa/internal/config"
	"github.com/arraytrack/doa/internal/dsp"
	"github.com/arraytrack/doa/internal/pipeline"
	"github.com/arraytrack/doa/internal/prefilter"
	"github.com/arraytrack/doa/internal/report"
	"github.com/arraytrack/doa/internal/telemetry"
	"github.com/arraytrack/doa/internal/tui"
	"github.com/arraytrack/doa/internal/wavfeed"
)

var version = "dev"

// CLI defines doatrack's command-line surface.
type CLI struct {
	Version  bool   `short:"v" help:"Show version information"`
	Debug    bool   `short:"d" help:"Enable debug logging to stderr"`
	Report   bool   `help:"Write a session summary report alongside the input file"`
	TUI      bool   `help:"Show a live terminal view of tracked sources"`
	Config   string `arg:"" name:"config" help:"Path to the pipeline config YAML file" type:"existingfile"`
	Input    string `arg:"" name:"input" help:"Multichannel WAV file to process" type:"existingfile"`
}

func main() {
	cliArgs := &CLI{}
	kong.Parse(cliArgs,
		kong.Name("doatrack"),
		kong.Description("Direction-of-arrival estimation and multi-target angular tracking"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if cliArgs.Version {
		fmt.Printf("doatrack %s\n", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if cliArgs.Debug {
		level = slog.LevelDebug
	}
	sink := telemetry.NewSlog(level)

	if err := run(cliArgs, sink); err != nil {
		fmt.Fprintf(os.Stderr, "doatrack: %v\n", err)
		os.Exit(1)
	}
}

func run(cliArgs *CLI, sink *telemetry.Slog) error {
	pcfg, err := config.LoadPipeline(cliArgs.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	geo, err := config.LoadGeometry(pcfg.GeometryPath)
	if err != nil {
		return fmt.Errorf("loading geometry: %w", err)
	}
	for _, w := range geo.Warnings {
		sink.Event("geometry.warning", "detail", w)
	}

	window, ok := dsp.ParseWindowType(pcfg.STFT.Window)
	if !ok {
		return fmt.Errorf("unknown window type %q", pcfg.STFT.Window)
	}

	grid := buildAzimuthGrid(pcfg.SSL.AzimuthResDeg)
	engineCfg := pipeline.Config{
		STFT: stftConfig(pcfg, window),
		MCRA: mcraConfig(pcfg),
		Tracker: trackerConfig(pcfg, float64(pcfg.STFT.HopSize)/pcfg.SampleRate),

		AzimuthGridDeg: grid,
		MinFreqHz:      pcfg.SSL.MinFreqHz,
		MaxFreqHz:      pcfg.SSL.MaxFreqHz,
		GCCEpsilon:     pcfg.SSL.GCCEpsilon,

		Peaks: sslPeaksConfig(pcfg),

		SmoothingAlpha: 0.3,

		UseSNRMask:    pcfg.SSL.UseSNRMask,
		SNRMaskLowDB:  pcfg.SSL.SNRMaskLowDB,
		SNRMaskHighDB: pcfg.SSL.SNRMaskHighDB,

		UseFreqWeighting:  pcfg.SSL.UseFreqWeighting,
		FreqWeightPeakHz:  pcfg.SSL.FreqWeightPeakHz,
		FreqWeightWidthHz: pcfg.SSL.FreqWeightWidthHz,

		UsePairWeighting: pcfg.SSL.UsePairWeighting,

		UseTrackingBoost:      pcfg.SSL.UseTrackingBoost,
		TrackingBoostLambda:   pcfg.SSL.TrackingBoostLambda,
		TrackingBoostSigmaDeg: pcfg.SSL.TrackingBoostSigmaDeg,

		OrientationOffsetDeg: pcfg.OrientationOffsetDeg,
	}

	eng, err := pipeline.New(geo, engineCfg, sink)
	if err != nil {
		return fmt.Errorf("building pipeline: %w", err)
	}

	feed, err := wavfeed.Open(cliArgs.Input, geo.NumMics(), pcfg.STFT.HopSize*8)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer feed.Close()

	pf, err := prefilterConfig(pcfg, geo.NumMics())
	if err != nil {
		return fmt.Errorf("building prefilter: %w", err)
	}

	startTime := time.Now()

	if cliArgs.TUI {
		return runWithTUI(eng, feed, pf, cliArgs, startTime)
	}
	return runHeadless(eng, feed, pf, cliArgs, startTime)
}

func runHeadless(eng *pipeline.Pipeline, feed *wavfeed.Feed, pf *prefilter.Filter, cliArgs *CLI, startTime time.Time) error {
	frames := 0
	for {
		block, err := feed.Next()
		if block != nil {
			if pf != nil {
				pf.Process(block)
			}
			n, perr := eng.ProcessBlock(block)
			if perr != nil {
				return fmt.Errorf("processing block: %w", perr)
			}
			frames += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
	}

	snap := eng.Snapshot()
	for _, t := range snap.Tracks {
		fmt.Printf("track %d: azimuth=%.1f deg confidence=%.2f age=%d\n", t.ID, t.AzimuthDeg, t.Confidence, t.Age)
	}

	if cliArgs.Report {
		data := report.SessionData{
			InputPath:  cliArgs.Input,
			StartTime:  startTime,
			EndTime:    time.Now(),
			FramesSeen: frames,
			SampleRate: float64(feed.SampleRate()),
			Summaries:  summarize(snap),
		}
		if err := report.GenerateReport(data); err != nil {
			return fmt.Errorf("generating report: %w", err)
		}
	}
	return nil
}

func runWithTUI(eng *pipeline.Pipeline, feed *wavfeed.Feed, pf *prefilter.Filter, cliArgs *CLI, startTime time.Time) error {
	ch := make(chan tea.Msg, 64)
	model := tui.NewModel(ch)
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		frames := 0
		for {
			block, err := feed.Next()
			if block != nil {
				if pf != nil {
					pf.Process(block)
				}
				n, perr := eng.ProcessBlock(block)
				if perr == nil {
					frames += n
					p.Send(tui.SnapshotMsg{Snapshot: eng.Snapshot()})
				}
			}
			if err == io.EOF {
				break
			}
		}
		if cliArgs.Report {
			snap := eng.Snapshot()
			data := report.SessionData{
				InputPath:  cliArgs.Input,
				StartTime:  startTime,
				EndTime:    time.Now(),
				FramesSeen: frames,
				SampleRate: float64(feed.SampleRate()),
				Summaries:  summarize(snap),
			}
			report.GenerateReport(data)
		}
		p.Send(tui.DoneMsg{})
	}()

	_, err := p.Run()
	return err
}

// summarize builds report rows from the final snapshot only: it covers the
// tracks alive at the end of the run, sets both FirstAzimuthDeg and
// LastAzimuthDeg to each track's final azimuth, and leaves AngularSpanDeg at
// zero. No per-frame azimuth history is recorded.
func summarize(snap pipeline.Snapshot) []report.TrackSummary {
	out := make([]report.TrackSummary, len(snap.Tracks))
	for i, t := range snap.Tracks {
		out[i] = report.TrackSummary{
			ID:              t.ID,
			FirstAzimuthDeg: t.AzimuthDeg,
			LastAzimuthDeg:  t.AzimuthDeg,
			FramesAlive:     t.Age,
			FinalState:      t,
		}
	}
	return out
}

func buildAzimuthGrid(resDeg float64) []float64 {
	if resDeg <= 0 {
		resDeg = 1.0
	}
	var grid []float64
	for a := 0.0; a < 360; a += resDeg {
		grid = append(grid, a)
	}
	return grid
}
