// Package report writes the results of a run: a plain text summary, a PNG
// plot and an HTML chart of the speed distribution, and frame screenshots.
package report

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/hans1song/gasdemo/internal/engine"
	"github.com/hans1song/gasdemo/internal/stats"
)

// Result is what a headless run reports.
type Result struct {
	Frames     int
	Elapsed    time.Duration
	Workers    int
	Counters   engine.Counters
	Speeds     []float64 // Speeds of the particles on the last frame.
	Summary    stats.Summary
	HasSummary bool
}

// Print writes r to w in human readable form.
func Print(w io.Writer, r Result) error {
	var b strings.Builder
	fmt.Fprintf(&b, "--- Run Complete ---\n")
	fmt.Fprintf(&b, "Frames: %d in %v with %d workers\n", r.Frames, r.Elapsed.Round(time.Millisecond), r.Workers)
	fmt.Fprintf(&b, "Collisions: %d between particles, %d with walls\n", r.Counters.SelfCollisions, r.Counters.WallCollisions)
	fmt.Fprintf(&b, "Distance: %.0f\n", r.Counters.Distance)
	if len(r.Speeds) > 1 {
		mean, std := stat.MeanStdDev(r.Speeds, nil)
		fmt.Fprintf(&b, "Final speeds: mean %.1f, std dev %.1f over %d particles\n", mean, std, len(r.Speeds))
	}
	if r.HasSummary {
		for _, line := range r.Summary.Lines() {
			fmt.Fprintf(&b, "%s\n", line)
		}
	} else {
		fmt.Fprintf(&b, "No collisions yet.\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ScreenshotName returns the file a screenshot of a run is saved to.
func ScreenshotName(dir string, velocity float64, seconds int) string {
	return filepath.Join(dir, fmt.Sprintf("res_vel_%g_time_%d.png", velocity, seconds))
}

// WritePNG encodes img to path, creating the parent directory if needed.
func WritePNG(path string, img image.Image) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}
