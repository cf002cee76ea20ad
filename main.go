// Package main runs a two dimensional hard-disk gas and shows how the speed
// distribution of its particles settles on the Maxwell distribution.
//
// Author: Chengyan Song
//
// A heavy disk and a few hundred light ones start inside a closed box, every
// light disk with the same speed in a random direction. Collisions between
// disks and with the walls are elastic. Each frame the engine advances by a
// fixed slice of simulated time and the speeds of all disks are folded into a
// histogram, drawn next to the box together with the mean free path and the
// collision rates.
//
// The engine splits collision detection over horizontal strips handled by
// separate goroutines, joined with a sync.WaitGroup before any velocity is
// updated. With -headless the same session runs without a window and prints
// a report, optionally writing a plot and an HTML chart of the histogram.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/hans1song/gasdemo/internal/config"
	"github.com/hans1song/gasdemo/internal/engine"
	"github.com/hans1song/gasdemo/internal/render"
	"github.com/hans1song/gasdemo/internal/report"
	"github.com/hans1song/gasdemo/internal/scenario"
	"github.com/hans1song/gasdemo/internal/session"
	"github.com/hans1song/gasdemo/internal/stats"
)

// Experiment flags. The single letter forms share their variable with the
// long forms.
var (
	mode       int
	precount   int
	timeLimit  int
	velocity   float64
	screenshot bool
)

// Run flags.
var (
	// nParticles is the number of light disks in the box.
	nParticles = flag.Int("particles", scenario.DefaultParticles, "Number of light particles.")

	// seed fixes the initial directions. Zero picks one from the clock.
	seed = flag.Int64("seed", 0, "Random seed for the initial state (0 = time based).")

	// nThreads overrides GASDEMO_WORKERS when positive.
	nThreads = flag.Int("threads", 0, "Number of goroutines used for collision detection (0 = from environment).")

	// headless runs the session without a window, as fast as possible.
	headless = flag.Bool("headless", false, "Run without graphics and print a report.")

	plotPath  = flag.String("plot", "", "Write a PNG plot of the speed distribution to this file (headless only).")
	chartPath = flag.String("chart", "", "Write an HTML chart of the speed distribution to this file (headless only).")
)

func init() {
	modeUsage := "Experiment: " + scenario.Modes() + "."
	flag.IntVar(&mode, "m", int(scenario.ModeMaxwell), modeUsage)
	flag.IntVar(&mode, "mode", int(scenario.ModeMaxwell), modeUsage)

	flag.IntVar(&precount, "p", 0, "Warm-up steps before statistics start.")
	flag.IntVar(&precount, "precount", 0, "Warm-up steps before statistics start.")

	flag.IntVar(&timeLimit, "t", 0, "Length of the run in seconds (0 = until closed).")
	flag.IntVar(&timeLimit, "time", 0, "Length of the run in seconds (0 = until closed).")

	flag.Float64Var(&velocity, "v", scenario.DefaultVelocity, "Initial speed of the light particles.")
	flag.Float64Var(&velocity, "velocity", scenario.DefaultVelocity, "Initial speed of the light particles.")

	flag.BoolVar(&screenshot, "s", false, "Save a screenshot of the last frame when the run ends.")
	flag.BoolVar(&screenshot, "screenshot", false, "Save a screenshot of the last frame when the run ends.")
}

// Game implements ebiten.Game on top of a session.
type Game struct {
	sess  *session.Session
	scene *render.Scene
	cfg   config.Config

	// shot is where the last frame is saved, empty when no screenshot was
	// asked for.
	shot string
	exit *session.Exit
	err  error
}

// Update advances the session by one frame. The game stops on Escape, on a
// window close request or at the time limit, once any screenshot has been
// written.
func (g *Game) Update() error {
	if g.err != nil {
		return g.err
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) || ebiten.IsWindowBeingClosed() {
		g.exit.Quit()
	}
	done := g.sess.Done()
	if g.exit.Stop(done) {
		return ebiten.Termination
	}
	if g.exit.Finishing(done) {
		return nil
	}
	return g.sess.Advance()
}

// Draw renders the current frame and, once the run is finishing, saves the
// screenshot.
func (g *Game) Draw(screen *ebiten.Image) {
	summary, ok := g.sess.Summary()
	g.scene.Draw(screen, render.Frame{
		Circles:    g.sess.Circles(),
		Sections:   g.sess.Sections(),
		Histogram:  g.sess.Histogram(),
		Frames:     g.sess.Frames(),
		Summary:    summary,
		HasSummary: ok,
	})

	if g.exit.Pending(g.sess.Done()) {
		g.exit.Captured()
		if err := report.WritePNG(g.shot, render.Capture(screen)); err != nil {
			g.err = fmt.Errorf("screenshot: %w", err)
			return
		}
		log.Printf("Saved %s", g.shot)
	}
}

// Layout keeps the logical screen at the configured size; Ebiten scales it
// to the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return g.cfg.Width, g.cfg.Height
}

// output is a file written from the histogram after a headless run.
type output struct {
	path  string
	write func(path string, h *stats.Histogram) error
}

// runHeadless advances sess until the time limit or an interrupt and prints
// the report.
func runHeadless(sess *session.Session, eng *engine.Engine, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Running gas demo headless...\n")
	fmt.Printf("Config: Threads=%d, Particles=%d, Velocity=%g, Time=%d, FPS=%d, Microsteps=%d\n",
		eng.Workers(), *nParticles, velocity, timeLimit, cfg.FPS, cfg.Microsteps)

	startTime := time.Now()
	err := sess.Run(ctx)
	duration := time.Since(startTime)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		log.Printf("Interrupted after %d frames", sess.Frames())
	}

	circles := sess.Circles()
	speeds := make([]float64, len(circles))
	for i, c := range circles {
		speeds[i] = c.Speed()
	}
	summary, ok := sess.Summary()
	if err := report.Print(os.Stdout, report.Result{
		Frames:     sess.Frames(),
		Elapsed:    duration,
		Workers:    eng.Workers(),
		Counters:   sess.Counters(),
		Speeds:     speeds,
		Summary:    summary,
		HasSummary: ok,
	}); err != nil {
		return fmt.Errorf("print report: %w", err)
	}

	hist := sess.Histogram()
	outputs := []output{
		{*plotPath, report.WritePlot},
		{*chartPath, report.WriteChart},
	}
	if screenshot {
		outputs = append(outputs, output{report.ScreenshotName(cfg.ScreenshotDir, velocity, timeLimit), report.WritePlot})
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		err := out.write(out.path, hist)
		if errors.Is(err, report.ErrEmptyHistogram) {
			log.Printf("Skipping %s: no samples", out.path)
			continue
		}
		if err != nil {
			return err
		}
		log.Printf("Saved %s", out.path)
	}
	return nil
}

// main is the application entry point.
//
// It reads the environment and the command line, populates the engine with
// the chosen experiment and then either opens the Ebiten window or runs
// headless.
func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if *nThreads > 0 {
		cfg.Workers = *nThreads
	}

	// Match GOMAXPROCS to the collision workers.
	runtime.GOMAXPROCS(cfg.Workers)

	hist, err := stats.NewHistogram(stats.Mode(cfg.VelocityMode))
	if err != nil {
		log.Fatal(err)
	}

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}

	eng := engine.New(engine.WithWorkers(cfg.Workers), engine.WithMicrosteps(cfg.Microsteps))
	progress := func(step int) {
		if (step+1)%100 == 0 || step+1 == precount {
			log.Printf("Precount %d/%d", step+1, precount)
		}
	}
	sc, err := scenario.Setup(eng, scenario.Params{
		Mode:      scenario.Mode(mode),
		Precount:  precount,
		Velocity:  velocity,
		Particles: *nParticles,
	}, rand.New(rand.NewSource(s)), progress)
	if errors.Is(err, scenario.ErrUnknownMode) {
		flag.Usage()
		os.Exit(0)
	}
	if err != nil {
		log.Fatal(err)
	}

	sess, err := session.New(eng, hist, session.Options{
		FPS:       cfg.FPS,
		TimeScale: sc.TimeScale,
		TimeLimit: timeLimit,
		Velocity:  velocity,
	})
	if err != nil {
		log.Fatal(err)
	}

	if *headless {
		if err := runHeadless(sess, eng, cfg); err != nil {
			log.Fatal(err)
		}
		return
	}

	game := &Game{sess: sess, scene: render.NewScene(cfg.ShowFPS), cfg: cfg, exit: session.NewExit(screenshot)}
	if screenshot {
		game.shot = report.ScreenshotName(cfg.ScreenshotDir, velocity, timeLimit)
	}

	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle("Physic demo")
	ebiten.SetFullscreen(cfg.Fullscreen)
	ebiten.SetTPS(cfg.FPS)
	ebiten.SetWindowClosingHandled(true)

	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
