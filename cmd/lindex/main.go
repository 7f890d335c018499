package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/lindex/internal/accum"
	"github.com/san-kum/lindex/internal/config"
	"github.com/san-kum/lindex/internal/export"
	"github.com/san-kum/lindex/internal/lattice"
	"github.com/san-kum/lindex/internal/lindemann"
	"github.com/san-kum/lindex/internal/neighbor"
	"github.com/san-kum/lindex/internal/storage"
	"github.com/san-kum/lindex/internal/viz"
)

var (
	dataDir string
	verbose bool
	// Trajectory and engine overrides
	configFile    string
	preset        string
	runName       string
	boxLength     float64
	rmax          float64
	dr            float64
	threads       int
	kind          string
	cells         int
	frames        int
	seed          int64
	amplitude     float64
	meltAmplitude float64
	diffusion     float64
	// Output
	traceEvery int
	noSave     bool
	saveConfig string
	outFile    string
	// Bench
	benchThreads []int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "lindex",
		Short: "lindemann index of particle trajectories",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lindex", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log per-frame diagnostics to stderr")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "compute the lindemann index of a synthetic trajectory",
		Args:  cobra.NoArgs,
		RunE:  runLindemann,
	}
	addTrajectoryFlags(runCmd)
	runCmd.Flags().IntVar(&traceEvery, "trace-every", 1, "record the ensemble index every n frames")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().StringVar(&saveConfig, "save-config", "", "write the resolved config to this yaml file")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "follow the lindemann index frame by frame",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addTrajectoryFlags(liveCmd)
	liveCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show and plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export per-particle values as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "write trace and per-particle plots as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output directory (default: the run directory)")

	reindexCmd := &cobra.Command{
		Use:   "reindex",
		Short: "rebuild the run catalog from the data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			defer st.Close()
			n, err := st.Reindex()
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d runs\n", n)
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id...]",
		Short: "delete stored runs",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(dataDir)
			if err := st.Init(); err != nil {
				return err
			}
			defer st.Close()
			for _, id := range args {
				if err := st.Delete(id); err != nil {
					return err
				}
				fmt.Printf("deleted %s\n", id)
			}
			return nil
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tLATTICE\tBOX\tRMAX\tAMPLITUDE\tFRAMES")
			for _, name := range config.ListPresets() {
				c := config.GetPreset(name)
				box, err := c.NewBox()
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%s %v\t%s\t%.2f\t%.2f -> %.2f\t%d\n",
					name,
					c.Lattice.Kind, c.Lattice.Cells,
					box,
					c.RMax,
					c.Lattice.Amplitude, c.Lattice.MeltAmplitude,
					c.Lattice.Frames,
				)
			}
			return w.Flush()
		},
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare ingest throughput across thread counts",
		Args:  cobra.NoArgs,
		RunE:  benchThreadCounts,
	}
	addTrajectoryFlags(benchCmd)
	benchCmd.Flags().IntSliceVar(&benchThreads, "threads-list", []int{1, 2, 4, 8}, "thread counts to compare")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, showCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, reindexCmd, deleteCmd, presetsCmd, benchCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTrajectoryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringVar(&runName, "name", "", "run name (default: preset or config name)")
	cmd.Flags().Float64Var(&boxLength, "box", config.DefaultBoxLength, "cubic box length")
	cmd.Flags().Float64Var(&rmax, "rmax", config.DefaultRMax, "neighbor cutoff")
	cmd.Flags().Float64Var(&dr, "dr", config.DefaultDr, "bin width (reserved)")
	cmd.Flags().IntVar(&threads, "threads", 0, "worker threads (0 = all CPUs)")
	cmd.Flags().StringVar(&kind, "lattice", string(lattice.FCC), fmt.Sprintf("lattice kind %v", lattice.Kinds()))
	cmd.Flags().IntVar(&cells, "cells", config.DefaultCells, "unit cells per box side")
	cmd.Flags().IntVar(&frames, "frames", config.DefaultFrames, "number of frames")
	cmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	cmd.Flags().Float64Var(&amplitude, "amplitude", config.DefaultAmplitude, "thermal amplitude at the first frame")
	cmd.Flags().Float64Var(&meltAmplitude, "melt-amplitude", config.DefaultAmplitude, "thermal amplitude at the last frame")
	cmd.Flags().Float64Var(&diffusion, "diffusion", 0, "random-walk step per frame")
}

// resolveConfig layers defaults, a preset, a config file and explicitly set
// flags, in that order, and returns the validated result with a run name.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "custom"

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		cfg, name = p, preset
	}

	if configFile != "" {
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	flags := cmd.Flags()
	if flags.Changed("box") {
		cfg.Box.Lx, cfg.Box.Ly, cfg.Box.Lz = boxLength, boxLength, boxLength
	}
	if flags.Changed("rmax") {
		cfg.RMax = rmax
	}
	if flags.Changed("dr") {
		cfg.Dr = dr
	}
	if flags.Changed("threads") {
		cfg.Threads = threads
	}
	if flags.Changed("lattice") {
		cfg.Lattice.Kind = kind
	}
	if flags.Changed("cells") {
		cfg.Lattice.Cells = [3]int{cells, cells, cells}
	}
	if flags.Changed("frames") {
		cfg.Lattice.Frames = frames
	}
	if flags.Changed("seed") {
		cfg.Lattice.Seed = seed
	}
	if flags.Changed("amplitude") {
		cfg.Lattice.Amplitude = amplitude
	}
	if flags.Changed("melt-amplitude") {
		cfg.Lattice.MeltAmplitude = meltAmplitude
	}
	if flags.Changed("diffusion") {
		cfg.Lattice.Diffusion = diffusion
	}
	if runName != "" {
		name = runName
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, name, nil
}

// session is an engine wired to a trajectory generator for one run.
type session struct {
	cfg    *config.Config
	name   string
	gen    *lattice.Generator
	engine *lindemann.Engine
	trace  *lindemann.Trace
}

func newSession(cmd *cobra.Command, every int) (*session, error) {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	box, err := cfg.NewBox()
	if err != nil {
		return nil, err
	}
	gen, err := lattice.NewGenerator(box, cfg.LatticeParams())
	if err != nil {
		return nil, err
	}

	opts := cfg.EngineOptions()
	opts.Particles = gen.Params().Particles()
	eng, err := lindemann.New(box, opts)
	if err != nil {
		return nil, err
	}

	trace := &lindemann.Trace{Every: every}
	eng.AddObserver(trace)
	eng.AddObserver(lindemann.ObserverFunc(func(frame int, e *lindemann.Engine) {
		slog.Debug("frame ingested", "run", name, "frame", frame, "pairs", e.Pairs())
	}))

	slog.Info("session ready",
		"run", name,
		"box", box.String(),
		"particles", opts.Particles,
		"frames", cfg.Lattice.Frames,
		"workers", eng.Workers())

	return &session{cfg: cfg, name: name, gen: gen, engine: eng, trace: trace}, nil
}

// ingest feeds every generated frame to the engine. onFrame, if set, is
// called after each successful ingest.
func (s *session) ingest(ctx context.Context, onFrame func(positions []r3.Vec)) error {
	for f, positions := range s.gen.Frames() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.engine.IngestFrame(positions); err != nil {
			return fmt.Errorf("frame %d: %w", f, err)
		}
		if onFrame != nil {
			onFrame(positions)
		}
	}
	s.trace.Record(s.engine)
	return nil
}

func (s *session) save(res lindemann.Result, elapsed time.Duration) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	runID, err := st.Save(storage.RunMetadata{
		Name:    s.name,
		Config:  s.cfg,
		Workers: s.engine.Workers(),
		Elapsed: elapsed,
	}, res, s.trace.Points())
	if err != nil {
		return err
	}
	fmt.Printf("saved run: %s\n", runID)
	return nil
}

func runLindemann(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, traceEvery)
	if err != nil {
		return err
	}

	if saveConfig != "" {
		if err := config.Save(saveConfig, s.cfg); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	if err := s.ingest(ctx, nil); err != nil {
		return err
	}
	elapsed := time.Since(start)

	res := s.engine.CurrentResult()
	fmt.Println(viz.RenderSummary(s.name, res, s.trace.Points(), elapsed))

	if noSave {
		return nil
	}
	return s.save(res, elapsed)
}

func runLive(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, 1)
	if err != nil {
		return err
	}

	m := viz.NewModel(s.name, s.engine.Box(), s.cfg.Lattice.Frames)
	p := tea.NewProgram(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		err := s.ingest(ctx, func(positions []r3.Vec) {
			if point, ok := s.trace.Last(); ok {
				p.Send(viz.FrameMsg{Point: point, Positions: positions})
			}
		})
		p.Send(viz.DoneMsg{Result: s.engine.CurrentResult(), Err: err})
		done <- err
	}()

	final, err := p.Run()
	cancel()
	ingestErr := <-done
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if lm, ok := final.(viz.Model); !ok || !lm.Done() || ingestErr != nil {
		if ingestErr != nil && !errors.Is(ingestErr, context.Canceled) {
			return ingestErr
		}
		fmt.Println("run interrupted, not saved")
		return nil
	}

	res := s.engine.CurrentResult()
	fmt.Println(viz.RenderSummary(s.name, res, s.trace.Points(), elapsed))
	if noSave {
		return nil
	}
	return s.save(res, elapsed)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tPARTICLES\tFRAMES\tVALID\tLINDEMANN\tELAPSED")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%.5f\t%v\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Frames,
			run.Valid,
			run.Ensemble,
			run.Elapsed.Round(time.Millisecond),
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	values, neighbors, err := st.LoadParticles(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}

	res := lindemann.Result{
		Particles: values,
		Neighbors: neighbors,
		Ensemble:  meta.Ensemble,
		Valid:     meta.Valid,
		Pairs:     meta.Pairs,
		Frames:    meta.Frames,
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("saved: %s\n", meta.Timestamp.Format(time.RFC3339))
	fmt.Println(viz.RenderSummary(meta.Name, res, trace, meta.Elapsed))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	values, neighbors, err := st.LoadParticles(runID)
	if err != nil {
		return err
	}

	if len(values) == 0 {
		return fmt.Errorf("no data to export")
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	if err := w.Write([]string{"particle", "lindemann", "neighbors"}); err != nil {
		return err
	}

	for i, v := range values {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(v, 'f', 6, 64),
			strconv.Itoa(neighbors[i]),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}

	if outFile == "" {
		return storage.ExportJSONStdout(data)
	}
	if err := storage.ExportJSON(outFile, data); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	data, err := st.Export(runID)
	if err != nil {
		return err
	}

	dir := outFile
	if dir == "" {
		dir = st.RunDir(runID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	res := lindemann.Result{Particles: data.Particles, Neighbors: data.Neighbors}
	plots := map[string]string{
		"trace.svg":     export.TraceSVG(data.Trace, 800, 300),
		"particles.svg": export.ParticlesSVG(res, 800, 300),
	}
	for _, name := range []string{"trace.svg", "particles.svg"} {
		if plots[name] == "" {
			fmt.Printf("skipped %s: not enough points\n", name)
			continue
		}
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(plots[name]), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", path)
	}
	return nil
}

func benchThreadCounts(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	box, err := cfg.NewBox()
	if err != nil {
		return err
	}
	gen, err := lattice.NewGenerator(box, cfg.LatticeParams())
	if err != nil {
		return err
	}

	trajectory := make([][]r3.Vec, 0, cfg.Lattice.Frames)
	for _, positions := range gen.Frames() {
		trajectory = append(trajectory, positions)
	}
	if len(trajectory) == 0 {
		return fmt.Errorf("no frames to benchmark")
	}

	// The cell list must agree with the O(N^2) search before timings mean anything.
	finder, err := neighbor.NewFinder(box, cfg.RMax)
	if err != nil {
		return err
	}
	pairs, err := finder.FindPairs(trajectory[0])
	if err != nil {
		return err
	}
	cellCount := 0
	for range pairs {
		cellCount++
	}
	bruteCount := len(neighbor.BruteForce(box, trajectory[0], cfg.RMax))
	if cellCount != bruteCount {
		return fmt.Errorf("cell list found %d pairs, brute force %d", cellCount, bruteCount)
	}

	fmt.Printf("benchmarking %s: %d particles, %d frames, %d pairs in frame 0\n\n",
		name, len(trajectory[0]), len(trajectory), cellCount)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "THREADS\tTIME\tFRAMES/SEC\tSPEEDUP\tIDENTICAL")

	var reference []accum.Entry
	var baseline time.Duration
	for _, t := range benchThreads {
		opts := cfg.EngineOptions()
		opts.Threads = t
		eng, err := lindemann.New(box, opts)
		if err != nil {
			return err
		}

		start := time.Now()
		for f, positions := range trajectory {
			if err := eng.IngestFrame(positions); err != nil {
				return fmt.Errorf("threads %d, frame %d: %w", t, f, err)
			}
		}
		elapsed := time.Since(start)

		snap := eng.Snapshot()
		if reference == nil {
			reference, baseline = snap, elapsed
		}
		identical := slices.Equal(reference, snap)

		fmt.Fprintf(w, "%d\t%v\t%.1f\t%.2fx\t%t\n",
			eng.Workers(),
			elapsed.Round(time.Microsecond),
			float64(len(trajectory))/elapsed.Seconds(),
			baseline.Seconds()/elapsed.Seconds(),
			identical,
		)
		slog.Debug("bench finished", "threads", t, "elapsed", elapsed, "identical", identical)
	}

	return w.Flush()
}
