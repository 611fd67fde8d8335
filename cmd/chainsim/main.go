package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/experiment"
	"github.com/san-kum/chainsim/internal/metrics"
	"github.com/san-kum/chainsim/internal/report"
	"github.com/san-kum/chainsim/internal/storage"
	"github.com/san-kum/chainsim/internal/viz"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	cfgFile string
	// run
	batchName  string
	noSave     bool
	noValidate bool
	// figures, export-json
	outPath   string
	figFormat string
	// live
	liveDt    float64
	liveTheme string
	// presets
	presetDir string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "chainsim",
		Short: "coupled harmonic oscillator chain simulator",
		Long: `Simulates a 1-D chain of identical masses joined by identical springs with a
leapfrog integrator, and compares the measured energy, frequency and wave
speed against their analytic values over a batch of time steps.`,
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./chainsim.yaml or $HOME/.chainsim/chainsim.yaml)")
	flags.String("data", ".chainsim", "data directory")
	flags.String("params", "", "parameter file (yaml or json)")
	flags.String("state", "", "initial state file (yaml or json)")
	flags.String("preset", "", "use a preset chain (see 'chainsim presets')")
	flags.BoolP("verbose", "v", false, "verbose logging")
	for _, name := range []string{"data", "params", "state", "preset", "verbose"} {
		if err := viper.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a batch of simulations",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	runCmd.Flags().StringVar(&batchName, "name", "", "batch name (default: preset or parameter file name)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without writing logs")
	runCmd.Flags().BoolVar(&noValidate, "no-validate", false, "do not stop on NaN/Inf states")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored batches",
		Args:  cobra.NoArgs,
		RunE:  listBatches,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [batch_id] [run]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  plotRun,
	}

	figuresCmd := &cobra.Command{
		Use:   "figures [batch_id]",
		Short: "render figures of a stored batch",
		Args:  cobra.ExactArgs(1),
		RunE:  renderFigures,
	}
	figuresCmd.Flags().StringVar(&outPath, "out", "", "output directory (default: the batch directory)")
	figuresCmd.Flags().StringVar(&figFormat, "format", "png", fmt.Sprintf("image format %v", report.Formats))

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [batch_id]",
		Short: "export batch metadata to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (default: stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}
	presetsCmd.Flags().StringVar(&presetDir, "write", "", "write <name>.params.yaml and <name>.state.yaml for every preset into this directory")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "animate a chain in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	liveCmd.Flags().Float64Var(&liveDt, "dt", 0, "time step (default: first dt of the batch)")
	liveCmd.Flags().StringVar(&liveTheme, "theme", viz.CurrentTheme.Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, figuresCmd, exportJSONCmd, presetsCmd, liveCmd)

	cobra.OnInitialize(initConfig)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".chainsim"))
		}
		viper.SetConfigName("chainsim")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CHAINSIM")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && viper.GetBool("verbose") {
		fmt.Fprintln(os.Stderr, "using config file:", viper.ConfigFileUsed())
	}
}

func newLogger() (*zap.Logger, error) {
	if viper.GetBool("verbose") {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// loadBatch resolves the parameter set and initial state from --params,
// --state and --preset. A preset supplies whatever the files do not; with
// no flags at all the "standing" preset is used.
func loadBatch() (string, *config.Params, *config.InitialState, error) {
	paramsPath := viper.GetString("params")
	statePath := viper.GetString("state")
	presetName := viper.GetString("preset")

	var preset *config.Preset
	if presetName != "" || paramsPath == "" {
		if presetName == "" {
			presetName = "standing"
		}
		preset = config.GetPreset(presetName)
		if preset == nil {
			return "", nil, nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
	}

	name := presetName
	var p *config.Params
	if paramsPath != "" {
		loaded, err := config.Load(paramsPath)
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to load parameters: %w", err)
		}
		p = loaded
		name = strings.TrimSuffix(filepath.Base(paramsPath), filepath.Ext(paramsPath))
	} else {
		p = preset.Params.Clone()
	}

	var initial *config.InitialState
	switch {
	case statePath != "":
		s, err := config.LoadState(statePath, p.OscillatorCount)
		if err != nil {
			return "", nil, nil, fmt.Errorf("failed to load initial state: %w", err)
		}
		initial = s
	case preset != nil:
		initial = config.Displaced(p, preset.Displacement)
	default:
		return "", nil, nil, fmt.Errorf("--params needs --state or --preset for the initial state")
	}

	return name, p, initial, nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	name, p, initial, err := loadBatch()
	if err != nil {
		return err
	}
	if batchName != "" {
		name = batchName
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	opts := []experiment.Option{experiment.WithLogger(logger)}
	if noValidate {
		opts = append(opts, experiment.WithoutValidation())
	}
	exp, err := experiment.New(p, initial, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s: %d oscillators, %d runs...\n", name, p.OscillatorCount, len(p.Runs()))
	start := time.Now()

	rep, err := exp.Run(ctx)
	printSummary(os.Stdout, name, rep, err)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start).Round(time.Millisecond))

	if noSave {
		return nil
	}

	st := storage.New(viper.GetString("data"))
	id, err := st.Save(name, rep)
	if err != nil {
		return err
	}
	fmt.Printf("batch id: %s\n", id)
	fmt.Printf("logs: %s\n", st.Dir(id))
	return nil
}

// printSummary prints the runs that completed, marking the table partial
// when the batch stopped with runErr.
func printSummary(w io.Writer, name string, rep *experiment.Report, runErr error) {
	if rep == nil || len(rep.Runs) == 0 {
		return
	}
	summaries := make([]storage.RunSummary, len(rep.Runs))
	for i, rr := range rep.Runs {
		summaries[i] = storage.Summarize(rr)
	}
	title := name
	if runErr != nil {
		title += " (partial)"
	}
	fmt.Fprintln(w, viz.Summary(title, summaries))
}

func listBatches(cmd *cobra.Command, args []string) error {
	st := storage.New(viper.GetString("data"))
	batches, err := st.List()
	if err != nil {
		return err
	}

	if len(batches) == 0 {
		fmt.Println("no batches found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tOSC\tENDS\tRUNS\tDT")

	for _, b := range batches {
		dts := make([]string, len(b.Runs))
		for i, r := range b.Runs {
			dts[i] = strconv.FormatFloat(r.Dt, 'g', -1, 64)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%d\t%s\n",
			b.ID,
			b.Name,
			b.Timestamp.Format("2006-01-02 15:04:05"),
			b.Params.OscillatorCount,
			ends(b.Params),
			len(b.Runs),
			strings.Join(dts, ","),
		)
	}

	return w.Flush()
}

func ends(p *config.Params) string {
	end := func(open bool) string {
		if open {
			return "open"
		}
		return "fixed"
	}
	return end(p.FirstOpen) + "/" + end(p.LastOpen)
}

func plotRun(cmd *cobra.Command, args []string) error {
	id := args[0]
	index := 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("run index: %w", err)
		}
		index = n
	}

	st := storage.New(viper.GetString("data"))
	meta, err := st.Load(id)
	if err != nil {
		return err
	}
	traj, err := st.LoadRun(id, index)
	if err != nil {
		return err
	}
	if traj.Len() == 0 {
		return fmt.Errorf("no data to plot")
	}

	mid := analysis.MiddleIndex(traj.Oscillators())
	fmt.Printf("batch: %s\n", meta.ID)
	fmt.Printf("run: %d (dt=%g)\n", index, traj.Dt)
	fmt.Printf("frames: %d\n\n", traj.Len())

	d := traj.DisplacementSeries(mid)
	fmt.Println(viz.SeriesPlot(fmt.Sprintf("displacement of oscillator %d", mid), d, 80, 10))
	fmt.Println()

	e := metrics.ComputeEnergy(traj.Displacements(), traj.Velocities(), meta.Params.Mass, meta.Params.SpringConstant)
	fmt.Println(viz.EnergyPlot(e, 80, 10))
	fmt.Printf("mean energy: %.6g\n", e.MeanTotal())
	fmt.Printf("energy drift: %.3e\n\n", e.Drift())

	if err := plotLastPosition(st.Dir(id), index); err != nil {
		return err
	}

	fmt.Printf("phase portrait of oscillator %d (d, v):\n", mid)
	fmt.Print(analysis.NewPhasePortrait(d, traj.VelocitySeries(mid)).ToASCII(60, 16))
	fmt.Println()

	return printComparisons(st.Dir(id))
}

// plotLastPosition plots the absolute position of the last oscillator from
// the flat frames log of a run.
func plotLastPosition(dir string, index int) error {
	frames, err := storage.ReadFrames(filepath.Join(dir, storage.FramesLog(index)))
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return nil
	}
	last := len(frames[0]) - 1
	x := make([]float64, len(frames))
	for i, f := range frames {
		x[i] = f[last]
	}
	fmt.Println(viz.SeriesPlot(fmt.Sprintf("position of oscillator %d", last), x, 80, 6))
	fmt.Println()
	return nil
}

// printComparisons prints the batch's frequencies.txt and v_wave.txt
// triples, skipping logs the batch did not produce.
func printComparisons(dir string) error {
	logs := []struct{ title, file string }{
		{"frequency (analytic, estimated, relative error)", storage.FrequencyLog},
		{"wave speed (analytic, estimated, relative error)", storage.WaveSpeedLog},
	}
	for _, l := range logs {
		cmps, err := storage.ReadComparisons(filepath.Join(dir, l.file))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return err
		}
		fmt.Println(l.title + ":")
		for i, c := range cmps {
			t := c.Triple()
			fmt.Printf("  run %d\t%s\t%s\t%s\n", i+1, t[0], t[1], t[2])
		}
	}
	return nil
}

func renderFigures(cmd *cobra.Command, args []string) error {
	id := args[0]
	st := storage.New(viper.GetString("data"))
	meta, err := st.Load(id)
	if err != nil {
		return err
	}

	dir := outPath
	if dir == "" {
		dir = st.Dir(id)
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	runs := make([]report.RunData, 0, len(meta.Runs))
	for _, r := range meta.Runs {
		traj, err := st.LoadRun(id, r.Index)
		if err != nil {
			return err
		}
		runs = append(runs, report.RunData{
			Index:      r.Index,
			Dt:         r.Dt,
			Trajectory: traj,
			Frequency:  r.Frequency,
			WaveSpeed:  r.WaveSpeed,
		})
	}

	written, err := report.WriteBatch(dir, figFormat, meta.Params, runs)
	for _, name := range written {
		fmt.Println(filepath.Join(dir, name))
	}
	return err
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(viper.GetString("data"))
	if outPath == "" {
		return st.WriteJSON(args[0], os.Stdout)
	}
	if err := st.ExportJSON(args[0], outPath); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outPath)
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tOSC\tENDS\tRUNS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\n", name, p.Params.OscillatorCount, ends(&p.Params), len(p.Params.Frames), p.Description)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if presetDir == "" {
		return nil
	}
	return writePresets(presetDir)
}

func writePresets(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		paramsPath := filepath.Join(dir, name+".params.yaml")
		if err := config.Save(paramsPath, &p.Params); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		statePath := filepath.Join(dir, name+".state.yaml")
		if err := config.SaveState(statePath, p.State()); err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		fmt.Printf("wrote %s, %s\n", paramsPath, statePath)
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	name, p, initial, err := loadBatch()
	if err != nil {
		return err
	}
	if err := viz.SetTheme(liveTheme); err != nil {
		return err
	}
	dt := liveDt
	if dt == 0 {
		dt = p.Dts[0]
	}
	return viz.RunLive(name, p, initial, dt)
}
