package report

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/metrics"
	"github.com/san-kum/chainsim/internal/sim"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	ErrNoData = errors.New("report: nothing to plot")
	ErrFormat = errors.New("report: unsupported format")
)

// Formats are the image encodings accepted by WriteBatch and WritePanels.
var Formats = []string{"png", "svg", "pdf"}

var (
	panelWidth  = vg.Points(360)
	panelHeight = vg.Points(320)
	lineColor   = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// Panel is one y-series of a multi-panel figure, sharing the x axis.
type Panel struct {
	Title  string
	YLabel string
	Y      []float64
}

func checkFormat(format string) error {
	for _, f := range Formats {
		if f == format {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrFormat, format)
}

// WritePanels draws panels side by side against x and encodes the figure
// in format.
func WritePanels(w io.Writer, format string, x []float64, xLabel string, panels []Panel) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	if len(x) == 0 || len(panels) == 0 {
		return ErrNoData
	}

	row := make([]*plot.Plot, len(panels))
	for i, panel := range panels {
		p, err := linePlot(x, panel.Y)
		if err != nil {
			return fmt.Errorf("%s: %w", panel.Title, err)
		}
		p.Title.Text = panel.Title
		p.X.Label.Text = xLabel
		p.Y.Label.Text = panel.YLabel
		row[i] = p
	}

	img, err := draw.NewFormattedCanvas(panelWidth*vg.Length(len(panels)), panelHeight, format)
	if err != nil {
		return err
	}
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: len(panels),
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(4), PadBottom: vg.Points(4),
		PadLeft: vg.Points(4), PadRight: vg.Points(8),
	}

	canvases := plot.Align([][]*plot.Plot{row}, tiles, dc)
	for i, p := range row {
		p.Draw(canvases[0][i])
	}

	_, err = img.WriteTo(w)
	return err
}

func linePlot(x, y []float64) (*plot.Plot, error) {
	n := min(len(x), len(y))
	if n == 0 {
		return nil, ErrNoData
	}
	pts := make(plotter.XYs, n)
	for i := range pts {
		pts[i].X, pts[i].Y = x[i], y[i]
	}

	p := plot.New()
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = lineColor
	line.LineStyle.Width = vg.Points(1)
	p.Add(line)
	return p, nil
}

// Kinematics plots displacement, velocity and acceleration of oscillator i.
func Kinematics(w io.Writer, format string, traj *sim.Trajectory, i int) error {
	d := traj.DisplacementSeries(i)
	if d == nil {
		return fmt.Errorf("%w: oscillator %d of %d", ErrNoData, i, traj.Oscillators())
	}
	return WritePanels(w, format, traj.Times(), "t", []Panel{
		{Title: fmt.Sprintf("displacement [%d]", i), YLabel: "d", Y: d},
		{Title: fmt.Sprintf("velocity [%d]", i), YLabel: "v", Y: traj.VelocitySeries(i)},
		{Title: fmt.Sprintf("acceleration [%d]", i), YLabel: "a", Y: traj.AccelerationSeries(i)},
	})
}

// Energy plots total, kinetic and potential energy against time.
func Energy(w io.Writer, format string, times []float64, e metrics.Energies) error {
	return WritePanels(w, format, times, "t", []Panel{
		{Title: "total energy", YLabel: "E", Y: e.Total},
		{Title: "kinetic energy", YLabel: "K", Y: e.Kinetic},
		{Title: "potential energy", YLabel: "U", Y: e.Potential},
	})
}

// RelativeErrors plots the defined relative errors of a batch against dt.
func RelativeErrors(w io.Writer, format, title string, dts []float64, errs []analysis.Value) error {
	var xs, ys []float64
	for i := 0; i < min(len(dts), len(errs)); i++ {
		if v, ok := errs[i].Get(); ok {
			xs = append(xs, dts[i])
			ys = append(ys, v)
		}
	}
	if len(xs) == 0 {
		return ErrNoData
	}
	return WritePanels(w, format, xs, "dt", []Panel{{Title: title, YLabel: "relative error", Y: ys}})
}

// RunData is what the figures need from one run.
type RunData struct {
	Index      int
	Dt         float64
	Trajectory *sim.Trajectory
	Frequency  *analysis.Comparison
	WaveSpeed  *analysis.WaveFront
}

// WriteBatch renders kinematics<N> and energy<N> for every run and, when
// the batch has comparisons, freq_error and v_wave_error, with format as the
// file extension. The kinematics figure follows the middle oscillator. It
// returns the written file names.
func WriteBatch(dir, format string, p *config.Params, runs []RunData) ([]string, error) {
	if err := checkFormat(format); err != nil {
		return nil, err
	}
	written := make([]string, 0, 2*len(runs)+2)
	save := func(name string, render func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := render(f); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		written = append(written, name)
		return f.Close()
	}

	var dts []float64
	var freqErr, waveErr []analysis.Value
	var waveDts []float64

	for _, r := range runs {
		traj := r.Trajectory
		mid := analysis.MiddleIndex(traj.Oscillators())
		if err := save(fmt.Sprintf("kinematics%d.%s", r.Index, format), func(w io.Writer) error {
			return Kinematics(w, format, traj, mid)
		}); err != nil {
			return written, err
		}

		e := metrics.ComputeEnergy(traj.Displacements(), traj.Velocities(), p.Mass, p.SpringConstant)
		if err := save(fmt.Sprintf("energy%d.%s", r.Index, format), func(w io.Writer) error {
			return Energy(w, format, traj.Times(), e)
		}); err != nil {
			return written, err
		}

		if r.Frequency != nil {
			dts = append(dts, r.Dt)
			freqErr = append(freqErr, r.Frequency.RelativeError)
		}
		if r.WaveSpeed != nil {
			waveDts = append(waveDts, r.Dt)
			waveErr = append(waveErr, r.WaveSpeed.RelativeError)
		}
	}

	for _, fig := range []struct {
		name, title string
		dts         []float64
		errs        []analysis.Value
	}{
		{"freq_error", "frequency", dts, freqErr},
		{"v_wave_error", "wave speed", waveDts, waveErr},
	} {
		name := fig.name + "." + format
		err := save(name, func(w io.Writer) error {
			return RelativeErrors(w, format, fig.title, fig.dts, fig.errs)
		})
		if errors.Is(err, ErrNoData) {
			os.Remove(filepath.Join(dir, name))
			continue
		}
		if err != nil {
			return written, err
		}
	}

	return written, nil
}
