package report

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/experiment"
	"github.com/san-kum/chainsim/internal/metrics"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func singleReport(t *testing.T) *experiment.Report {
	t.Helper()
	preset := config.GetPreset("single")
	p := preset.Params.Clone()
	p.Frames = []int{400, 200}
	p.Dts = []float64{0.025, 0.05}

	e, err := experiment.New(p, preset.State())
	if err != nil {
		t.Fatal(err)
	}
	report, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return report
}

func TestKinematicsAndEnergy(t *testing.T) {
	rr := singleReport(t).Runs[0]

	var buf bytes.Buffer
	if err := Kinematics(&buf, "png", rr.Trajectory, 1); err != nil {
		t.Fatalf("kinematics: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("kinematics output is not a PNG")
	}

	buf.Reset()
	if err := Energy(&buf, "png", rr.Trajectory.Times(), rr.Energies); err != nil {
		t.Fatalf("energy: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("energy output is not a PNG")
	}

	if err := Kinematics(&buf, "png", rr.Trajectory, 7); !errors.Is(err, ErrNoData) {
		t.Errorf("out of range oscillator: expected ErrNoData, got %v", err)
	}
	if err := Energy(&buf, "png", nil, metrics.Energies{}); !errors.Is(err, ErrNoData) {
		t.Errorf("empty energies: expected ErrNoData, got %v", err)
	}
}

func TestFormats(t *testing.T) {
	rr := singleReport(t).Runs[1]

	var buf bytes.Buffer
	if err := Energy(&buf, "svg", rr.Trajectory.Times(), rr.Energies); err != nil {
		t.Fatalf("svg: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("<svg")) {
		t.Error("svg output has no <svg> element")
	}

	buf.Reset()
	if err := Energy(&buf, "pdf", rr.Trajectory.Times(), rr.Energies); err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Error("pdf output has no PDF header")
	}

	if err := Energy(&buf, "bmp", rr.Trajectory.Times(), rr.Energies); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat, got %v", err)
	}
	if _, err := WriteBatch(t.TempDir(), "gif", nil, nil); !errors.Is(err, ErrFormat) {
		t.Errorf("expected ErrFormat from WriteBatch, got %v", err)
	}
}

func TestRelativeErrors(t *testing.T) {
	var buf bytes.Buffer
	dts := []float64{0.01, 0.02, 0.04}

	err := RelativeErrors(&buf, "png", "frequency", dts, []analysis.Value{analysis.Defined(0.001), analysis.Undefined, analysis.Defined(0.02)})
	if err != nil {
		t.Fatalf("relative errors: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		t.Error("output is not a PNG")
	}

	if err := RelativeErrors(&buf, "png", "frequency", dts, []analysis.Value{analysis.Undefined}); !errors.Is(err, ErrNoData) {
		t.Errorf("expected ErrNoData, got %v", err)
	}
}

func TestWriteBatch(t *testing.T) {
	report := singleReport(t)
	dir := t.TempDir()

	runs := make([]RunData, 0, len(report.Runs))
	for _, rr := range report.Runs {
		runs = append(runs, RunData{
			Index:      rr.Index,
			Dt:         rr.Dt,
			Trajectory: rr.Trajectory,
			Frequency:  rr.Frequency,
			WaveSpeed:  rr.WaveSpeed,
		})
	}

	written, err := WriteBatch(dir, "png", report.Params, runs)
	if err != nil {
		t.Fatalf("write batch: %v", err)
	}

	want := []string{"kinematics1.png", "energy1.png", "kinematics2.png", "energy2.png", "freq_error.png"}
	if len(written) != len(want) {
		t.Fatalf("written = %v, want %v", written, want)
	}
	for i, name := range want {
		if written[i] != name {
			t.Errorf("written[%d] = %s, want %s", i, written[i], name)
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, "v_wave_error.png")); !os.IsNotExist(err) {
		t.Error("v_wave_error.png should not be written for a clamped chain")
	}
}
