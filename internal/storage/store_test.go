package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/experiment"
)

func testReport(t *testing.T) *experiment.Report {
	t.Helper()
	preset := config.GetPreset("single")
	p := preset.Params.Clone()
	p.Frames = []int{200, 100, 10}
	p.Dts = []float64{0.05, 0.1, 0.01}

	e, err := experiment.New(p, preset.State())
	if err != nil {
		t.Fatalf("new experiment: %v", err)
	}
	report, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return report
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	report := testReport(t)

	id, err := st.Save("single", report)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(id, "single_") {
		t.Errorf("unexpected batch id %q", id)
	}

	meta, err := st.Load(id)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "single" || meta.ID != id {
		t.Errorf("unexpected metadata header: %+v", meta)
	}
	if meta.Params.OscillatorCount != 3 || len(meta.Runs) != 3 {
		t.Fatalf("expected 3 oscillators and 3 runs, got %d and %d", meta.Params.OscillatorCount, len(meta.Runs))
	}
	if math.Abs(meta.Runs[0].Frequency.Analytic-math.Sqrt2) > 1e-12 {
		t.Errorf("analytic frequency = %f", meta.Runs[0].Frequency.Analytic)
	}
	if meta.Runs[2].Frequency.Estimated.IsDefined() {
		t.Error("a 10 frame run should have no frequency estimate")
	}
	if meta.Runs[0].WaveSpeed != nil {
		t.Error("wave speed should not be stored for a clamped chain")
	}
}

func TestStoreLoadRun(t *testing.T) {
	st := New(t.TempDir())
	report := testReport(t)
	id, err := st.Save("single", report)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	traj, err := st.LoadRun(id, 1)
	if err != nil {
		t.Fatalf("load run failed: %v", err)
	}
	want := report.Runs[0].Trajectory
	if traj.Len() != want.Len() {
		t.Fatalf("expected %d frames, got %d", want.Len(), traj.Len())
	}
	if traj.Dt != 0.05 {
		t.Errorf("dt = %f", traj.Dt)
	}

	for f := range want.Snapshots {
		got, exp := traj.Snapshots[f], want.Snapshots[f]
		if got.Time != exp.Time {
			t.Fatalf("frame %d: time %v, want %v", f, got.Time, exp.Time)
		}
		for i := range exp.Displacements {
			if got.Displacements[i] != exp.Displacements[i] ||
				got.Velocities[i] != exp.Velocities[i] ||
				got.Accelerations[i] != exp.Accelerations[i] {
				t.Fatalf("frame %d oscillator %d differs after reload", f, i)
			}
			if math.Abs(got.Positions[i]-exp.Positions[i]) > 1e-12 {
				t.Fatalf("frame %d: position %f, want %f", f, got.Positions[i], exp.Positions[i])
			}
		}
	}

	if _, err := st.LoadRun(id, 9); !errors.Is(err, ErrRunMissing) {
		t.Errorf("expected ErrRunMissing, got %v", err)
	}
	if _, err := st.LoadRun("nope", 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFlatLogs(t *testing.T) {
	st := New(t.TempDir())
	id, err := st.Save("single", testReport(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	dir := st.Dir(id)

	frames, err := ReadFrames(filepath.Join(dir, FramesLog(1)))
	if err != nil {
		t.Fatalf("read frames: %v", err)
	}
	if len(frames) != 200 {
		t.Fatalf("expected 200 frames, got %d", len(frames))
	}
	first := []float64{0, 1.1, 2}
	for i, x := range first {
		if math.Abs(frames[0][i]-x) > 1e-12 {
			t.Errorf("initial position %d = %f, want %f", i, frames[0][i], x)
		}
	}

	raw, err := os.ReadFile(filepath.Join(dir, FrequencyLog))
	if err != nil {
		t.Fatalf("read frequencies: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected one line per run, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[2], "\tundefined\tundefined") {
		t.Errorf("undefined estimate not logged as such: %q", lines[2])
	}

	cmp, err := ReadComparisons(filepath.Join(dir, FrequencyLog))
	if err != nil {
		t.Fatalf("read comparisons: %v", err)
	}
	if !cmp[0].Estimated.IsDefined() || cmp[2].Estimated.IsDefined() {
		t.Errorf("unexpected comparisons: %+v", cmp)
	}

	if _, err := os.Stat(filepath.Join(dir, WaveSpeedLog)); !os.IsNotExist(err) {
		t.Errorf("v_wave.txt should not exist for a clamped chain, stat err = %v", err)
	}
}

func TestStoreList(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "data"))

	batches, err := st.List()
	if err != nil {
		t.Fatalf("list on a missing dir failed: %v", err)
	}
	if len(batches) != 0 {
		t.Errorf("expected no batches, got %d", len(batches))
	}

	report := testReport(t)
	a, err := st.Save("single", report)
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Save("single", report)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("batch ids collide: %s", a)
	}

	if err := os.Mkdir(filepath.Join(st.baseDir, "stray"), 0755); err != nil {
		t.Fatal(err)
	}

	batches, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(batches) != 2 {
		t.Errorf("expected 2 batches, got %d", len(batches))
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	id, err := st.Save("single", testReport(t))
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := st.WriteJSON(id, &buf); err != nil {
		t.Fatalf("write json: %v", err)
	}
	var meta BatchMetadata
	if err := json.Unmarshal(buf.Bytes(), &meta); err != nil {
		t.Fatalf("exported json does not parse: %v", err)
	}
	if meta.ID != id || len(meta.Runs) != 3 {
		t.Errorf("unexpected export: %+v", meta)
	}
	if !strings.Contains(buf.String(), `"estimated": null`) {
		t.Error("undefined estimates should export as null")
	}

	path := filepath.Join(t.TempDir(), "out.json")
	if err := st.ExportJSON(id, path); err != nil {
		t.Fatalf("export json: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}

	if err := st.WriteJSON("missing", &buf); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
