package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/config"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/experiment"
	"github.com/san-kum/chainsim/internal/sim"
)

var (
	ErrNotFound   = errors.New("storage: batch not found")
	ErrRunMissing = errors.New("storage: run not in batch")
)

const metadataFile = "metadata.json"

// Store keeps one directory per batch under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// Dir is the directory of batch id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.baseDir, id)
}

// RunSummary is the persisted part of an experiment.RunReport.
type RunSummary struct {
	config.Run

	EnergyDrift       float64              `json:"energy_drift"`
	Frequency         *analysis.Comparison `json:"frequency,omitempty"`
	SpectralFrequency analysis.Value       `json:"spectral_frequency"`
	WaveSpeed         *analysis.WaveFront  `json:"wave_speed,omitempty"`
}

type BatchMetadata struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Timestamp time.Time            `json:"timestamp"`
	Params    *config.Params       `json:"params"`
	State     *config.InitialState `json:"initial_state"`
	Runs      []RunSummary         `json:"runs"`
}

// Summarize drops the trajectory and energy series of a run report.
func Summarize(rr *experiment.RunReport) RunSummary {
	return RunSummary{
		Run:               rr.Run,
		EnergyDrift:       rr.EnergyDrift,
		Frequency:         rr.Frequency,
		SpectralFrequency: rr.SpectralFrequency,
		WaveSpeed:         rr.WaveSpeed,
	}
}

// Save writes a batch report: metadata.json, one run<N>.csv per run and the
// flat numeric logs. It returns the new batch id.
func (s *Store) Save(name string, report *experiment.Report) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	id, err := s.mkBatchDir(fmt.Sprintf("%s_%d", name, now.Unix()))
	if err != nil {
		return "", err
	}
	dir := s.Dir(id)

	meta := BatchMetadata{
		ID:        id,
		Name:      name,
		Timestamp: now,
		Params:    report.Params,
		State:     report.State,
		Runs:      make([]RunSummary, 0, len(report.Runs)),
	}
	for _, rr := range report.Runs {
		meta.Runs = append(meta.Runs, Summarize(rr))
	}

	if err := writeJSON(filepath.Join(dir, metadataFile), meta); err != nil {
		return "", err
	}

	for _, rr := range report.Runs {
		if err := writeRunCSV(filepath.Join(dir, runFile(rr.Index)), rr.Trajectory); err != nil {
			return "", fmt.Errorf("run %d: %w", rr.Index, err)
		}
	}

	if err := WriteLogs(dir, report); err != nil {
		return "", err
	}

	return id, nil
}

// mkBatchDir creates base, or base-2, base-3 ... if taken.
func (s *Store) mkBatchDir(base string) (string, error) {
	id := base
	for i := 2; ; i++ {
		err := os.Mkdir(s.Dir(id), 0755)
		if err == nil {
			return id, nil
		}
		if !os.IsExist(err) {
			return "", err
		}
		id = fmt.Sprintf("%s-%d", base, i)
	}
}

func runFile(index int) string {
	return fmt.Sprintf("run%d.csv", index)
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeRunCSV(path string, traj *sim.Trajectory) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	n := traj.Oscillators()
	header := []string{"time"}
	for _, prefix := range []string{"d", "v", "a"} {
		for i := 0; i < n; i++ {
			header = append(header, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, 1+3*n)
	for _, snap := range traj.Snapshots {
		row[0] = formatFloat(snap.Time)
		for i := 0; i < n; i++ {
			row[1+i] = formatFloat(snap.Displacements[i])
			row[1+n+i] = formatFloat(snap.Velocities[i])
			row[1+2*n+i] = formatFloat(snap.Accelerations[i])
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns the stored batches, oldest first. Directories without
// readable metadata are skipped.
func (s *Store) List() ([]BatchMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []BatchMetadata{}, nil
		}
		return nil, err
	}

	batches := make([]BatchMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		batches = append(batches, *meta)
	}

	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Timestamp.Before(batches[j].Timestamp)
	})
	return batches, nil
}

func (s *Store) Load(id string) (*BatchMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(id), metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	var meta BatchMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%s: %w", id, err)
	}
	return &meta, nil
}

// LoadRun reads the trajectory of run index (1-based) of batch id.
func (s *Store) LoadRun(id string, index int) (*sim.Trajectory, error) {
	meta, err := s.Load(id)
	if err != nil {
		return nil, err
	}

	var run *config.Run
	for i := range meta.Runs {
		if meta.Runs[i].Index == index {
			run = &meta.Runs[i].Run
		}
	}
	if run == nil {
		return nil, fmt.Errorf("%w: %s run %d", ErrRunMissing, id, index)
	}

	f, err := os.Open(filepath.Join(s.Dir(id), runFile(index)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, err
	}

	rec := sim.NewRecorder(run.Dt, max(len(records)-1, 0))
	if len(records) < 2 {
		return rec.Trajectory(), nil
	}

	n := (len(records[0]) - 1) / 3
	for line, record := range records[1:] {
		values := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", runFile(index), line+2, err)
			}
			values[j] = v
		}
		d, v, a := values[1:1+n], values[1+n:1+2*n], values[1+2*n:]
		rec.Record(d, v, a, values[0])
	}

	traj := rec.Trajectory()
	if meta.Params != nil {
		for i := range traj.Snapshots {
			traj.Snapshots[i].Positions = positions(traj.Snapshots[i].Displacements, meta.Params.RestLength)
		}
	}
	return traj, nil
}

// positions rebuilds absolute positions from displacements.
func positions(d dynamo.State, rest float64) dynamo.State {
	x := make(dynamo.State, len(d))
	for i := range d {
		x[i] = d[i] + float64(i)*rest
	}
	return x
}
