package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/dynamo"
	"github.com/san-kum/chainsim/internal/experiment"
	"github.com/san-kum/chainsim/internal/sim"
)

const (
	FrequencyLog = "frequencies.txt"
	WaveSpeedLog = "v_wave.txt"
)

// FramesLog is the name of the positions log of run index.
func FramesLog(index int) string {
	return fmt.Sprintf("frames%d.txt", index)
}

// WriteLogs writes the flat, tab separated logs of a batch into dir: one
// frames<N>.txt per run with the absolute positions of every frame, and one
// (analytic, estimated, relative error) line per run in frequencies.txt and
// v_wave.txt. Runs without a comparison contribute no line.
func WriteLogs(dir string, report *experiment.Report) error {
	var freq, wave [][3]string

	for _, rr := range report.Runs {
		if err := writeFrames(filepath.Join(dir, FramesLog(rr.Index)), rr.Trajectory, report.Params.RestLength); err != nil {
			return err
		}
		if rr.Frequency != nil {
			freq = append(freq, rr.Frequency.Triple())
		}
		if rr.WaveSpeed != nil {
			wave = append(wave, rr.WaveSpeed.Triple())
		}
	}

	if len(freq) > 0 {
		if err := writeLines(filepath.Join(dir, FrequencyLog), freq); err != nil {
			return err
		}
	}
	if len(wave) > 0 {
		if err := writeLines(filepath.Join(dir, WaveSpeedLog), wave); err != nil {
			return err
		}
	}
	return nil
}

func writeFrames(path string, traj *sim.Trajectory, rest float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fields := make([]string, traj.Oscillators())
	for _, snap := range traj.Snapshots {
		x := snap.Positions
		if len(x) == 0 {
			x = positions(snap.Displacements, rest)
		}
		for i, v := range x {
			fields[i] = formatFloat(v)
		}
		w.WriteString(strings.Join(fields, "\t"))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

func writeLines(path string, lines [][3]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, l := range lines {
		w.WriteString(strings.Join(l[:], "\t"))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// ReadFrames parses a frames<N>.txt log.
func ReadFrames(path string) ([]dynamo.State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	frames := make([]dynamo.State, 0)
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		if sc.Text() == "" {
			continue
		}
		fields := strings.Split(sc.Text(), "\t")
		x := make(dynamo.State, len(fields))
		for i, field := range fields {
			if x[i], err = strconv.ParseFloat(field, 64); err != nil {
				return nil, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
			}
		}
		frames = append(frames, x)
	}
	return frames, sc.Err()
}

// ReadComparisons parses frequencies.txt or v_wave.txt.
func ReadComparisons(path string) ([]analysis.Comparison, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make([]analysis.Comparison, 0)
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		if sc.Text() == "" {
			continue
		}
		fields := strings.Split(sc.Text(), "\t")
		if len(fields) != 3 {
			return nil, fmt.Errorf("%s:%d: %d fields, want 3", filepath.Base(path), line, len(fields))
		}

		vals := make([]analysis.Value, 3)
		for i, field := range fields {
			if field == "undefined" {
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: %w", filepath.Base(path), line, err)
			}
			vals[i] = analysis.Defined(v)
		}
		out = append(out, analysis.Comparison{
			Analytic:      vals[0].Or(0),
			Estimated:     vals[1],
			RelativeError: vals[2],
		})
	}
	return out, sc.Err()
}
