package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/san-kum/chainsim/internal/analysis"
	"github.com/san-kum/chainsim/internal/storage"
)

func titleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(CurrentTheme.Primary)
}

func mutedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
}

// errorStyle colors a relative error: under 1% good, under 10% warning.
func errorStyle(v analysis.Value) lipgloss.Style {
	rel, ok := v.Get()
	switch {
	case !ok:
		return mutedStyle()
	case rel < 0.01:
		return lipgloss.NewStyle().Foreground(CurrentTheme.Good)
	case rel < 0.1:
		return lipgloss.NewStyle().Foreground(CurrentTheme.Warning)
	default:
		return lipgloss.NewStyle().Foreground(CurrentTheme.Bad)
	}
}

func formatValue(v analysis.Value) string {
	if f, ok := v.Get(); ok {
		return fmt.Sprintf("%.6g", f)
	}
	return v.String()
}

// Summary renders one table row per run. Frequency and wave speed columns
// appear only when some run carries that comparison.
func Summary(title string, runs []storage.RunSummary) string {
	var hasFreq, hasWave bool
	for _, r := range runs {
		hasFreq = hasFreq || r.Frequency != nil
		hasWave = hasWave || r.WaveSpeed != nil
	}

	headers := []string{"RUN", "FRAMES", "DT", "DRIFT"}
	if hasFreq {
		headers = append(headers, "OMEGA", "OMEGA~", "ERR", "OMEGA FFT")
	}
	if hasWave {
		headers = append(headers, "V", "V~", "ERR", "ARRIVAL")
	}

	rows := make([][]string, 0, len(runs))
	styles := make([]map[int]lipgloss.Style, 0, len(runs))
	for _, r := range runs {
		row := []string{
			fmt.Sprint(r.Index),
			fmt.Sprint(r.Frames),
			fmt.Sprintf("%g", r.Dt),
			fmt.Sprintf("%.2e", r.EnergyDrift),
		}
		st := map[int]lipgloss.Style{}

		if hasFreq {
			if c := r.Frequency; c != nil {
				st[len(row)+2] = errorStyle(c.RelativeError)
				row = append(row, fmt.Sprintf("%.6g", c.Analytic), formatValue(c.Estimated), formatValue(c.RelativeError))
			} else {
				row = append(row, "-", "-", "-")
			}
			row = append(row, formatValue(r.SpectralFrequency))
		}
		if hasWave {
			if w := r.WaveSpeed; w != nil {
				st[len(row)+2] = errorStyle(w.RelativeError)
				arrival := fmt.Sprintf("%.4g", w.ArrivalTime)
				if !w.Detected {
					arrival += "*"
				}
				row = append(row, fmt.Sprintf("%.6g", w.Analytic), formatValue(w.Estimated), formatValue(w.RelativeError), arrival)
			} else {
				row = append(row, "-", "-", "-", "-")
			}
		}

		rows = append(rows, row)
		styles = append(styles, st)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return base.Bold(true).Foreground(CurrentTheme.Primary)
			}
			if row >= 0 && row < len(styles) {
				if st, ok := styles[row][col]; ok {
					return st.Padding(0, 1)
				}
			}
			return base.Foreground(CurrentTheme.Text)
		})

	var b strings.Builder
	if title != "" {
		b.WriteString(titleStyle().Render(title))
		b.WriteByte('\n')
	}
	b.WriteString(t.String())
	if hasWave {
		b.WriteByte('\n')
		b.WriteString(mutedStyle().Render("* last oscillator never moved, final time used"))
	}
	return b.String()
}

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// SparklineChart renders values as a one-line sparkline of at most width
// cells. Each cell shows the largest value of its bucket, so the series
// maximum always reaches the top level.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	cells := min(width, len(values))
	peaks := make([]float64, cells)
	for c := range peaks {
		from, to := c*len(values)/cells, (c+1)*len(values)/cells
		peaks[c] = values[from]
		for _, v := range values[from+1 : to] {
			peaks[c] = max(peaks[c], v)
		}
	}

	lo, hi := peaks[0], peaks[0]
	for _, v := range peaks {
		lo, hi = min(lo, v), max(hi, v)
	}
	rng := hi - lo

	top := float64(len(sparkChars) - 1)
	var b strings.Builder
	for _, v := range peaks {
		idx := 0
		if rng > 0 {
			idx = int(math.Round((v - lo) / rng * top))
		}
		b.WriteRune(sparkChars[min(max(idx, 0), len(sparkChars)-1)])
	}
	return lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(b.String())
}

func KeyHint(s string) string {
	return mutedStyle().Italic(true).Render(s)
}
