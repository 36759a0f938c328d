package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Axis is one named index level of a Frame. For a flat index the single
// axis carries the row values; for a hierarchical index each axis holds
// its distinct level values and rows run in row-major level order.
type Axis struct {
	Name   string
	Values []float64
}

// Frame is a numeric table indexed by one or more named axes. Columns
// are detector channels named "<detector>-<suffix>"; rows hold one value
// per column.
type Frame struct {
	Axes    []Axis
	Columns []string
	Rows    [][]float64
}

// Averaged wraps one averaged dataset as returned by the compute engine.
type Averaged struct {
	Data Frame
}

func (f Frame) Validate() error {
	if len(f.Axes) == 0 {
		return errors.New("frame requires at least one axis")
	}
	want := 1
	for _, ax := range f.Axes {
		if strings.TrimSpace(ax.Name) == "" {
			return errors.New("frame axis name is required")
		}
		want *= len(ax.Values)
	}
	if len(f.Rows) != want {
		return fmt.Errorf("frame has %d rows, axes imply %d", len(f.Rows), want)
	}
	for i, row := range f.Rows {
		if len(row) != len(f.Columns) {
			return fmt.Errorf("frame row %d has %d values, want %d", i, len(row), len(f.Columns))
		}
	}
	return nil
}

// AxisNames returns the index level names in order.
func (f Frame) AxisNames() []string {
	names := make([]string, len(f.Axes))
	for i, ax := range f.Axes {
		names[i] = ax.Name
	}
	return names
}

// Resolution is the sampling step of the first index level.
func (f Frame) Resolution() float64 {
	if len(f.Axes) == 0 || len(f.Axes[0].Values) < 2 {
		return 0
	}
	return f.Axes[0].Values[1] - f.Axes[0].Values[0]
}

// RangeString renders the covered interval of the first index level as
// "<first> <last>", the encoding stored on processed-scan rows.
func (f Frame) RangeString() string {
	if len(f.Axes) == 0 || len(f.Axes[0].Values) == 0 {
		return ""
	}
	vals := f.Axes[0].Values
	return formatFloat(vals[0]) + " " + formatFloat(vals[len(vals)-1])
}

// Detectors lists the distinct column-name prefixes (text before the
// first "-") in first-encounter order.
func (f Frame) Detectors() []string {
	var out []string
	seen := make(map[string]struct{}, len(f.Columns))
	for _, col := range f.Columns {
		prefix, _, _ := strings.Cut(col, "-")
		if _, ok := seen[prefix]; ok {
			continue
		}
		seen[prefix] = struct{}{}
		out = append(out, prefix)
	}
	return out
}

// DetectorMatrix flattens the columns belonging to one detector prefix
// into a row-major value slice, returning the matched column count.
func (f Frame) DetectorMatrix(prefix string) ([]float64, int) {
	var cols []int
	for i, col := range f.Columns {
		name, _, _ := strings.Cut(col, "-")
		if name == prefix {
			cols = append(cols, i)
		}
	}
	if len(cols) == 0 {
		return nil, 0
	}
	values := make([]float64, 0, len(f.Rows)*len(cols))
	for _, row := range f.Rows {
		for _, c := range cols {
			values = append(values, row[c])
		}
	}
	return values, len(cols)
}

// GridShape is the multi-dimensional shape implied by the axis level
// sizes plus a trailing column dimension, with degenerate (size <= 0)
// dimensions dropped.
func (f Frame) GridShape(cols int) []int {
	shape := make([]int, 0, len(f.Axes)+1)
	for _, ax := range f.Axes {
		shape = append(shape, len(ax.Values))
	}
	shape = append(shape, cols)
	out := shape[:0]
	for _, s := range shape {
		if s > 0 {
			out = append(out, s)
		}
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
