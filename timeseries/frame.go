package timeseries

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("column already exists")
)

// Frame is a set of named columns sharing one timestamp index.
// A Frame is never modified in place: WithColumn and DropNaN return new frames.
type Frame struct {
	index   []time.Time
	names   []string
	columns map[string][]float64
}

// NewFrame creates a frame holding a single column taken from s.
func NewFrame(s *Series) (*Frame, error) {
	if len(s.Timestamps) != len(s.Values) {
		return nil, ErrLengthMismatch
	}
	name := s.Name
	if name == "" {
		name = "value"
	}
	index := make([]time.Time, len(s.Timestamps))
	copy(index, s.Timestamps)
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	return &Frame{
		index:   index,
		names:   []string{name},
		columns: map[string][]float64{name: values},
	}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.index)
}

// Columns returns the column names in insertion order.
func (f *Frame) Columns() []string {
	out := make([]string, len(f.names))
	copy(out, f.names)
	return out
}

// Column returns a copy of the named column as a Series.
func (f *Frame) Column(name string) (*Series, error) {
	values, ok := f.columns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	s := &Series{
		Timestamps: make([]time.Time, len(f.index)),
		Values:     make([]float64, len(values)),
		Name:       name,
	}
	copy(s.Timestamps, f.index)
	copy(s.Values, values)
	return s, nil
}

// WithColumn returns a new frame with s added under name. s is aligned to the
// frame index by timestamp; rows missing from s are filled with NaN.
func (f *Frame) WithColumn(name string, s *Series) (*Frame, error) {
	if _, ok := f.columns[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
	}
	if len(s.Timestamps) != len(s.Values) {
		return nil, ErrLengthMismatch
	}

	byTime := make(map[int64]float64, len(s.Values))
	for i, ts := range s.Timestamps {
		byTime[ts.UnixNano()] = s.Values[i]
	}
	aligned := make([]float64, len(f.index))
	for i, ts := range f.index {
		v, ok := byTime[ts.UnixNano()]
		if !ok {
			v = math.NaN()
		}
		aligned[i] = v
	}

	out := f.clone()
	out.names = append(out.names, name)
	out.columns[name] = aligned
	return out, nil
}

// DropNaN returns a new frame without the rows in which any column is NaN.
func (f *Frame) DropNaN() *Frame {
	keep := make([]int, 0, len(f.index))
	for i := range f.index {
		complete := true
		for _, name := range f.names {
			if math.IsNaN(f.columns[name][i]) {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, i)
		}
	}

	out := &Frame{
		index:   make([]time.Time, len(keep)),
		names:   f.Columns(),
		columns: make(map[string][]float64, len(f.names)),
	}
	for j, i := range keep {
		out.index[j] = f.index[i]
	}
	for _, name := range f.names {
		src := f.columns[name]
		dst := make([]float64, len(keep))
		for j, i := range keep {
			dst[j] = src[i]
		}
		out.columns[name] = dst
	}
	return out
}

// ColumnCount is the number of missing values in one column.
type ColumnCount struct {
	Column  string
	Missing int
}

// MissingCounts reports the number of NaN values per column.
func (f *Frame) MissingCounts() []ColumnCount {
	out := make([]ColumnCount, 0, len(f.names))
	for _, name := range f.names {
		n := 0
		for _, v := range f.columns[name] {
			if math.IsNaN(v) {
				n++
			}
		}
		out = append(out, ColumnCount{Column: name, Missing: n})
	}
	return out
}

func (f *Frame) clone() *Frame {
	out := &Frame{
		index:   make([]time.Time, len(f.index)),
		names:   f.Columns(),
		columns: make(map[string][]float64, len(f.columns)+1),
	}
	copy(out.index, f.index)
	for name, values := range f.columns {
		c := make([]float64, len(values))
		copy(c, values)
		out.columns[name] = c
	}
	return out
}
