package timeseries

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrNoCSVData = errors.New("no data rows in CSV")

// ReadCSV reads a two column timestamp,value table with a header row. The
// value column header becomes the series name. Timestamps may be RFC 3339,
// "2006-01-02 15:04:05", "2006-01-02" or Unix milliseconds. Empty, "NaN" and
// "null" values are kept as NaN.
func ReadCSV(r io.Reader) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoCSVData
	}
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}
	name := strings.TrimSpace(header[1])

	var timestamps []time.Time
	var values []float64
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}

		ts, err := parseTimestamp(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		v, err := parseValue(strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}
		timestamps = append(timestamps, ts)
		values = append(values, v)
	}

	if len(values) == 0 {
		return nil, ErrNoCSVData
	}
	return NewWithTimestamps(name, timestamps, values)
}

// LoadCSV reads a series from the named file.
func LoadCSV(filename string) (*Series, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s, nil
}

// WriteCSV writes the series as a timestamp,value table readable by ReadCSV.
func WriteCSV(w io.Writer, s *Series) error {
	if len(s.Timestamps) != len(s.Values) {
		return ErrLengthMismatch
	}
	name := s.Name
	if name == "" {
		name = "value"
	}

	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"timestamp", name}); err != nil {
		return err
	}
	for i, v := range s.Values {
		record := []string{
			s.Timestamps[i].Format(time.RFC3339),
			strconv.FormatFloat(v, 'f', -1, 64),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// SaveCSV writes the series to the named file.
func SaveCSV(s *Series, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	if err := WriteCSV(file, s); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

var timestampFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampFormats {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}

func parseValue(s string) (float64, error) {
	switch s {
	case "", "NaN", "NA", "null":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return v, nil
}
