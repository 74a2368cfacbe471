// Package storage records traced-body trajectories and persists runs as a
// directory holding metadata.json and trace.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/pulleysim/internal/config"
)

var ErrRunNotFound = errors.New("storage: run not found")

const (
	metadataFile = "metadata.json"
	traceFile    = "trace.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Timestamp     time.Time            `json:"timestamp"`
	Dt            float64              `json:"dt"`
	Ticks         uint64               `json:"ticks"`
	Duration      float64              `json:"duration"`
	Demonstration config.Demonstration `json:"demonstration"`
	Solver        config.Solver        `json:"solver"`
	Metrics       map[string]float64   `json:"metrics,omitempty"`
}

// Sample is one position of the traced body.
type Sample struct {
	Tick       uint64  `json:"tick"`
	Generation uint64  `json:"generation"`
	Time       float64 `json:"time"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
}

var traceHeader = []string{"tick", "generation", "time", "x", "y", "z"}

// Save writes a new run directory and returns the completed metadata. The
// ID and timestamp are assigned here.
func (s *Store) Save(meta RunMetadata, samples []Sample) (RunMetadata, error) {
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d", meta.Name, meta.Timestamp.UnixNano())
	runDir := filepath.Join(s.baseDir, meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return meta, err
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return meta, err
	}

	f, err := os.Create(filepath.Join(runDir, traceFile))
	if err != nil {
		return meta, err
	}
	defer f.Close()
	if err := WriteCSV(f, samples); err != nil {
		return meta, err
	}
	return meta, f.Close()
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV writes samples with a header row.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(traceHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatUint(smp.Tick, 10),
			strconv.FormatUint(smp.Generation, 10),
			strconv.FormatFloat(smp.Time, 'f', 6, 64),
			strconv.FormatFloat(smp.X, 'f', 6, 64),
			strconv.FormatFloat(smp.Y, 'f', 6, 64),
			strconv.FormatFloat(smp.Z, 'f', 6, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// List returns every readable run, oldest first. A missing base directory
// yields an empty list.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSamples reads the trace of a run. Rows that fail to parse are skipped.
func (s *Store) LoadSamples(runID string) ([]Sample, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []Sample{}, nil
	}

	samples := make([]Sample, 0, len(records)-1)
	for _, rec := range records[1:] {
		smp, ok := parseSample(rec)
		if !ok {
			continue
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(rec []string) (Sample, bool) {
	if len(rec) != len(traceHeader) {
		return Sample{}, false
	}
	tick, err1 := strconv.ParseUint(rec[0], 10, 64)
	gen, err2 := strconv.ParseUint(rec[1], 10, 64)
	if err := errors.Join(err1, err2); err != nil {
		return Sample{}, false
	}
	var vals [4]float64
	for i := range vals {
		v, err := strconv.ParseFloat(rec[i+2], 64)
		if err != nil {
			return Sample{}, false
		}
		vals[i] = v
	}
	return Sample{Tick: tick, Generation: gen, Time: vals[0], X: vals[1], Y: vals[2], Z: vals[3]}, true
}
