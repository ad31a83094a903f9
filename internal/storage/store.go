// Package storage keeps finished runs on disk, one directory per run with a
// metadata.json and, for tracked runs, a steps.csv.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/leptrans/internal/metrics"
)

var ErrNotFound = errors.New("storage: run not found")

var stepsHeader = []string{"step", "medium", "x", "y", "z", "kinetic", "distance", "time", "weight", "bound"}

type Store struct {
	baseDir string
	logger  *slog.Logger
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, logger: slog.Default()}
}

// WithLogger sets the logger used to report skipped or saved runs.
func (s *Store) WithLogger(l *slog.Logger) *Store {
	if l != nil {
		s.logger = l
	}
	return s
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	Species   string             `json:"species"`
	Scheme    string             `json:"scheme"`
	Mode      string             `json:"mode"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      uint64             `json:"seed"`
	Events    int                `json:"events"`
	Params    map[string]float64 `json:"params,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Save writes a run and returns its id. Steps may be empty for ensemble
// runs, in which case no steps.csv is written.
func (s *Store) Save(meta RunMetadata, steps []metrics.Point) (string, error) {
	now := time.Now()
	if meta.Kind == "" {
		meta.Kind = "run"
	}
	meta.Timestamp = now
	if meta.Metrics == nil {
		meta.Metrics = map[string]float64{}
	}
	if err := s.Init(); err != nil {
		return "", err
	}
	var runDir string
	for stamp := now.UnixNano(); ; stamp++ {
		meta.ID = fmt.Sprintf("%s_%d", meta.Kind, stamp)
		runDir = filepath.Join(s.baseDir, meta.ID)
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}

	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	if len(steps) > 0 {
		if err := writeSteps(filepath.Join(runDir, "steps.csv"), steps); err != nil {
			return "", err
		}
	}
	s.logger.Debug("run saved", "id", meta.ID, "steps", len(steps))
	return meta.ID, nil
}

func writeSteps(path string, steps []metrics.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(stepsHeader); err != nil {
		return err
	}
	for _, p := range steps {
		row := []string{
			strconv.Itoa(p.Step),
			p.Medium,
			formatFloat(p.X),
			formatFloat(p.Y),
			formatFloat(p.Z),
			formatFloat(p.Kinetic),
			formatFloat(p.Distance),
			formatFloat(p.Time),
			formatFloat(p.Weight),
			p.Bound,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the stored runs, newest first. Directories without a
// readable metadata.json are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Warn("skipping run", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].Timestamp.Equal(runs[j].Timestamp) {
			return runs[i].Timestamp.After(runs[j].Timestamp)
		}
		return runs[i].ID > runs[j].ID
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSteps reads back the trajectory of a run. Runs saved without steps
// give an empty slice.
func (s *Store) LoadSteps(runID string) ([]metrics.Point, error) {
	if _, err := s.Load(runID); err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.baseDir, runID, "steps.csv"))
	if err != nil {
		if os.IsNotExist(err) {
			return []metrics.Point{}, nil
		}
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(stepsHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	if len(records) < 2 {
		return []metrics.Point{}, nil
	}

	points := make([]metrics.Point, 0, len(records)-1)
	for i, record := range records[1:] {
		p, err := parsePoint(record)
		if err != nil {
			return nil, fmt.Errorf("storage: %s: row %d: %w", runID, i+1, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func parsePoint(record []string) (metrics.Point, error) {
	var p metrics.Point
	step, err := strconv.Atoi(record[0])
	if err != nil {
		return p, err
	}
	p.Step = step
	p.Medium = record[1]
	p.Bound = record[9]
	fields := []*float64{&p.X, &p.Y, &p.Z, &p.Kinetic, &p.Distance, &p.Time, &p.Weight}
	for i, dst := range fields {
		v, err := strconv.ParseFloat(record[i+2], 64)
		if err != nil {
			return p, err
		}
		*dst = v
	}
	return p, nil
}
