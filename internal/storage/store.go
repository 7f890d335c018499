package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/lindex/internal/config"
	"github.com/san-kum/lindex/internal/lindemann"
)

const (
	metadataFile  = "metadata.json"
	particlesFile = "particles.csv"
	traceFile     = "trace.csv"
	catalogFile   = "runs.db"
)

type Store struct {
	baseDir string
	catalog *Catalog
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// Init creates the data directory and opens the run catalog.
func (s *Store) Init() error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return err
	}
	cat, err := OpenCatalog(filepath.Join(s.baseDir, catalogFile))
	if err != nil {
		return err
	}
	s.catalog = cat
	return nil
}

func (s *Store) Close() error {
	if s.catalog == nil {
		return nil
	}
	return s.catalog.Close()
}

type RunMetadata struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Timestamp time.Time      `json:"timestamp"`
	Config    *config.Config `json:"config"`
	Workers   int            `json:"workers"`
	Particles int            `json:"particles"`
	Frames    int            `json:"frames"`
	Pairs     int            `json:"pairs"`
	Valid     int            `json:"valid"`
	Ensemble  float64        `json:"ensemble"`
	Elapsed   time.Duration  `json:"elapsed_ns"`
}

// Save writes a run directory holding the metadata, the per-particle
// result and the ensemble trace, and records the run in the catalog.
// meta.ID and meta.Timestamp are filled in.
func (s *Store) Save(meta RunMetadata, res lindemann.Result, trace []lindemann.TracePoint) (string, error) {
	meta.ID = fmt.Sprintf("%s_%s", meta.Name, uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Particles = len(res.Particles)
	meta.Frames = res.Frames
	meta.Pairs = res.Pairs
	meta.Valid = res.Valid
	meta.Ensemble = res.Ensemble

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	rows := [][]string{{"particle", "lindemann", "neighbors"}}
	for i, v := range res.Particles {
		rows = append(rows, []string{strconv.Itoa(i), formatFloat(v), strconv.Itoa(res.Neighbors[i])})
	}
	if err := writeCSV(filepath.Join(runDir, particlesFile), rows); err != nil {
		return "", err
	}

	rows = [][]string{{"frame", "ensemble", "valid", "pairs"}}
	for _, p := range trace {
		rows = append(rows, []string{strconv.Itoa(p.Frame), formatFloat(p.Ensemble), strconv.Itoa(p.Valid), strconv.Itoa(p.Pairs)})
	}
	if err := writeCSV(filepath.Join(runDir, traceFile), rows); err != nil {
		return "", err
	}

	if s.catalog != nil {
		if err := s.catalog.Record(meta); err != nil {
			return "", fmt.Errorf("catalog: %w", err)
		}
	}

	return meta.ID, nil
}

// List returns catalogued runs, newest first. Without a catalog the run
// directories are scanned instead.
func (s *Store) List() ([]RunMetadata, error) {
	if s.catalog != nil {
		return s.catalog.List()
	}
	return s.scan()
}

// Reindex rebuilds the catalog from the run directories on disk.
func (s *Store) Reindex() (int, error) {
	if s.catalog == nil {
		return 0, fmt.Errorf("store not initialised")
	}
	runs, err := s.scan()
	if err != nil {
		return 0, err
	}
	for _, meta := range runs {
		if err := s.catalog.Record(meta); err != nil {
			return 0, err
		}
	}
	return len(runs), nil
}

func (s *Store) scan() ([]RunMetadata, error) {
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
			continue
		}

		runs = append(runs, *meta)
	}

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadParticles reads back the per-particle index and neighbor counts.
func (s *Store) LoadParticles(runID string) ([]float64, []int, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, particlesFile))
	if err != nil {
		return nil, nil, err
	}

	values := make([]float64, 0, len(records))
	neighbors := make([]int, 0, len(records))
	for _, record := range records {
		if len(record) < 3 {
			continue
		}
		v, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("particles.csv: %w", err)
		}
		k, err := strconv.Atoi(record[2])
		if err != nil {
			return nil, nil, fmt.Errorf("particles.csv: %w", err)
		}
		values = append(values, v)
		neighbors = append(neighbors, k)
	}

	return values, neighbors, nil
}

// LoadTrace reads back the ensemble trace.
func (s *Store) LoadTrace(runID string) ([]lindemann.TracePoint, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, traceFile))
	if err != nil {
		return nil, err
	}

	points := make([]lindemann.TracePoint, 0, len(records))
	for _, record := range records {
		if len(record) < 4 {
			continue
		}
		var p lindemann.TracePoint
		if p.Frame, err = strconv.Atoi(record[0]); err != nil {
			return nil, fmt.Errorf("trace.csv: %w", err)
		}
		if p.Ensemble, err = strconv.ParseFloat(record[1], 64); err != nil {
			return nil, fmt.Errorf("trace.csv: %w", err)
		}
		if p.Valid, err = strconv.Atoi(record[2]); err != nil {
			return nil, fmt.Errorf("trace.csv: %w", err)
		}
		if p.Pairs, err = strconv.Atoi(record[3]); err != nil {
			return nil, fmt.Errorf("trace.csv: %w", err)
		}
		points = append(points, p)
	}

	return points, nil
}

// Delete removes a run directory and its catalog entry.
func (s *Store) Delete(runID string) error {
	if runID == "" || runID == "." || runID == ".." || filepath.Base(runID) != runID {
		return fmt.Errorf("invalid run id: %q", runID)
	}
	dir := s.RunDir(runID)
	if _, err := os.Stat(filepath.Join(dir, metadataFile)); err != nil {
		return fmt.Errorf("run %s: %w", runID, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if s.catalog != nil {
		return s.catalog.Delete(runID)
	}
	return nil
}

// RunDir is the directory holding a run's files.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
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

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	return f.Sync()
}

// readCSV returns every record after the header.
func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
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
		return [][]string{}, nil
	}
	return records[1:], nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
