package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/lindex/internal/lindemann"
)

type ExportData struct {
	Run       RunMetadata            `json:"run"`
	Particles []float64              `json:"particles"`
	Neighbors []int                  `json:"neighbors"`
	Trace     []lindemann.TracePoint `json:"trace"`
}

// Export loads a saved run into one document.
func (s *Store) Export(runID string) (*ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	values, neighbors, err := s.LoadParticles(runID)
	if err != nil {
		return nil, err
	}
	trace, err := s.LoadTrace(runID)
	if err != nil {
		return nil, err
	}
	return &ExportData{Run: *meta, Particles: values, Neighbors: neighbors, Trace: trace}, nil
}

func ExportJSON(path string, data *ExportData) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return encodeJSON(file, data)
}

func ExportJSONStdout(data *ExportData) error {
	return encodeJSON(os.Stdout, data)
}

func encodeJSON(w io.Writer, data *ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
