package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/leptrans/internal/metrics"
)

type ExportData struct {
	Run   RunMetadata     `json:"run"`
	Steps int             `json:"steps"`
	Track []metrics.Point `json:"track"`
}

// ExportJSON writes a run and its trajectory as a single json document.
func ExportJSON(w io.Writer, meta RunMetadata, track []metrics.Point) error {
	if track == nil {
		track = []metrics.Point{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Run: meta, Steps: len(track), Track: track})
}

func ExportFile(path string, meta RunMetadata, track []metrics.Point) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, meta, track)
}
