package storage

import (
	"encoding/json"
	"io"
)

type ExportData struct {
	RunMetadata
	Samples []Sample `json:"samples"`
}

// ExportJSON writes a run and its samples as one indented JSON document.
func ExportJSON(w io.Writer, meta RunMetadata, samples []Sample) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{RunMetadata: meta, Samples: samples})
}
