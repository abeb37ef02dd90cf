package export

import (
	"encoding/json"
	"os"
	"time"

	"github.com/coffersTech/tcmetrics/internal/model"
)

// RunManifest is the JSON sidecar written next to each CSV. It pins the
// exact inputs (with content digests) a result table was produced from.
type RunManifest struct {
	GeneratedAt string            `json:"generated_at"`
	Output      string            `json:"output"`
	Records     int               `json:"records"`
	QdiscTypes  []string          `json:"qdisc_types"`
	Inputs      []model.InputFile `json:"inputs"`
}

// NewManifest assembles a manifest for a finished table.
func NewManifest(output string, t *Table, inputs []model.InputFile) RunManifest {
	total, types := t.Summary()
	return RunManifest{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Output:      output,
		Records:     total,
		QdiscTypes:  types,
		Inputs:      inputs,
	}
}

// WriteManifest persists the manifest atomically (temp file + rename).
func WriteManifest(path string, m RunManifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
