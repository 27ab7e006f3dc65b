package results

import (
	"fmt"
	"io"
	"os"

	"github.com/sugawarayuuta/sonnet"
)

// ExportJSON writes r as a single JSON document followed by a newline.
func ExportJSON(w io.Writer, r *Run) error {
	b, err := sonnet.Marshal(r)
	if err != nil {
		return fmt.Errorf("results: encode run: %w", err)
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("results: write run: %w", err)
	}
	return nil
}

// ExportFile writes r as JSON to path, replacing any existing file.
func ExportFile(path string, r *Run) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("results: create %s: %w", path, err)
	}
	if err := ExportJSON(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportJSON decodes a run previously written by ExportJSON.
func ImportJSON(b []byte) (*Run, error) {
	var r Run
	if err := sonnet.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("results: decode run: %w", err)
	}
	return &r, nil
}
