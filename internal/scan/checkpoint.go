package scan

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"
)

// Checkpoint records where a run's output lives. Its presence on disk
// means a run is incomplete; deleting it is the terminal signal of a
// successful run.
type Checkpoint struct {
	OutputPath string `json:"output_path"`
}

// WriteCheckpoint persists the checkpoint atomically via rename.
func WriteCheckpoint(path string, cp Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return eris.Wrap(err, "scan: marshal checkpoint")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return eris.Wrapf(err, "scan: write checkpoint %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrapf(err, "scan: rename checkpoint %s", path)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint file. A missing file returns
// (nil, nil): that is a fresh start, not an error.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "scan: read checkpoint %s", path)
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, eris.Wrapf(err, "scan: parse checkpoint %s", path)
	}
	return &cp, nil
}

// RemoveCheckpoint deletes the checkpoint file. Missing is fine.
func RemoveCheckpoint(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "scan: remove checkpoint %s", path)
	}
	return nil
}

// CompletedTickers reads the ticker column of an existing output file.
// The returned set is the resume exclusion list. A missing output
// means nothing was written and the run starts over.
func CompletedTickers(outputPath string) (map[string]bool, error) {
	f, err := os.Open(outputPath)
	if os.IsNotExist(err) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "scan: open output %s", outputPath)
	}
	defer f.Close()

	r := csv.NewReader(f)
	done := make(map[string]bool)
	header := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "scan: read output %s", outputPath)
		}
		if header {
			header = false
			continue
		}
		if len(row) > 0 && row[0] != "" {
			done[row[0]] = true
		}
	}
	return done, nil
}
