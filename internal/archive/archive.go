// Package archive persists raw provider payloads for later
// reprocessing. Documents land as plain JSON first and are compressed
// in place, so a crash mid-compress never loses the raw payload.
package archive

import (
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Archiver writes and compresses raw payloads under a base directory.
type Archiver struct {
	dir string
}

// New creates an archiver rooted at dir, creating it if needed.
func New(dir string) (*Archiver, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "archive: create dir %s", dir)
	}
	return &Archiver{dir: dir}, nil
}

// Store writes a raw payload and compresses it to name.json.gz,
// removing the intermediate file once the compressed copy is synced.
func (a *Archiver) Store(name string, payload []byte) (string, error) {
	raw := filepath.Join(a.dir, name+".json")
	if err := os.WriteFile(raw, payload, 0o644); err != nil {
		return "", eris.Wrapf(err, "archive: write %s", raw)
	}

	compressed, err := a.compress(raw)
	if err != nil {
		return "", err
	}
	if err := os.Remove(raw); err != nil {
		// The compressed copy is already durable; a leftover raw file
		// is worth a warning, not a failed ticker.
		zap.L().Warn("archive: could not remove raw payload",
			zap.String("path", raw), zap.Error(err))
	}
	return compressed, nil
}

func (a *Archiver) compress(raw string) (string, error) {
	in, err := os.Open(raw)
	if err != nil {
		return "", eris.Wrapf(err, "archive: open %s", raw)
	}
	defer in.Close()

	dst := raw + ".gz"
	out, err := os.Create(dst)
	if err != nil {
		return "", eris.Wrapf(err, "archive: create %s", dst)
	}

	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		out.Close()
		return "", eris.Wrapf(err, "archive: compress %s", raw)
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return "", eris.Wrapf(err, "archive: flush %s", dst)
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrapf(err, "archive: close %s", dst)
	}
	return dst, nil
}

// Load reads a previously archived payload back, transparently
// decompressing it.
func (a *Archiver) Load(name string) ([]byte, error) {
	path := filepath.Join(a.dir, name+".json.gz")
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: open %s", path)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: gzip reader %s", path)
	}
	defer gz.Close()

	payload, err := io.ReadAll(gz)
	if err != nil {
		return nil, eris.Wrapf(err, "archive: read %s", path)
	}
	return payload, nil
}
