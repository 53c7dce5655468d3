package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

func NewFileCatalog(path string) (*FileCatalog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open catalog file %s: %w", path, err)
	}
	return &FileCatalog{f: f, enc: json.NewEncoder(f)}, nil
}

// FileCatalog appends entries to a JSON lines file, one entry per line.
type FileCatalog struct {
	f   *os.File
	enc *json.Encoder
}

func (c *FileCatalog) Store(e Entry) error {
	if err := c.enc.Encode(e); err != nil {
		return fmt.Errorf("append catalog entry: %w", err)
	}
	return nil
}

func (c *FileCatalog) Close() error {
	return c.f.Close()
}
