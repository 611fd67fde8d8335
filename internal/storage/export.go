package storage

import (
	"encoding/json"
	"io"
	"os"
)

// ExportJSON writes the metadata of batch id, indented, to path.
func (s *Store) ExportJSON(id, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := s.WriteJSON(id, f); err != nil {
		return err
	}
	return f.Close()
}

// WriteJSON writes the metadata of batch id to w.
func (s *Store) WriteJSON(id string, w io.Writer) error {
	meta, err := s.Load(id)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
