package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

const (
	// GraphFileName is the project graph snapshot inside the storage directory.
	GraphFileName = "dependency-graph.json"
	// GraphVersion is the snapshot format written by Save.
	GraphVersion = "1.0"
)

// ErrGraphVersion is returned when a stored snapshot has a format Load cannot read.
var ErrGraphVersion = errors.New("unsupported graph snapshot version")

// Storage reads and writes the project graph snapshot.
type Storage interface {
	// Load returns nil, nil when nothing has been saved yet.
	Load() (*GraphData, error)

	// Save stamps the metadata and replaces the snapshot atomically.
	Save(data *GraphData) error

	Exists() bool
}

type fileStorage struct {
	file string
}

// NewStorage returns a Storage keeping its snapshot in dir, creating dir if needed.
func NewStorage(dir string) (Storage, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create graph directory: %w", err)
	}
	return &fileStorage{file: filepath.Join(dir, GraphFileName)}, nil
}

func (s *fileStorage) Load() (*GraphData, error) {
	raw, err := os.ReadFile(s.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.file, err)
	}

	data := &GraphData{}
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", s.file, err)
	}
	if v := data.Metadata.Version; v != "" && v != GraphVersion {
		return nil, fmt.Errorf("%w: %s", ErrGraphVersion, v)
	}
	return data, nil
}

func (s *fileStorage) Save(data *GraphData) error {
	data.Metadata.Version = GraphVersion
	data.Metadata.GeneratedAt = time.Now()
	data.Metadata.NodeCount = len(data.Nodes)
	data.Metadata.EdgeCount = len(data.Edges)

	tmp, err := os.CreateTemp(filepath.Dir(s.file), GraphFileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to encode graph snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.file); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.file, err)
	}
	return nil
}

func (s *fileStorage) Exists() bool {
	_, err := os.Stat(s.file)
	return err == nil
}
