package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/eureka-sidecar/instance"
	"github.com/kbukum/eureka-sidecar/logger"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// FileSource reads instances from a JSON or YAML file.
type FileSource struct {
	path   string
	format string
	log    *logger.Logger
}

var _ Source = (*FileSource)(nil)

// NewFileSource creates a FileSource. An empty format picks by extension.
func NewFileSource(path, format string, log *logger.Logger) *FileSource {
	if format == "" {
		format = formatFor(path)
	}
	return &FileSource{path: path, format: format, log: log.WithComponent("source")}
}

// Describe returns the file path.
func (s *FileSource) Describe() string { return "file:" + s.path }

// Load reads and decodes the file. A missing or blank file loads nothing.
func (s *FileSource) Load(_ context.Context) ([]instance.ServiceInstance, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.log.Warn("instance file not found, skipping import", logger.Fields("path", s.path))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		s.log.Warn("instance file is empty, skipping import", logger.Fields("path", s.path))
		return nil, nil
	}

	list, err := decode(data, s.format)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	s.log.Debug("instance file loaded", logger.Fields("path", s.path, "count", len(list)))
	return list, nil
}

func decode(data []byte, format string) ([]instance.ServiceInstance, error) {
	var list []instance.ServiceInstance
	switch format {
	case formatYAML:
		if err := yaml.Unmarshal(data, &list); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func formatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return formatYAML
	default:
		return formatJSON
	}
}
