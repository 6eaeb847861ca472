package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kaptinlin/jsonrepair"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// DefaultManifest is the manifest file name looked up in the data directory.
const DefaultManifest = "file_paths.json"

var (
	ErrEmptyManifest        = errors.New("manifest lists no files")
	ErrMissingKnowledgeBase = errors.New("file has no knowledge_base object")
)

// document is the top-level shape of a knowledge base file.
type document struct {
	KnowledgeBase *types.KnowledgeBase `json:"knowledge_base" yaml:"knowledge_base"`
}

// Loader reads knowledge base files from a filesystem.
type Loader struct {
	fs     afero.Fs
	logger *slog.Logger
}

// NewLoader creates a loader over fs. A nil fs selects the OS filesystem.
func NewLoader(fs afero.Fs, logger *slog.Logger) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{fs: fs, logger: logger}
}

// ReadManifest returns the file paths listed in a manifest, resolved against
// the manifest's directory.
func (l *Loader) ReadManifest(path string) ([]string, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var paths []string
	if err := l.decodeJSON(path, data, &paths); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if len(paths) == 0 {
		return nil, ErrEmptyManifest
	}

	base := filepath.Dir(path)
	for i, p := range paths {
		if !filepath.IsAbs(p) {
			paths[i] = filepath.Join(base, p)
		}
	}
	return paths, nil
}

// LoadFile reads and validates a single knowledge base file.
func (l *Loader) LoadFile(path string) (*types.KnowledgeBase, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	default:
		err = l.decodeJSON(path, data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.KnowledgeBase == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingKnowledgeBase)
	}
	if err := doc.KnowledgeBase.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc.KnowledgeBase, nil
}

// LoadManifest loads every file listed in a manifest, in manifest order.
func (l *Loader) LoadManifest(path string) ([]*types.KnowledgeBase, error) {
	paths, err := l.ReadManifest(path)
	if err != nil {
		return nil, err
	}
	kbs := make([]*types.KnowledgeBase, 0, len(paths))
	for _, p := range paths {
		kb, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		kbs = append(kbs, kb)
	}
	return kbs, nil
}

// decodeJSON unmarshals data, repairing it first when it is not valid JSON.
func (l *Loader) decodeJSON(path string, data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	var syntaxErr *json.SyntaxError
	if !errors.As(err, &syntaxErr) {
		return err
	}

	repaired, repairErr := jsonrepair.JSONRepair(string(data))
	if repairErr != nil {
		return fmt.Errorf("%w (repair failed: %v)", err, repairErr)
	}
	l.logger.Warn("repaired malformed JSON", "path", path, "offset", syntaxErr.Offset)
	return json.Unmarshal([]byte(repaired), v)
}
