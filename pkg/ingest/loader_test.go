package ingest

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/hybridrag/pkg/types"
)

const mammalsJSON = `{
  "knowledge_base": {
    "name": "Mammals",
    "description": "Land and sea mammals",
    "entries": [
      {"title": "Lion", "category": "Big cat", "habitat": "Savanna", "diet": "Carnivore",
       "facts": ["Lions live in prides.", "Lions hunt zebras."], "related_animals": ["Hyena"]},
      {"title": "Hyena", "category": "Scavenger", "facts": ["Hyenas scavenge."]}
    ]
  }
}`

const birdsYAML = `knowledge_base:
  name: Birds
  entries:
    - title: Eagle
      category: Raptor
      facts:
        - Eagles are predators.
`

func newFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, content := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o644))
	}
	return fs
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content string
		want    string
		entries int
	}{
		{name: "json", path: "/data/mammals.json", content: mammalsJSON, want: "Mammals", entries: 2},
		{name: "yaml", path: "/data/birds.yaml", content: birdsYAML, want: "Birds", entries: 1},
		{
			name:    "trailing comma is repaired",
			path:    "/data/fish.json",
			content: `{"knowledge_base": {"name": "Fish", "entries": [{"title": "Shark", "facts": ["Sharks are fish.",]},]}}`,
			want:    "Fish",
			entries: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(newFS(t, map[string]string{tt.path: tt.content}), nil)

			kb, err := loader.LoadFile(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, kb.Name)
			assert.Len(t, kb.Entries, tt.entries)
		})
	}
}

func TestLoadFileFields(t *testing.T) {
	loader := NewLoader(newFS(t, map[string]string{"/kb.json": mammalsJSON}), nil)

	kb, err := loader.LoadFile("/kb.json")
	require.NoError(t, err)
	lion := kb.Entries[0]
	assert.Equal(t, "Lion", lion.Title)
	assert.Equal(t, "Big cat", lion.Category)
	assert.Equal(t, "Savanna", lion.Habitat)
	assert.Equal(t, "Carnivore", lion.Diet)
	assert.Equal(t, []string{"Lions live in prides.", "Lions hunt zebras."}, lion.Facts)
	assert.Equal(t, []string{"Hyena"}, lion.RelatedAnimals)
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "no knowledge base", content: `{"entries": []}`, wantErr: ErrMissingKnowledgeBase},
		{name: "empty name", content: `{"knowledge_base": {"name": ""}}`, wantErr: types.ErrEmptyName},
		{name: "entry without title", content: `{"knowledge_base": {"name": "X", "entries": [{"category": "c"}]}}`, wantErr: types.ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loader := NewLoader(newFS(t, map[string]string{"/kb.json": tt.content}), nil)
			_, err := loader.LoadFile("/kb.json")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := NewLoader(afero.NewMemMapFs(), nil).LoadFile("/missing.json")
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/data/file_paths.json":  `["mammals.json", "nested/birds.yml"]`,
		"/data/mammals.json":     mammalsJSON,
		"/data/nested/birds.yml": birdsYAML,
	})
	loader := NewLoader(fs, nil)

	paths, err := loader.ReadManifest("/data/file_paths.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/mammals.json", "/data/nested/birds.yml"}, paths)

	kbs, err := loader.LoadManifest("/data/file_paths.json")
	require.NoError(t, err)
	require.Len(t, kbs, 2)
	assert.Equal(t, "Mammals", kbs[0].Name)
	assert.Equal(t, "Birds", kbs[1].Name)
}

func TestLoadManifestErrors(t *testing.T) {
	fs := newFS(t, map[string]string{
		"/empty.json":   `[]`,
		"/missing.json": `["nope.json"]`,
	})
	loader := NewLoader(fs, nil)

	_, err := loader.LoadManifest("/empty.json")
	assert.ErrorIs(t, err, ErrEmptyManifest)

	_, err = loader.LoadManifest("/missing.json")
	assert.Error(t, err)
}
