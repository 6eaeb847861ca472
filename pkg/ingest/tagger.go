package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/soundprediction/go-gline-rs/pkg/gline"
)

// DefaultKeywords are the concept vocabulary used when none is configured.
var DefaultKeywords = []string{
	"mammal", "bird", "fish", "reptile", "amphibian", "carnivore", "herbivore", "omnivore",
	"savanna", "ocean", "forest", "desert", "arctic", "habitat", "diet", "species",
	"pride", "flock", "school", "pack", "herd", "colony", "group", "social",
	"echolocation", "migration", "camouflage", "predator", "prey", "extinct", "endangered",
}

// DefaultGlinerThreshold is the minimum span probability accepted by GlinerTagger.
const DefaultGlinerThreshold = 0.5

// Tagger extracts concept names from entry content.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]string, error)
}

// KeywordTagger reports every keyword occurring in the text, case-insensitively.
type KeywordTagger struct {
	keywords []string
}

// NewKeywordTagger creates a tagger over keywords, or DefaultKeywords when empty.
func NewKeywordTagger(keywords []string) *KeywordTagger {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	lower := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			lower = append(lower, k)
		}
	}
	return &KeywordTagger{keywords: lower}
}

// Tag returns the matched keywords sorted and without duplicates.
func (t *KeywordTagger) Tag(ctx context.Context, text string) ([]string, error) {
	text = strings.ToLower(text)
	seen := make(map[string]struct{})
	for _, k := range t.keywords {
		if strings.Contains(text, k) {
			seen[k] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// span is a labelled text span with its probability.
type span struct {
	Label       string
	Probability float32
}

// spanPredictor is the part of a span model used for tagging.
type spanPredictor interface {
	Predict(text string, labels []string) ([]span, error)
	Close()
}

// glineModel adapts a gline span model to spanPredictor.
type glineModel struct {
	m *gline.Model
}

func (g glineModel) Predict(text string, labels []string) ([]span, error) {
	results, err := g.m.Predict([]string{text}, labels)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	spans := make([]span, 0, len(results[0]))
	for _, e := range results[0] {
		spans = append(spans, span{Label: e.Label, Probability: e.Probability})
	}
	return spans, nil
}

func (g glineModel) Close() { g.m.Close() }

// GlinerTagger tags entries with a zero-shot span model. Each keyword is a
// label; a label is reported when any span receives it with enough probability.
type GlinerTagger struct {
	model     spanPredictor
	labels    []string
	threshold float32
	mu        sync.Mutex
}

// NewGlinerTagger loads a span model from a local directory holding
// model.onnx and tokenizer.json, or from a Hugging Face model id.
func NewGlinerTagger(modelID string, labels []string, threshold float32) (*GlinerTagger, error) {
	if err := gline.Init(); err != nil {
		return nil, fmt.Errorf("failed to init gline: %w", err)
	}

	var (
		model *gline.Model
		err   error
	)
	if _, statErr := os.Stat(modelID); statErr == nil {
		model, err = gline.NewSpanModel(filepath.Join(modelID, "model.onnx"), filepath.Join(modelID, "tokenizer.json"))
	} else {
		model, err = gline.NewSpanModelFromHF(modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("load gliner model %s: %w", modelID, err)
	}
	return newGlinerTagger(glineModel{m: model}, labels, threshold), nil
}

func newGlinerTagger(model spanPredictor, labels []string, threshold float32) *GlinerTagger {
	if len(labels) == 0 {
		labels = DefaultKeywords
	}
	if threshold <= 0 {
		threshold = DefaultGlinerThreshold
	}
	return &GlinerTagger{model: model, labels: labels, threshold: threshold}
}

// Tag returns the labels predicted for text, sorted and without duplicates.
func (t *GlinerTagger) Tag(ctx context.Context, text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return []string{}, nil
	}

	t.mu.Lock()
	if t.model == nil {
		t.mu.Unlock()
		return nil, fmt.Errorf("gliner model closed")
	}
	spans, err := t.model.Predict(text, t.labels)
	t.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("gliner predict: %w", err)
	}

	seen := make(map[string]struct{})
	for _, e := range spans {
		if e.Probability >= t.threshold {
			seen[strings.ToLower(e.Label)] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// Close releases the model.
func (t *GlinerTagger) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.model != nil {
		t.model.Close()
		t.model = nil
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
