package types

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrEmptyName    = errors.New("name cannot be empty")
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrEmptyID      = errors.New("id cannot be empty")
	ErrEmptyContent = errors.New("content cannot be empty")
	ErrInvalidLimit = errors.New("limit must be positive")
)

// Relationship types created by ingestion.
const (
	RelContains  = "CONTAINS"
	RelRelatesTo = "RELATES_TO"
	RelHasFact   = "HAS_FACT"
	RelRelatedTo = "RELATED_TO"
	RelSimilarTo = "SIMILAR_TO"
)

// ExpansionRelTypes are the edges followed during relational expansion.
var ExpansionRelTypes = []string{RelSimilarTo, RelRelatesTo, RelRelatedTo}

// KnowledgeBase is a named collection of entries.
type KnowledgeBase struct {
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description,omitempty" yaml:"description"`
	Entries     []Entry `json:"entries,omitempty" yaml:"entries"`
}

// Validate checks that the knowledge base and its entries carry the required fields.
func (kb *KnowledgeBase) Validate() error {
	if strings.TrimSpace(kb.Name) == "" {
		return ErrEmptyName
	}
	for i := range kb.Entries {
		if err := kb.Entries[i].Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}

// Entry is the primary retrievable record in the graph.
type Entry struct {
	ID             string    `json:"id,omitempty" yaml:"id"`
	Title          string    `json:"title" yaml:"title"`
	Category       string    `json:"category,omitempty" yaml:"category"`
	Habitat        string    `json:"habitat,omitempty" yaml:"habitat"`
	Diet           string    `json:"diet,omitempty" yaml:"diet"`
	Content        string    `json:"content,omitempty" yaml:"content"`
	Facts          []string  `json:"facts,omitempty" yaml:"facts"`
	RelatedAnimals []string  `json:"related_animals,omitempty" yaml:"related_animals"`
	Embedding      []float32 `json:"embedding,omitempty" yaml:"-"`
}

// Validate checks if the Entry has all required fields set.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// EntryID builds the identifier of an entry within a knowledge base.
func EntryID(kbName, title string) string {
	return kbName + ":Entry:" + title
}

// FactID builds the identifier of the i-th fact of an entry.
func FactID(entryID string, i int) string {
	return fmt.Sprintf("%s:Fact:%d", entryID, i)
}

// Concept is a topical tag attached to entries during ingestion.
type Concept struct {
	Name string `json:"name"`
}

// Fact is a single statement about an entry.
type Fact struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// GraphStats holds aggregate counts over the stored graph.
type GraphStats struct {
	KnowledgeBases int64 `json:"knowledge_bases"`
	Entries        int64 `json:"entries"`
	Concepts       int64 `json:"concepts"`
	Relationships  int64 `json:"relationships"`
}
