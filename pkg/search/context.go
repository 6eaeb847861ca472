package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// DefaultMaxContextLength bounds the assembled context in characters.
const DefaultMaxContextLength = 4000

const sourceBlockFormat = "[Source %d] Knowledge Base: %s\nEntry: %s (Category: %s)\nContent: %s\n\n"

// ContextAssembler renders ranked hits as numbered source blocks for the
// generation prompt.
type ContextAssembler struct {
	maxLength int
}

// NewContextAssembler creates an assembler; maxLength <= 0 selects DefaultMaxContextLength.
func NewContextAssembler(maxLength int) *ContextAssembler {
	if maxLength <= 0 {
		maxLength = DefaultMaxContextLength
	}
	return &ContextAssembler{maxLength: maxLength}
}

// Assemble appends one block per hit in rank order and stops before the first
// block that would take the total past the maximum length. Blocks are never
// truncated, and a later shorter block is not tried once one has been rejected.
func (a *ContextAssembler) Assemble(hits []types.ScoredHit) string {
	var b strings.Builder
	length := 0
	for i, h := range hits {
		block := FormatSource(i+1, h)
		n := utf8.RuneCountInString(block)
		if length+n > a.maxLength {
			break
		}
		b.WriteString(block)
		length += n
	}
	return b.String()
}

// FormatSource renders a single numbered source block.
func FormatSource(index int, h types.ScoredHit) string {
	return fmt.Sprintf(sourceBlockFormat, index, h.KnowledgeBaseName, h.Title, h.Category, h.Content)
}
