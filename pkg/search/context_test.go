package search

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/soundprediction/hybridrag/pkg/types"
	"github.com/stretchr/testify/assert"
)

func scored(title, content string) types.ScoredHit {
	return types.ScoredHit{ID: "kb:Entry:" + title, Title: title, Category: "Big cat", Content: content, KnowledgeBaseName: "Mammals"}
}

func TestAssembleFormat(t *testing.T) {
	got := NewContextAssembler(0).Assemble([]types.ScoredHit{
		scored("Lion", "Lions live in prides."),
		scored("Hyena", "Hyenas scavenge."),
	})

	want := "[Source 1] Knowledge Base: Mammals\nEntry: Lion (Category: Big cat)\nContent: Lions live in prides.\n\n" +
		"[Source 2] Knowledge Base: Mammals\nEntry: Hyena (Category: Big cat)\nContent: Hyenas scavenge.\n\n"
	assert.Equal(t, want, got)
}

func TestAssembleEmpty(t *testing.T) {
	assert.Equal(t, "", NewContextAssembler(100).Assemble(nil))
}

func TestAssembleStopsBeforeOverflow(t *testing.T) {
	first := scored("A", strings.Repeat("a", 40))
	big := scored("B", strings.Repeat("b", 500))
	small := scored("C", "c")

	blockLen := utf8.RuneCountInString(FormatSource(1, first))
	got := NewContextAssembler(blockLen + 100).Assemble([]types.ScoredHit{first, big, small})

	assert.Equal(t, FormatSource(1, first), got, "assembly stops at the first block that does not fit")
}

func TestAssembleFirstBlockTooLarge(t *testing.T) {
	got := NewContextAssembler(10).Assemble([]types.ScoredHit{scored("Lion", "long content")})
	assert.Equal(t, "", got)
}

func TestAssembleNeverExceedsMaxLength(t *testing.T) {
	var hits []types.ScoredHit
	for i := 0; i < 50; i++ {
		hits = append(hits, scored("Entry", strings.Repeat("ü", i*7)))
	}

	for _, maxLen := range []int{1, 50, 120, 400, 4000} {
		got := NewContextAssembler(maxLen).Assemble(hits)
		assert.LessOrEqual(t, utf8.RuneCountInString(got), maxLen)
		if got != "" {
			assert.True(t, strings.HasSuffix(got, "\n\n"), "no partial blocks")
		}
	}
}
