// Package prompts builds the messages sent to the generation service.
package prompts

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/soundprediction/hybridrag/pkg/types"
)

// AnswerSystemPrompt instructs the model to answer from retrieved context only.
const AnswerSystemPrompt = `You are an AI assistant providing information about animals.
Your role is to provide accurate, helpful information based on the provided context.

Guidelines:
1. Answer questions based ONLY on the provided context.
2. Cite specific entries and categories when providing information.
3. If the context doesn't contain enough information, clearly state that.
4. Use clear, simple language.
5. Be precise and avoid speculation.

Format your responses clearly with:
- Direct answer to the question
- Relevant entry/category references
- Plain language explanation
- Any important caveats or limitations`

// NotFoundAnswer is returned without calling the generation service when no
// channel produced a hit.
const NotFoundAnswer = "I couldn't find relevant information in the knowledge base for your question. Please rephrase or ask about specific animal topics."

// AnswerUserPrompt renders the question and assembled context.
func AnswerUserPrompt(question, context string) string {
	return fmt.Sprintf(`Question: %s

Knowledge Base Context:
%s

Please provide a comprehensive answer based on the above knowledge base context.`, question, context)
}

// Answer returns the system and user messages for a grounded answer.
// Backends without a chat format join them with a blank line.
func Answer(question, context string, logger *slog.Logger) []types.Message {
	sysPrompt := AnswerSystemPrompt
	userPrompt := AnswerUserPrompt(question, context)
	logPrompts(logger, sysPrompt, userPrompt)
	return []types.Message{
		{Role: "system", Content: sysPrompt},
		{Role: "user", Content: userPrompt},
	}
}

// logPrompts writes prompts at debug level when DEBUG_LLM_PROMPTS=true.
func logPrompts(logger *slog.Logger, sysPrompt, userPrompt string) {
	if logger == nil || os.Getenv("DEBUG_LLM_PROMPTS") != "true" {
		return
	}
	logger.Debug("generated prompts", "system", sysPrompt, "user", userPrompt)
}
