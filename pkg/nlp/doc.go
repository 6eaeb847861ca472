// Package nlp provides the answer generation clients.
//
// This package defines the Client interface and implementations for the
// supported generation backends:
//   - Ollama: local models through the Ollama chat API (the default)
//   - OpenAI: OpenAI and OpenAI-compatible chat completion APIs
//   - RustBert: in-process text generation, no network service required
//
// # Client Wrappers
//
// New applies optional wrappers from configuration:
//   - RetryClient: retries transient failures with exponential backoff
//   - CircuitBreakerClient: fails fast while the backend keeps failing
//   - TokenTrackingClient: records token usage to parquet files
//
// # Usage
//
//	client, err := nlp.New(cfg, logger)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	resp, err := client.Chat(ctx, []types.Message{
//		nlp.NewSystemMessage(prompts.AnswerSystemPrompt),
//		nlp.NewUserMessage(userPrompt),
//	})
//
// # Error Handling
//
// Backend failures are returned as *types.GenerationError naming the
// provider, so the caller can render "Error communicating with <provider>"
// answers. Rate limits additionally wrap a RateLimitError.
package nlp
