// Package embedder provides text embedding clients for vector representations.
//
// This package defines the Client interface and provides implementations for
// a local model, OpenAI-compatible services and Ollama.
//
// # Supported Providers
//
//   - EmbedEverything: local sentence-transformer models (default all-MiniLM-L6-v2, 384 dims)
//   - OpenAI: text-embedding-3-small and any OpenAI-compatible endpoint
//   - Ollama: the /api/embed endpoint of a running Ollama server
//
// # Usage
//
//	client, err := embedder.New(embedder.Config{Provider: embedder.ProviderOllama, Model: "nomic-embed-text"})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	vec, err := client.EmbedSingle(ctx, "What do lions eat?")
//
// Every provider failure is reported as a types.ConnectivityError so the
// retrieval channels can classify it without knowing the provider.
package embedder
