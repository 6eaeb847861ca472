// Package hybridrag answers natural-language questions over an animal
// knowledge graph using hybrid retrieval-augmented generation.
//
// A question is answered in four steps:
//
//  1. Semantic and keyword retrieval run concurrently.
//  2. The top semantic hit seeds a one-hop relational expansion.
//  3. The three channels are fused into one ranking by weighted sum.
//  4. The ranked entries are assembled into a bounded context and sent to
//     the generation service with the question.
//
// When no channel finds anything the generation service is not called and a
// fixed not-found answer is returned.
//
// # Basic Usage
//
//	store, err := driver.NewNeo4jStore("bolt://localhost:7687", "neo4j", "password", "neo4j")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	emb, err := embedder.New(embedder.Config{Provider: embedder.ProviderEmbedEverything})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gen, err := nlp.NewOllamaClient(nlp.DefaultConfig("llama3.1:8b"))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	client, err := hybridrag.NewClient(store, emb, gen, hybridrag.DefaultConfig(), slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
//	result, err := client.Query(ctx, "What do lions eat?", nil)
//
// # Results
//
// Query returns a types.QueryResult whose Status tells callers how the query
// concluded:
//   - ok: an answer was generated from retrieved context
//   - not_found: nothing matched, the answer is the fixed not-found message
//   - degraded: retrieval worked but generation failed, the answer carries the error text
//   - failed: retrieval failed, the typed error is also returned
package hybridrag
