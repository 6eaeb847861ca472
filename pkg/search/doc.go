// Package search implements hybrid retrieval over the knowledge graph.
//
// Three channels surface candidate entries independently:
//   - SemanticChannel: vector similarity of the embedded query against entry embeddings
//   - KeywordChannel: full-text relevance against entry content
//   - RelationalChannel: bounded traversal from a seed entry, scored 1/distance
//
// Each implements Channel. Fusion merges any set of named channel results into
// one ScoredHit per entry, combined as a weighted sum of per-channel scores,
// ordered by combined score descending and entry ID ascending.
//
// # Usage
//
//	semantic := search.NewSemanticChannel(store, emb, 30*time.Second)
//	hits, err := semantic.Search(ctx, search.ChannelQuery{Text: "What do lions eat?", TopK: 20})
//
//	fusion := search.NewFusion(search.DefaultWeights())
//	ranked := fusion.Fuse([]search.ChannelResult{{Channel: types.ChannelSemantic, Hits: hits}}, 5)
//
//	context := search.NewContextAssembler(search.DefaultMaxContextLength).Assemble(ranked)
//
// # Normalization
//
// Channel scores live on different scales: cosine similarity is bounded while
// full-text relevance is not. Fusion weights raw scores by default
// (NoopNormalizer). MinMaxNormalizer rescales each channel into [0, 1] over the
// current result set before weighting, which changes the ranking.
package search
