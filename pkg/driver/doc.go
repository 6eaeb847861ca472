// Package driver provides graph store implementations for hybridrag.
//
// This package defines the GraphStore interface consumed by the retrieval
// channels and the ingestion builder, and provides implementations for Neo4j
// and the embedded Ladybug database.
//
// # Supported Databases
//
//   - Neo4j: native vector and fulltext indexes (db.index.vector.queryNodes,
//     db.index.fulltext.queryNodes)
//   - Ladybug: embedded graph database (requires CGO); fulltext through the FTS
//     extension, vector similarity through array_cosine_similarity
//
// # Usage
//
//	store, err := driver.NewNeo4jStore(uri, username, password, "neo4j")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	hits, err := store.VectorSearch(ctx, driver.VectorQuery{
//	    Index:  driver.EntryEmbeddingIndex,
//	    TopK:   20,
//	    Vector: embedding,
//	})
//
// # Errors
//
// Failures are reported through the taxonomy in pkg/types: an unreachable
// database yields *types.ConnectivityError, a rejected statement yields
// *types.QueryError.
//
// # Type Helpers
//
// The As* and Must* helpers convert loosely typed record values returned by
// the drivers into Go types without panicking.
package driver
