// Package types defines the core data types shared by the hybridrag packages.
//
// This package contains:
//   - Entry, KnowledgeBase, Concept and Fact: the records held by the graph store
//   - Hit: one retrieval channel's view of an entry
//   - ScoredHit: the fused, per-query record combining all channel scores
//   - QueryResult and Source: what a query returns to callers
//   - ConnectivityError, QueryError and GenerationError: the failure taxonomy
//
// # Identity
//
// Entries are identified by EntryID, built from the owning knowledge base and
// the entry title:
//
//	id := types.EntryID("Mammals", "Lion") // "Mammals:Entry:Lion"
//
// # Validation
//
// Ingestion records provide Validate() methods:
//
//	kb := &types.KnowledgeBase{Name: "Mammals"}
//	if err := kb.Validate(); err != nil {
//	    // Handle validation error
//	}
package types
