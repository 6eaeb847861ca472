// Package ingest loads knowledge base files and writes them into the graph store.
//
// A knowledge base file holds one knowledge base:
//
//	{"knowledge_base": {"name": "Mammals", "description": "...", "entries": [
//	    {"title": "Lion", "category": "Big cat", "habitat": "Savanna", "diet": "Carnivore",
//	     "facts": ["Lions live in prides."], "related_animals": ["Hyena"]}
//	]}}
//
// JSON and YAML files are accepted. Several files are listed in a manifest,
// a JSON array of paths relative to the manifest's directory.
//
// The Builder derives each entry's content from its facts, embeds it, tags it
// with concepts through a Tagger and stores entries, facts, concepts and the
// CONTAINS, HAS_FACT, RELATES_TO and RELATED_TO edges.
package ingest
