package driver

import "fmt"

// Cypher statements for Neo4j.

const neo4jHitColumns = `
	node.id AS id,
	node.title AS title,
	node.category AS category,
	node.content AS content,
	kb.name AS knowledge_base_name`

var neo4jVectorSearchQuery = `
	CALL db.index.vector.queryNodes($index, $top_k, $query_embedding)
	YIELD node, score
	MATCH (kb:KnowledgeBase)-[:CONTAINS]->(node)
	RETURN` + neo4jHitColumns + `,
	score
	ORDER BY score DESC, id ASC
	LIMIT $top_k`

var neo4jFulltextSearchQuery = `
	CALL db.index.fulltext.queryNodes($index, $query)
	YIELD node, score
	MATCH (kb:KnowledgeBase)-[:CONTAINS]->(node)
	RETURN` + neo4jHitColumns + `,
	score
	ORDER BY score DESC, id ASC
	LIMIT $top_k`

// neo4jTraversalQuery groups paths per reachable entry so each appears once at its shortest distance.
func neo4jTraversalQuery(relTypes []string, maxDepth int) string {
	return fmt.Sprintf(`
	MATCH path = (e:Entry {id: $entry_id})-[:%s*1..%d]->(node:Entry)
	MATCH (kb:KnowledgeBase)-[:CONTAINS]->(node)
	WITH node, kb, min(length(path)) AS distance
	RETURN`+neo4jHitColumns+`,
	distance
	ORDER BY distance ASC, id ASC
	LIMIT $limit`, relPattern(relTypes), maxDepth)
}

var neo4jSchemaStatements = []string{
	"CREATE CONSTRAINT kb_name IF NOT EXISTS FOR (kb:KnowledgeBase) REQUIRE kb.name IS UNIQUE",
	"CREATE CONSTRAINT entry_id IF NOT EXISTS FOR (e:Entry) REQUIRE e.id IS UNIQUE",
	"CREATE CONSTRAINT fact_id IF NOT EXISTS FOR (f:Fact) REQUIRE f.id IS UNIQUE",
	"CREATE CONSTRAINT concept_name IF NOT EXISTS FOR (c:Concept) REQUIRE c.name IS UNIQUE",
	"CREATE INDEX entry_title IF NOT EXISTS FOR (e:Entry) ON (e.title)",
	"CREATE FULLTEXT INDEX " + EntryContentIndex + " IF NOT EXISTS FOR (e:Entry) ON EACH [e.content]",
	"CREATE FULLTEXT INDEX " + FactContentIndex + " IF NOT EXISTS FOR (f:Fact) ON EACH [f.text]",
}

func neo4jVectorIndexStatement(dims int) string {
	return fmt.Sprintf("CREATE VECTOR INDEX %s IF NOT EXISTS FOR (e:Entry) ON (e.embedding) "+
		"OPTIONS {indexConfig: {`vector.dimensions`: %d, `vector.similarity_function`: 'cosine'}}",
		EntryEmbeddingIndex, dims)
}

const neo4jUpsertKnowledgeBaseQuery = `
	MERGE (kb:KnowledgeBase {name: $name})
	SET kb.description = $description`

const neo4jUpsertEntryQuery = `
	MATCH (kb:KnowledgeBase {name: $kb_name})
	MERGE (e:Entry {id: $id})
	SET e.title = $title,
		e.category = $category,
		e.habitat = $habitat,
		e.diet = $diet,
		e.content = $content,
		e.embedding = $embedding
	MERGE (kb)-[:CONTAINS]->(e)`

const neo4jUpsertFactsQuery = `
	MATCH (e:Entry {id: $entry_id})
	UNWIND $facts AS fact
	MERGE (f:Fact {id: fact.id})
	SET f.text = fact.text
	MERGE (e)-[:HAS_FACT]->(f)`

const neo4jLinkConceptsQuery = `
	MATCH (e:Entry {id: $entry_id})
	UNWIND $concepts AS name
	MERGE (c:Concept {name: name})
	MERGE (e)-[:RELATES_TO]->(c)`

func neo4jLinkEntriesQuery(relType string) string {
	return fmt.Sprintf(`
	MATCH (a:Entry {id: $from_id}), (b:Entry {id: $to_id})
	MERGE (a)-[:%s]->(b)
	RETURN count(*) AS linked`, relType)
}

// statsQueries map a GraphStats field to a single-count statement.
var statsQueries = map[string]string{
	"knowledge_bases": "MATCH (kb:KnowledgeBase) RETURN count(kb) AS count",
	"entries":         "MATCH (e:Entry) RETURN count(e) AS count",
	"concepts":        "MATCH (c:Concept) RETURN count(c) AS count",
	"relationships":   "MATCH ()-[r]->() RETURN count(r) AS count",
}
