package main

import (
	"log/slog"

	"github.com/soundprediction/hybridrag/pkg/logger"
)

func main() {
	log := logger.NewDefaultLogger(slog.LevelDebug)

	log.Info("hybridrag colored logger demo")

	log.Debug("Debug message - standard color")
	log.Info("Info message - standard color")
	log.Info("Persisting entries to the graph - green!")
	log.Warn("Warning message - yellow!")
	log.Error("Error message - red!")

	log.Info("Graph store writes are highlighted in green:")
	log.Info("created constraints and indexes", "dimensions", 384)
	log.Info("ingested entry", "entry_id", "Mammals:Entry:Lion", "facts", 3)
	log.Info("completed ingestion", "knowledge_base", "Mammals", "entries", 12)

	log.Info("Query pipeline messages stay uncolored:")
	log.Info("processing query", "question", "What do lions eat?", "top_k", 5)
	log.Warn("relational hit at distance zero", "entry_id", "Mammals:Entry:Lion")
	log.Error("retrieval failed", "kind", "connectivity")
}
