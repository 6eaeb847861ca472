package driver

import (
	"fmt"
	"log/slog"

	"github.com/soundprediction/hybridrag/pkg/config"
)

// New opens the graph store selected by cfg.Driver. For ladybug, cfg.URI is
// the database path.
func New(cfg config.DatabaseConfig, logger *slog.Logger) (GraphStore, error) {
	switch GraphProvider(cfg.Driver) {
	case GraphProviderNeo4j, "":
		store, err := NewNeo4jStore(cfg.URI, cfg.Username, cfg.Password, cfg.Database)
		if err != nil {
			return nil, err
		}
		return store, nil
	case GraphProviderLadybug:
		lbCfg := DefaultLadybugConfig()
		if cfg.URI != "" {
			lbCfg.DBPath = cfg.URI
		}
		store, err := NewLadybugStore(lbCfg, logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
