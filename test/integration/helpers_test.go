//go:build integration

package integration

import (
	"context"
	"os"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/driver"
	"github.com/agenthands/archetypes/internal/logging"
	"github.com/agenthands/archetypes/internal/store"
)

// openStore connects to the Memgraph named by MEMGRAPH_URI and removes
// every node tagged with prefix when the test ends.
func openStore(t *testing.T, prefix string) (*store.GraphStore, *driver.MemgraphDriver) {
	t.Helper()
	_ = godotenv.Load("../../.env")

	uri := os.Getenv("MEMGRAPH_URI")
	if uri == "" {
		t.Skip("Skipping integration test: MEMGRAPH_URI not set")
	}

	ctx := context.Background()
	d, err := driver.NewMemgraphDriver(ctx, uri, os.Getenv("MEMGRAPH_USER"), os.Getenv("MEMGRAPH_PASSWORD"), logging.Discard())
	require.NoError(t, err)

	st := store.NewGraphStore(d)
	require.NoError(t, st.BuildIndices(ctx))

	t.Cleanup(func() {
		_, _ = d.ExecuteQuery(context.Background(),
			"MATCH (n) WHERE n.id STARTS WITH $prefix DETACH DELETE n",
			map[string]any{"prefix": prefix})
		_ = d.Close(context.Background())
	})
	return st, d
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.ApplyEnv()
	cfg.Clustering.Seed = 7
	cfg.Clustering.MinClusterSize = 2
	cfg.Identification.MinClusterSize = 3
	cfg.Log.Level = "debug"
	return cfg
}
