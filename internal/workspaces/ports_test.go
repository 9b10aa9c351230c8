package workspaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidatePort(t *testing.T) {
	assert.Equal(t, 8000, candidatePort(8000, 10, 0))
	assert.Equal(t, 8010, candidatePort(8000, 10, 1))
	assert.Equal(t, 8990, candidatePort(8000, 10, 99))
}

func TestServiceNamesStableOrder(t *testing.T) {
	cfg := PortConfig{
		Services: map[string]int{
			"redis":       6379,
			"daphne":      8000,
			"qdrant_http": 6333,
			"qdrant_grpc": 6334,
			"neo4j":       7687,
		},
	}

	expected := []string{"daphne", "neo4j", "qdrant_grpc", "qdrant_http", "redis"}
	for i := 0; i < 5; i++ {
		assert.Equal(t, expected, cfg.serviceNames())
	}
}

func TestGenerateWorkspaceID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := generateWorkspaceID()
		assert.NoError(t, err)
		assert.Len(t, id, len(workspaceIDPrefix)+workspaceIDLength)
		assert.Equal(t, workspaceIDPrefix, id[:len(workspaceIDPrefix)])
		for _, c := range id[len(workspaceIDPrefix):] {
			assert.Contains(t, idAlphabet, string(c))
		}
		seen[id] = true
	}
	// 100 draws from a 36^5 space colliding would point at broken generation.
	assert.Greater(t, len(seen), 95)
}
