// Package cli — status_test.go covers the pure aggregation helpers used
// by the status command. They run without a Docker daemon.
package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/berth/internal/model"
	"github.com/mmr-tortoise/berth/internal/stackgen"
)

// TestMergeExpected verifies that every manifest service appears in the
// report even when no container exists for it, and that extra labeled
// containers are still listed.
func TestMergeExpected(t *testing.T) {
	m := stackgen.DefaultManifest()

	t.Run("empty daemon reports all services absent", func(t *testing.T) {
		statuses := mergeExpected(m, nil)

		require.Len(t, statuses, 3)
		for _, st := range statuses {
			assert.Equal(t, "absent", st.State)
		}
		assert.Equal(t, stackgen.ServiceApp, statuses[0].Service)
		assert.Equal(t, stackgen.ServiceDB, statuses[1].Service)
		assert.Equal(t, stackgen.ServiceCache, statuses[2].Service)
	})

	t.Run("found containers overlay their declared slot", func(t *testing.T) {
		found := []model.ServiceInfo{
			{Service: stackgen.ServiceDB, ContainerName: "stack-db-1", State: "running", Health: "healthy"},
		}

		statuses := mergeExpected(m, found)

		require.Len(t, statuses, 3)
		assert.Equal(t, "absent", statuses[0].State)
		assert.Equal(t, "running", statuses[1].State)
		assert.Equal(t, "stack-db-1", statuses[1].ContainerName)
		assert.Equal(t, "absent", statuses[2].State)
	})

	t.Run("unexpected labeled containers are appended", func(t *testing.T) {
		found := []model.ServiceInfo{
			{Service: "worker", ContainerName: "stack-worker-1", State: "running"},
		}

		statuses := mergeExpected(m, found)

		require.Len(t, statuses, 4)
		assert.Equal(t, "worker", statuses[3].Service)
		assert.Equal(t, "running", statuses[3].State)
	})
}

// TestServicePort verifies the manifest lookup behind the --probe flag.
func TestServicePort(t *testing.T) {
	m := stackgen.DefaultManifest()

	assert.Equal(t, 3000, servicePort(m, stackgen.ServiceApp))
	assert.Equal(t, 5432, servicePort(m, stackgen.ServiceDB))
	assert.Equal(t, 6379, servicePort(m, stackgen.ServiceCache))
	assert.Equal(t, 0, servicePort(m, "worker"), "unknown services are not probed")
}

func TestDashIfEmpty(t *testing.T) {
	assert.Equal(t, "-", dashIfEmpty(""))
	assert.Equal(t, "healthy", dashIfEmpty("healthy"))
}
