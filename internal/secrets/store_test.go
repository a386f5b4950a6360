package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultsFallBackToStatic(t *testing.T) {
	creds := DBCredentials(Defaults())

	assert.Equal(t, "app", creds.User)
	assert.Equal(t, "app-secret", creds.Password)
	assert.Equal(t, "app", creds.Name)
}

// TestEnvOverridesStatic verifies that environment variables win over the
// compiled defaults, and that a blank export does not mask the fallback.
func TestEnvOverridesStatic(t *testing.T) {
	t.Setenv("BERTH_DB_PASSWORD", "s3cret-from-env")
	t.Setenv("BERTH_DB_USER", "")

	creds := DBCredentials(Defaults())

	assert.Equal(t, "s3cret-from-env", creds.Password)
	assert.Equal(t, "app", creds.User, "empty env value should fall through to defaults")
	assert.Equal(t, "app", creds.Name)
}

func TestChainOrder(t *testing.T) {
	chain := Chain{
		StaticStore{"k": "first"},
		StaticStore{"k": "second", "other": "x"},
	}

	v, ok := chain.Lookup("k")
	assert.True(t, ok)
	assert.Equal(t, "first", v)

	v, ok = chain.Lookup("other")
	assert.True(t, ok)
	assert.Equal(t, "x", v)

	_, ok = chain.Lookup("missing")
	assert.False(t, ok)
}
