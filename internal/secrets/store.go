// Package secrets resolves the credentials interpolated into the generated
// stack configuration.
//
// The provisioner never hard-codes credentials at the render site. Instead,
// lookups go through a small Store interface so the source can be swapped:
// the default chain consults the process environment first and falls back
// to compiled static defaults. Rotation and interactive prompting are out
// of scope; the interface is the seam where a real secret manager would
// plug in.
package secrets

import (
	"os"

	"github.com/mmr-tortoise/berth/internal/model"
)

// Keys understood by the default stores.
const (
	KeyDBUser     = "db_user"
	KeyDBPassword = "db_password"
	KeyDBName     = "db_name"
)

// Store resolves a named secret. The boolean reports whether the store
// holds a value for the key at all, so chains can fall through.
type Store interface {
	Lookup(key string) (string, bool)
}

// EnvStore reads secrets from environment variables. A key like
// "db_password" maps to BERTH_DB_PASSWORD.
type EnvStore struct{}

// Lookup translates the key to its BERTH_-prefixed, upper-cased
// environment variable and reads it. Empty values count as unset so a
// blank export does not mask the fallback store.
func (EnvStore) Lookup(key string) (string, bool) {
	name := "BERTH_" + toEnvName(key)
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func toEnvName(key string) string {
	b := []byte(key)
	for i := range b {
		switch {
		case b[i] >= 'a' && b[i] <= 'z':
			b[i] -= 'a' - 'A'
		case b[i] == '-':
			b[i] = '_'
		}
	}
	return string(b)
}

// StaticStore is a fixed in-memory secret map, used for the compiled
// defaults that keep a fresh host bootstrappable with zero setup.
type StaticStore map[string]string

// Lookup reads from the map.
func (s StaticStore) Lookup(key string) (string, bool) {
	v, ok := s[key]
	return v, ok
}

// Chain consults stores in order and returns the first hit.
type Chain []Store

// Lookup walks the chain.
func (c Chain) Lookup(key string) (string, bool) {
	for _, s := range c {
		if v, ok := s.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

// Defaults returns the standard resolution chain: environment overrides
// first, then the compiled defaults.
func Defaults() Store {
	return Chain{
		EnvStore{},
		StaticStore{
			KeyDBUser:     "app",
			KeyDBPassword: "app-secret",
			KeyDBName:     "app",
		},
	}
}

// DBCredentials resolves the full database identity from a store.
// Keys missing from the store resolve to empty strings; with the
// Defaults chain that never happens.
func DBCredentials(s Store) model.DBCredentials {
	user, _ := s.Lookup(KeyDBUser)
	password, _ := s.Lookup(KeyDBPassword)
	name, _ := s.Lookup(KeyDBName)
	return model.DBCredentials{User: user, Password: password, Name: name}
}
