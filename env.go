package envfigure

import (
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Env is a snapshot of environment variables.  It is read, never
// written, while a configuration is resolved.
type Env map[string]string

// Lookup mirrors os.LookupEnv.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Provider produces an environment snapshot.  Populate never reads the
// process environment itself: one snapshot is taken per Configure and
// used for the whole tree.
type Provider interface {
	Snapshot() (Env, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func() (Env, error)

func (f ProviderFunc) Snapshot() (Env, error) { return f() }

// ProcessEnv snapshots os.Environ().
func ProcessEnv() Provider {
	return ProviderFunc(func() (Env, error) {
		env := make(Env)
		for _, kv := range os.Environ() {
			key, value, ok := strings.Cut(kv, "=")
			if !ok || key == "" {
				continue
			}
			env[key] = value
		}
		return env, nil
	})
}

// Static always returns a copy of env.
func Static(env Env) Provider {
	return ProviderFunc(func() (Env, error) {
		c := make(Env, len(env))
		for k, v := range env {
			c[k] = v
		}
		return c, nil
	})
}

// Layered merges snapshots from several providers.  Later providers
// override earlier ones.
func Layered(providers ...Provider) Provider {
	return ProviderFunc(func() (Env, error) {
		env := make(Env)
		for _, p := range providers {
			layer, err := p.Snapshot()
			if err != nil {
				return nil, err
			}
			for k, v := range layer {
				env[k] = v
			}
		}
		return env, nil
	})
}

// DotenvFiles reads KEY=value files in the .env format.  With no paths
// it reads ".env".  Files that don't exist are skipped; later files
// override earlier ones.
func DotenvFiles(paths ...string) Provider {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	return ProviderFunc(func() (Env, error) {
		env := make(Env)
		for _, path := range paths {
			values, err := godotenv.Read(path)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					debug("env: skipping missing", path)
					continue
				}
				return nil, errors.Wrapf(err, "read %s", path)
			}
			for k, v := range values {
				env[k] = v
			}
		}
		return env, nil
	})
}

// DefaultProvider layers the process environment over .env files, so
// a variable that is already set is never replaced by a file.
func DefaultProvider(dotenvPaths ...string) Provider {
	return Layered(DotenvFiles(dotenvPaths...), ProcessEnv())
}
