package envfigure

import (
	"strconv"

	"github.com/muir/nflex"
	"github.com/pkg/errors"
)

// ConfigFileOpt is a functional argument for ConfigFile()
type ConfigFileOpt func(*configFile)

type configFile struct {
	path             string
	keyPath          []string
	unmarshalOptions []nflex.UnmarshalFileArg
}

// WithUnmarshalOpts passes through to
// https://pkg.go.dev/github.com/muir/nflex#UnmarshalFile
func WithUnmarshalOpts(opts ...nflex.UnmarshalFileArg) ConfigFileOpt {
	return func(c *configFile) {
		c.unmarshalOptions = opts
	}
}

// FromKeyPath reads variables from a sub-map of the file rather than
// from its top level.
func FromKeyPath(keys ...string) ConfigFileOpt {
	return func(c *configFile) {
		c.keyPath = keys
	}
}

// ConfigFile is a Provider that reads variables from a YAML or JSON
// file of scalar values:
//
//	ZINC_ENABLE: false
//	ZINC_REDIS_TIMEOUT: 45
//
// Maps and lists are ignored.  The file is read on every Snapshot.
func ConfigFile(path string, opts ...ConfigFileOpt) Provider {
	c := configFile{path: path}
	for _, f := range opts {
		f(&c)
	}
	return c
}

func (c configFile) Snapshot() (Env, error) {
	source, err := nflex.UnmarshalFile(c.path, c.unmarshalOptions...)
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", c.path)
	}
	env := make(Env)
	if len(c.keyPath) != 0 {
		source = source.Recurse(c.keyPath...)
		if source == nil {
			debug("source:", c.path, "has nothing at", c.keyPath)
			return env, nil
		}
	}
	keys, err := source.Keys()
	if err != nil {
		return nil, errors.Wrapf(err, "config file %s", c.path)
	}
	for _, key := range keys {
		value, ok, err := scalarString(source, key)
		if err != nil {
			return nil, errors.Wrapf(err, "config file %s, key %s", c.path, key)
		}
		if !ok {
			debug("source: ignoring non-scalar", key, "in", c.path)
			continue
		}
		env[key] = value
	}
	return env, nil
}

func scalarString(source nflex.Source, key string) (string, bool, error) {
	switch source.Type(key) {
	case nflex.String:
		s, err := source.GetString(key)
		return s, true, err
	case nflex.Int:
		i, err := source.GetInt(key)
		return strconv.FormatInt(i, 10), true, err
	case nflex.Float:
		f, err := source.GetFloat(key)
		return strconv.FormatFloat(f, 'g', -1, 64), true, err
	case nflex.Bool:
		b, err := source.GetBool(key)
		return strconv.FormatBool(b), true, err
	default:
		return "", false, nil
	}
}
