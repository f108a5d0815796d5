package envfigure

import (
	"log/slog"
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Registry collects configuration structs and fills them all from one
// environment snapshot.
type Registry struct {
	requests    []*Request
	lock        sync.Mutex
	provider    Provider
	logger      *slog.Logger
	extractor   extractor
	zeroMissing bool
}

type RegistryFuncArg func(*Registry)

// WithTag changes the struct tag that holds attribute clauses.  The
// default is "envconfig".
func WithTag(tag string) RegistryFuncArg {
	return func(r *Registry) {
		r.extractor.tag = tag
	}
}

// WithProvider replaces the default source of environment snapshots,
// ProcessEnv().
func WithProvider(p Provider) RegistryFuncArg {
	return func(r *Registry) {
		r.provider = p
	}
}

// WithLogger logs, at debug level, where each variable's value came
// from.
func WithLogger(logger *slog.Logger) RegistryFuncArg {
	return func(r *Registry) {
		r.logger = logger
	}
}

// WithStrictKeys makes two fields that resolve to the same variable a
// schema error.  Without it, the later field silently shadows the
// earlier one in help output.
func WithStrictKeys() RegistryFuncArg {
	return func(r *Registry) {
		r.extractor.strict = true
	}
}

// WithZeroDefaults leaves required fields that have neither a value
// nor a default at their zero value instead of failing.
func WithZeroDefaults() RegistryFuncArg {
	return func(r *Registry) {
		r.zeroMissing = true
	}
}

func NewRegistry(options ...RegistryFuncArg) *Registry {
	r := &Registry{
		provider: ProcessEnv(),
		extractor: extractor{
			tag: DefaultTag,
		},
	}
	for _, f := range options {
		f(r)
	}
	return r
}

// Schema extracts a schema using the registry's tag and key rules.
func (r *Registry) Schema(model interface{}) (*Schema, error) {
	return r.extractor.extract(model)
}

// Configure takes one snapshot per provider and fills every requested
// struct.  Either all requests are filled or none are.
func (r *Registry) Configure() error {
	r.lock.Lock()
	defer r.lock.Unlock()
	snapshots := make(map[*Request]Env, len(r.requests))
	var shared Env
	var haveShared bool
	for _, request := range r.requests {
		if request.provider == nil {
			if !haveShared {
				var err error
				shared, err = r.provider.Snapshot()
				if err != nil {
					return errors.Wrap(err, "environment snapshot")
				}
				haveShared = true
			}
			snapshots[request] = shared
			continue
		}
		env, err := request.provider.Snapshot()
		if err != nil {
			return errors.Wrapf(err, "environment snapshot for %s", request.name)
		}
		snapshots[request] = env
	}

	results := make([]reflect.Value, len(r.requests))
	for i, request := range r.requests {
		v, err := resolver{
			env:         snapshots[request],
			logger:      r.logger,
			zeroMissing: r.zeroMissing,
		}.record(request.schema)
		if err != nil {
			return errors.Wrap(err, request.name)
		}
		results[i] = v
	}
	for i, request := range r.requests {
		reflect.ValueOf(request.object).Elem().Set(results[i].Elem())
	}
	debugf("registry: configured %d requests", len(r.requests))
	return nil
}

// Help documents every variable read by the registered requests.
func (r *Registry) Help() HelpMap {
	r.lock.Lock()
	defer r.lock.Unlock()
	help := make(HelpMap)
	for _, request := range r.requests {
		help.Merge(CollectHelp(request.schema))
	}
	return help
}

// Keys lists the variables of all requests in registration and
// declaration order.
func (r *Registry) Keys() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	var keys []string
	seen := make(map[string]struct{})
	for _, request := range r.requests {
		for _, key := range request.schema.Keys() {
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

func (r *Registry) GetRequests() []*Request {
	r.lock.Lock()
	defer r.lock.Unlock()
	requests := make([]*Request, len(r.requests))
	copy(requests, r.requests)
	return requests
}
