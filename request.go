package envfigure

import (
	"reflect"

	"github.com/muir/commonerrors"
	"github.com/pkg/errors"
)

type RequestFuncArg func(*Request)

// WithRequestProvider fills this request from its own provider rather
// than the registry's.
func WithRequestProvider(p Provider) RequestFuncArg {
	return func(r *Request) {
		r.provider = p
	}
}

// Request tracks a config struct that needs to be filled in.
type Request struct {
	registry *Registry
	name     string
	object   interface{}
	schema   *Schema
	provider Provider
}

// Request registers a struct to be filled in when Configure is called.
// The model must be a pointer to a struct.  Its schema is extracted
// now, so schema errors show up here rather than in Configure.
func (r *Registry) Request(model interface{}, options ...RequestFuncArg) error {
	v := reflect.ValueOf(model)
	if !v.IsValid() || v.Type().Kind() != reflect.Ptr || v.IsNil() || v.Type().Elem().Kind() != reflect.Struct {
		return commonerrors.ProgrammerError(errors.Errorf(
			"First argument to Request must be a non-nil pointer to a struct, not %T", model))
	}
	schema, err := r.extractor.extract(v.Type())
	if err != nil {
		return err
	}
	req := &Request{
		registry: r,
		name:     v.Type().Elem().String(),
		object:   model,
		schema:   schema,
	}
	for _, f := range options {
		f(req)
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	r.requests = append(r.requests, req)
	debug("request: added", req.name)
	return nil
}

func (r *Request) Registry() *Registry    { return r.registry }
func (r *Request) GetObject() interface{} { return r.object }
func (r *Request) Schema() *Schema        { return r.schema }
