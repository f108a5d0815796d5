package envfigure

import (
	"context"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/muir/commonerrors"
	"github.com/pkg/errors"
)

// Populate builds a new instance of the schema's struct from env and
// returns a pointer to it.  Nothing is returned unless every field
// resolved.
func Populate(s *Schema, env Env) (interface{}, error) {
	v, err := resolver{env: env}.record(s)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// Fill populates the struct that model points to.  The target is only
// written once the whole tree has resolved, so on error it is left as
// it was.
func Fill(model interface{}, env Env) error {
	target, err := targetOf(model)
	if err != nil {
		return err
	}
	s, err := ExtractSchema(target.Type())
	if err != nil {
		return err
	}
	v, err := resolver{env: env}.record(s)
	if err != nil {
		return err
	}
	target.Set(v.Elem())
	return nil
}

// Load extracts the schema for T and populates a new T from env.
func Load[T any](env Env) (*T, error) {
	var zero T
	s, err := ExtractSchema(reflect.TypeOf(zero))
	if err != nil {
		return nil, err
	}
	v, err := Populate(s, env)
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func targetOf(model interface{}) (reflect.Value, error) {
	v := reflect.ValueOf(model)
	if !v.IsValid() || v.Kind() != reflect.Ptr || v.IsNil() || v.Elem().Kind() != reflect.Struct {
		return reflect.Value{}, &SchemaError{
			Record: "?",
			Text:   typeString(reflect.TypeOf(model)),
			Err: commonerrors.ProgrammerError(errors.Errorf(
				"model must be a non-nil pointer to a struct, not %T", model)),
		}
	}
	return v.Elem(), nil
}

type resolver struct {
	env         Env
	logger      *slog.Logger
	zeroMissing bool
}

// record returns a pointer to a freshly populated instance.
func (r resolver) record(s *Schema) (reflect.Value, error) {
	p := reflect.New(s.Type)
	v := p.Elem()
	for i := range s.Fields {
		f := &s.Fields[i]
		err := r.field(f, v.Field(f.index))
		if err != nil {
			return reflect.Value{}, err
		}
	}
	return p, nil
}

func (r resolver) field(f *Field, dst reflect.Value) error {
	if f.Kind == KindRecord {
		p, err := r.record(f.Nested)
		if err != nil {
			if f.Optional && IsMissingValueError(err) && !r.touches(f.Nested) {
				debug("fill:", f.QualifiedName(), "left nil:", err)
				r.log(f, f.Nested.Name, "nil")
				return nil
			}
			return err
		}
		if f.Optional {
			dst.Set(p)
		} else {
			dst.Set(p.Elem())
		}
		return nil
	}

	key := f.Key()
	raw, ok := r.env[key]
	source := "env"
	if !ok {
		switch {
		case f.Default != "":
			raw = f.Default
			source = "default"
		case f.Optional:
			r.log(f, key, "absent")
			return nil
		case r.zeroMissing:
			r.log(f, key, "zero")
			return nil
		default:
			return &MissingValueError{
				Field: f.QualifiedName(),
				Key:   key,
			}
		}
	}
	v, err := f.coerce(raw)
	if err != nil {
		return &CoercionError{
			Field:  f.QualifiedName(),
			Key:    key,
			Value:  raw,
			Custom: f.Kind == KindCustom,
			Err:    err,
		}
	}
	if f.Optional {
		p := reflect.New(f.Type)
		p.Elem().Set(v)
		dst.Set(p)
	} else {
		dst.Set(v)
	}
	r.log(f, key, source)
	return nil
}

// touches reports whether any leaf of s is set in the snapshot.  A
// partially configured optional record is an error, not a nil.
func (r resolver) touches(s *Schema) bool {
	var found bool
	s.walkLeaves(func(f *Field) {
		if _, ok := r.env[f.Key()]; ok {
			found = true
		}
	})
	return found
}

func (r resolver) log(f *Field, key string, source string) {
	debug("fill:", f.QualifiedName(), key, "from", source)
	if r.logger == nil {
		return
	}
	r.logger.LogAttrs(context.Background(), slog.LevelDebug, "resolved configuration variable",
		slog.String("key", key),
		slog.String("field", f.QualifiedName()),
		slog.String("source", source))
}

// coerce converts raw text into a value of f.Type.
func (f *Field) coerce(raw string) (reflect.Value, error) {
	v := reflect.New(f.Type).Elem()
	switch f.Kind {
	case KindString:
		v.SetString(raw)
	case KindBool:
		switch {
		case strings.EqualFold(raw, "true"):
			v.SetBool(true)
		case strings.EqualFold(raw, "false"):
			v.SetBool(false)
		default:
			return v, commonerrors.ConfigurationError(errors.Errorf("%q is neither true nor false", raw))
		}
	case KindInteger:
		switch f.Type.Kind() {
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			n, err := strconv.ParseUint(raw, 10, f.Type.Bits())
			if err != nil {
				return v, commonerrors.ConfigurationError(errors.WithStack(err))
			}
			v.SetUint(n)
		default:
			n, err := strconv.ParseInt(raw, 10, f.Type.Bits())
			if err != nil {
				return v, commonerrors.ConfigurationError(errors.WithStack(err))
			}
			v.SetInt(n)
		}
	case KindCustom:
		return f.parseCustom(raw)
	default:
		return v, errors.Errorf("cannot coerce a %s field", f.Kind)
	}
	return v, nil
}

// parseCustom prefers StringParser, then encoding.TextUnmarshaler, then
// the setter chosen when the schema was extracted.  Parser errors are
// returned unchanged.
func (f *Field) parseCustom(raw string) (reflect.Value, error) {
	p := reflect.New(f.Type)
	var err error
	switch parser := p.Interface().(type) {
	case StringParser:
		err = parser.ParseFromString(raw)
	case interface{ UnmarshalText([]byte) error }:
		err = parser.UnmarshalText([]byte(raw))
	default:
		err = f.setter(p.Elem(), raw)
	}
	return p.Elem(), err
}
