package envfigure

import (
	"encoding"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/muir/commonerrors"
	"github.com/muir/reflectutils"
	"github.com/pkg/errors"
)

// DefaultTag is the struct tag that carries a field's attribute clause.
const DefaultTag = "envconfig"

// Kind is the semantic type of a field after the optional wrapper
// has been stripped.
type Kind int

const (
	KindString Kind = iota + 1
	KindBool
	KindInteger
	KindRecord
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInteger:
		return "integer"
	case KindRecord:
		return "record"
	case KindCustom:
		return "custom"
	default:
		return "invalid"
	}
}

// StringParser is implemented by types that convert themselves from
// the text of an environment variable.  It is checked before
// encoding.TextUnmarshaler.
type StringParser interface {
	ParseFromString(string) error
}

var (
	stringParserType    = reflect.TypeOf((*StringParser)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
	durationType        = reflect.TypeOf(time.Duration(0))
)

// Field describes one struct field of a Schema.
type Field struct {
	Name     string // Go field name
	Record   string // name of the enclosing record, used to derive Key()
	Kind     Kind
	Type     reflect.Type // declared type, pointer stripped when Optional
	Optional bool         // declared as a pointer
	EnvName  string       // explicit key, overrides the derived one
	Default  string       // raw default, "" for none
	Help     *string      // nil when no help was given
	Parse    bool         // the clause asked for custom parsing
	Nested   *Schema      // set when Kind is KindRecord

	index  int
	setter func(reflect.Value, string) error
}

// Key is the environment variable the field is read from: EnvName
// when given, otherwise derived from the record and field names.
func (f *Field) Key() string {
	if f.EnvName != "" {
		return f.EnvName
	}
	return deriveKey(f.Record, f.Name)
}

// QualifiedName is Record.Name, used in error messages.
func (f *Field) QualifiedName() string {
	if f.Record == "" {
		return f.Name
	}
	return f.Record + "." + f.Name
}

// Schema is the ordered set of fields extracted from one struct type.
type Schema struct {
	Name   string
	Type   reflect.Type
	Fields []Field
}

// Keys returns the key of every leaf reachable from the schema, depth
// first in declaration order.  A key shared by two leaves is listed
// once, at its first position.
func (s *Schema) Keys() []string {
	var keys []string
	seen := make(map[string]struct{})
	s.walkLeaves(func(f *Field) {
		key := f.Key()
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	})
	return keys
}

func (s *Schema) walkLeaves(visit func(*Field)) {
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Kind == KindRecord {
			f.Nested.walkLeaves(visit)
			continue
		}
		visit(f)
	}
}

type extractor struct {
	tag    string
	strict bool
}

type cacheKey struct {
	t reflect.Type
	x extractor
}

// schemas are static so they're kept for the life of the process
var schemaCache sync.Map

// ExtractSchema builds the Schema for a struct.  The model can be a
// struct, a pointer to a struct, or the reflect.Type of either.  Results
// are cached by type.
func ExtractSchema(model interface{}) (*Schema, error) {
	return extractor{tag: DefaultTag}.extract(model)
}

func (x extractor) extract(model interface{}) (*Schema, error) {
	t, ok := model.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(model)
	}
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil, &SchemaError{
			Record: "?",
			Text:   typeString(t),
			Err: commonerrors.ProgrammerError(errors.Errorf(
				"model must be a struct or a pointer to a struct, not %s", typeString(t))),
		}
	}
	key := cacheKey{t: t, x: x}
	if cached, ok := schemaCache.Load(key); ok {
		return cached.(*Schema), nil
	}
	s, err := x.record(t, t.Name(), nil)
	if err != nil {
		return nil, err
	}
	if x.strict {
		if err := s.checkKeys(); err != nil {
			return nil, err
		}
	}
	debug("schema: extracted", t, "keys", s.Keys())
	actual, _ := schemaCache.LoadOrStore(key, s)
	return actual.(*Schema), nil
}

func (x extractor) record(t reflect.Type, name string, path []reflect.Type) (*Schema, error) {
	for _, seen := range path {
		if seen == t {
			return nil, &SchemaError{
				Record: name,
				Text:   t.String(),
				Err:    commonerrors.ProgrammerError(errors.New("record contains itself")),
			}
		}
	}
	path = append(path, t)
	s := &Schema{
		Name:   name,
		Type:   t,
		Fields: make([]Field, 0, t.NumField()),
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		f, skip, err := x.field(name, sf, path)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		f.index = i
		s.Fields = append(s.Fields, f)
	}
	return s, nil
}

func (x extractor) field(record string, sf reflect.StructField, path []reflect.Type) (Field, bool, error) {
	raw := reflectutils.SplitTag(sf.Tag).Set().Get(x.tag).Value
	schemaErr := func(text string, err error) (Field, bool, error) {
		return Field{}, false, &SchemaError{
			Record: record,
			Field:  sf.Name,
			Text:   text,
			Err:    err,
		}
	}
	// SplitTag leaves the tag value escaped as written in the source
	clause, err := strconv.Unquote(`"` + raw + `"`)
	if err != nil {
		return schemaErr(raw, errors.Wrap(err, "struct tag"))
	}
	clause = strings.TrimSpace(clause)
	if clause == "-" {
		return Field{}, true, nil
	}
	attrs, err := parseAttributes(clause)
	if err != nil {
		return schemaErr(clause, err)
	}
	f := Field{
		Name:    sf.Name,
		Record:  record,
		EnvName: attrs[attrName],
		Default: attrs[attrDefault],
	}
	if help, ok := attrs[attrHelp]; ok {
		f.Help = pointer.ToString(help)
	}
	if raw, ok := attrs[attrParse]; ok {
		f.Parse, err = parseFlag(raw)
		if err != nil {
			return schemaErr(clause, errors.Wrap(err, attrParse))
		}
	}

	t := sf.Type
	if t.Kind() == reflect.Ptr {
		f.Optional = true
		t = t.Elem()
	}
	f.Type = t
	f.Kind, err = classify(t, f.Parse)
	if err != nil {
		return schemaErr(sf.Type.String(), err)
	}

	switch f.Kind {
	case KindRecord:
		if f.Default != "" {
			return schemaErr(clause, errors.New("nested records cannot have a default"))
		}
		if f.EnvName != "" {
			return schemaErr(clause, errors.New("nested records are not read from a single variable"))
		}
		name := t.Name()
		if name == "" {
			name = sf.Name
		}
		f.Nested, err = x.record(t, name, path)
		if err != nil {
			return Field{}, false, err
		}
	case KindCustom:
		switch {
		case implementsParser(t):
		case t == durationType:
			f.setter = setDuration
		default:
			f.setter, err = reflectutils.MakeStringSetter(t)
			if err != nil {
				return schemaErr(sf.Type.String(), errors.Wrap(err, "unresolvable field type"))
			}
		}
	}
	return f, false, nil
}

func classify(t reflect.Type, parse bool) (Kind, error) {
	if parse || t == durationType || implementsParser(t) {
		return KindCustom, nil
	}
	switch t.Kind() {
	case reflect.String:
		return KindString, nil
	case reflect.Bool:
		return KindBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger, nil
	case reflect.Struct:
		return KindRecord, nil
	}
	return 0, commonerrors.ProgrammerError(errors.Errorf("unresolvable field type %s", t))
}

func implementsParser(t reflect.Type) bool {
	p := reflect.PtrTo(t)
	return p.Implements(stringParserType) || p.Implements(textUnmarshalerType)
}

// checkKeys rejects two leaves that would read the same variable.
func (s *Schema) checkKeys() error {
	owners := make(map[string]*Field)
	var err error
	s.walkLeaves(func(f *Field) {
		if err != nil {
			return
		}
		key := f.Key()
		if prior, ok := owners[key]; ok {
			err = &SchemaError{
				Record: f.Record,
				Field:  f.Name,
				Text:   key,
				Err:    errors.Errorf("key is also used by %s", prior.QualifiedName()),
			}
			return
		}
		owners[key] = f
	})
	return err
}

func typeString(t reflect.Type) string {
	if t == nil {
		return "nil"
	}
	return t.String()
}

func setDuration(v reflect.Value, s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return errors.WithStack(err)
	}
	v.SetInt(int64(d))
	return nil
}
