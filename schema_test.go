package envfigure

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Config struct {
	ServerAddr string `envconfig:"default='192.168.2.1'"`
	Enable     bool   `envconfig:"name=ZINC_ENABLE, default=true"`
	Redis      Redis
}

type Redis struct {
	Timeout int `envconfig:"name=ZINC_REDIS_TIMEOUT, default=30"`
}

type level int

func (l *level) ParseFromString(s string) error {
	switch strings.ToLower(s) {
	case "low":
		*l = 1
	case "high":
		*l = 2
	default:
		return errUnknownLevel
	}
	return nil
}

var errUnknownLevel = errors.New("level must be low or high")

type Kinds struct {
	S     string
	B     bool
	I     int64
	U     uint8
	Opt   *int
	Lvl   level
	When  time.Time
	Wait  time.Duration
	Ratio float64 `envconfig:"parse, help='fraction'"`
	Raw   int     `envconfig:"parse=true"`
	Sub   *Redis
	Anon  struct {
		Inner string
	}
	Skip     string `envconfig:"-"`
	internal string
}

func TestExtractSchemaKinds(t *testing.T) {
	s, err := ExtractSchema(Kinds{})
	require.NoError(t, err)
	assert.Equal(t, "Kinds", s.Name)

	got := make(map[string]Field)
	var order []string
	for _, f := range s.Fields {
		got[f.Name] = f
		order = append(order, f.Name)
	}
	assert.Equal(t,
		[]string{"S", "B", "I", "U", "Opt", "Lvl", "When", "Wait", "Ratio", "Raw", "Sub", "Anon"},
		order, "declaration order, skipped and unexported fields removed")

	kinds := map[string]Kind{
		"S":     KindString,
		"B":     KindBool,
		"I":     KindInteger,
		"U":     KindInteger,
		"Opt":   KindInteger,
		"Lvl":   KindCustom,
		"When":  KindCustom,
		"Wait":  KindCustom,
		"Ratio": KindCustom,
		"Raw":   KindCustom,
		"Sub":   KindRecord,
		"Anon":  KindRecord,
	}
	for name, kind := range kinds {
		assert.Equal(t, kind, got[name].Kind, name)
	}
	assert.True(t, got["Opt"].Optional)
	assert.Equal(t, reflect.TypeOf(0), got["Opt"].Type, "pointer stripped")
	assert.True(t, got["Sub"].Optional)
	assert.False(t, got["S"].Optional)
	assert.True(t, got["Raw"].Parse)
	assert.Equal(t, pointer.ToString("fraction"), got["Ratio"].Help)
	assert.Nil(t, got["S"].Help)

	require.NotNil(t, got["Sub"].Nested)
	assert.Equal(t, "Redis", got["Sub"].Nested.Name)
	require.NotNil(t, got["Anon"].Nested)
	assert.Equal(t, "Anon", got["Anon"].Nested.Name, "anonymous structs are named by their field")
}

func TestExtractSchemaAttributes(t *testing.T) {
	s, err := ExtractSchema(&Config{})
	require.NoError(t, err)
	require.Len(t, s.Fields, 3)

	addr := s.Fields[0]
	assert.Equal(t, "ServerAddr", addr.Name)
	assert.Equal(t, "Config", addr.Record)
	assert.Equal(t, "", addr.EnvName)
	assert.Equal(t, "192.168.2.1", addr.Default)
	assert.Equal(t, "CONFIG_SERVER_ADDR", addr.Key())

	enable := s.Fields[1]
	assert.Equal(t, "ZINC_ENABLE", enable.Key())
	assert.Equal(t, "true", enable.Default)

	redis := s.Fields[2]
	assert.Equal(t, KindRecord, redis.Kind)
	assert.Equal(t, "", redis.Default)
	assert.Equal(t, "ZINC_REDIS_TIMEOUT", redis.Nested.Fields[0].Key())
}

type quotedTag struct {
	Foo   bool   `envconfig:"name = \"ZINC_FOO\", default = true, help = \"foo is important\""`
	Greet string `envconfig:"help=\"say hi, then leave\", default='a, b'"`
}

func TestExtractSchemaDoubleQuotedTag(t *testing.T) {
	s, err := ExtractSchema(quotedTag{})
	require.NoError(t, err)
	require.Len(t, s.Fields, 2)

	foo := s.Fields[0]
	assert.Equal(t, "ZINC_FOO", foo.Key())
	assert.Equal(t, "true", foo.Default)
	assert.Equal(t, pointer.ToString("foo is important"), foo.Help)

	greet := s.Fields[1]
	assert.Equal(t, "QUOTED_TAG_GREET", greet.Key())
	assert.Equal(t, "a, b", greet.Default)
	assert.Equal(t, "say hi, then leave", pointer.GetString(greet.Help))

	v, err := Load[quotedTag](Env{})
	require.NoError(t, err)
	assert.True(t, v.Foo)
	assert.Equal(t, "a, b", v.Greet)
}

func TestExtractSchemaCached(t *testing.T) {
	a, err := ExtractSchema(Config{})
	require.NoError(t, err)
	b, err := ExtractSchema(reflect.TypeOf(&Config{}))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

type badClause struct {
	X string `envconfig:"help='oops"`
}

type badType struct {
	M map[string]string
}

type badParseFlag struct {
	X string `envconfig:"parse=maybe"`
}

type badNestedDefault struct {
	R Redis `envconfig:"default=x"`
}

type badNestedName struct {
	R Redis `envconfig:"name=REDIS"`
}

type badParseTarget struct {
	C chan int `envconfig:"parse"`
}

type selfRef struct {
	Name string
	Next *selfRef
}

type outerRef struct {
	Inner innerRef
}

type innerRef struct {
	Back *outerRef
}

func TestExtractSchemaErrors(t *testing.T) {
	cases := []struct {
		name  string
		model interface{}
		field string
	}{
		{"clause", badClause{}, "X"},
		{"type", badType{}, "M"},
		{"parse flag", badParseFlag{}, "X"},
		{"nested default", badNestedDefault{}, "R"},
		{"nested name", badNestedName{}, "R"},
		{"parse target", badParseTarget{}, "C"},
		{"self reference", selfRef{}, ""},
		{"indirect reference", outerRef{}, ""},
		{"not a struct", 7, ""},
		{"nil", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractSchema(tc.model)
			require.Error(t, err)
			assert.True(t, IsSchemaError(err), "schema error")
			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tc.field, se.Field)
		})
	}
}

func TestUnresolvableTypeMessage(t *testing.T) {
	_, err := ExtractSchema(badType{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolvable field type")
	assert.Contains(t, err.Error(), "badType.M")
}

type dupKeys struct {
	A string `envconfig:"name=SAME"`
	B string `envconfig:"name=SAME"`
}

func TestStrictKeys(t *testing.T) {
	_, err := ExtractSchema(dupKeys{})
	require.NoError(t, err, "duplicates are allowed by default")

	_, err = NewRegistry(WithStrictKeys()).Schema(dupKeys{})
	require.Error(t, err)
	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "B", se.Field)
	assert.Equal(t, "SAME", se.Text)
	assert.Contains(t, err.Error(), "dupKeys.A")
}

type otherTag struct {
	X string `cfg:"name=OTHER_X" envconfig:"name=ENV_X"`
}

func TestWithTag(t *testing.T) {
	s, err := NewRegistry(WithTag("cfg")).Schema(otherTag{})
	require.NoError(t, err)
	assert.Equal(t, "OTHER_X", s.Fields[0].Key())

	s, err = ExtractSchema(otherTag{})
	require.NoError(t, err)
	assert.Equal(t, "ENV_X", s.Fields[0].Key())
}

func TestSchemaKeys(t *testing.T) {
	s, err := ExtractSchema(Kinds{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"KINDS_S",
		"KINDS_B",
		"KINDS_I",
		"KINDS_U",
		"KINDS_OPT",
		"KINDS_LVL",
		"KINDS_WHEN",
		"KINDS_WAIT",
		"KINDS_RATIO",
		"KINDS_RAW",
		"ZINC_REDIS_TIMEOUT",
		"ANON_INNER",
	}, s.Keys())
}
