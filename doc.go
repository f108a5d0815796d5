// Obligatory // comment

/*
Package envfigure uses reflection to fill configuration structs from
environment variables.

Each exported field is read from one variable.  The variable's name is
derived from the struct's type name and the field name, converted to
upper snake case:

	type Config struct {
		ServerAddr string `envconfig:"default='192.168.2.1'"`
		Enable     bool   `envconfig:"name=ZINC_ENABLE, default=true, help='turn it on'"`
		Number     *int64 `envconfig:"name=ZINC_NUMBER"`
		Redis      Redis
	}

	type Redis struct {
		Timeout int32 `envconfig:"name=ZINC_REDIS_TIMEOUT, default=30"`
	}

reads CONFIG_SERVER_ADDR, ZINC_ENABLE, ZINC_NUMBER, and ZINC_REDIS_TIMEOUT.
Nested structs are never read from a variable of their own: their fields
derive keys from the nested type's name (REDIS_..., not CONFIG_REDIS_...).

The envconfig tag holds a comma separated list of key=value or bare key
attributes.  Values can be quoted with single quotes (taken literally) or
double quotes (Go escapes); commas inside quotes don't split.  The
attributes are:

	name:    the variable to read, replacing the derived name
	default: text used when the variable is not set
	help:    description, reported by CollectHelp
	parse:   convert with the type's own parser (bare flag or true/false)

A tag of "-" skips the field.  Unknown attributes are ignored.

Supported types are string, bool, the integer types, time.Duration,
nested structs, and anything that implements StringParser or
encoding.TextUnmarshaler.  Other types need the parse attribute.  A
pointer field is optional: when nothing provides a value it is left nil.
A required field with neither a value nor a default is an error.  A
pointer to a nested struct is left nil when its required fields are
missing, unless some of its variables are set.

The quickest way in is Load:

	cfg, err := envfigure.Load[Config](envfigure.Env{"ZINC_ENABLE": "false"})

A Registry fills several structs from one snapshot of a Provider, by
default the process environment, optionally layered over .env files or
a YAML/JSON file.
*/
package envfigure
