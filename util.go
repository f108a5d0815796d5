package envfigure

import (
	"github.com/iancoleman/strcase"
)

// deriveKey is the one place a variable name is computed from a
// record and field name.  Population and help both go through it.
//
//	deriveKey("Config", "ServerAddr") == "CONFIG_SERVER_ADDR"
func deriveKey(record, field string) string {
	if record == "" {
		return strcase.ToScreamingSnake(field)
	}
	return strcase.ToScreamingSnake(record + "_" + field)
}
