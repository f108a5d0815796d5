//go:build debugEnvfigure
// +build debugEnvfigure

package envfigure

import (
	"log"
)

func debugf(fmt string, args ...interface{}) {
	log.Printf(fmt, args...)
}

func debug(args ...interface{}) {
	log.Println(args...)
}
