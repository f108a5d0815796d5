//go:build !debugEnvfigure
// +build !debugEnvfigure

package envfigure

func debugf(string, ...interface{}) {}
func debug(...interface{})          {}
