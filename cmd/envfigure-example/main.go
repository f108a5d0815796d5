package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/lmittmann/tint"
	"github.com/muir/envfigure"
	"github.com/pborman/getopt/v2"
	"github.com/pkg/errors"
)

var (
	helpFlag    = getopt.BoolLong("help", 'h', "print this help message")
	helpEnvFlag = getopt.BoolLong("help-env", 0, "list the environment variables that are read")
	verboseFlag = getopt.BoolLong("verbose", 'v', "log where each value came from")
	envFileOpt  = getopt.ListLong("env-file", 'e', "read variables from FILE (repeatable, default .env)", "FILE")

	// changed in tests
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

type Config struct {
	ServerAddr string `envconfig:"name=ZINC_SERVER_ADDR, default='192.168.2.1', help='address to listen on'"`
	ServerMode bool   `envconfig:"help='run as a server'"`
	Enable     bool   `envconfig:"name=ZINC_ENABLE, default=true"`
	Num        *int64 `envconfig:"name=ZINC_NUMBER, default=123456"`
	RR         Redis
}

type Redis struct {
	Addr    string
	Port    string
	Auth    string `envconfig:"help='redis password'"`
	Timeout int32  `envconfig:"name=ZINC_REDIS_TIMEOUT, default=30"`
}

func main() {
	if err := runCommand(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() error {
	getopt.HelpColumn = 30
	getopt.Parse()

	if *helpFlag {
		getopt.Usage()
		return nil
	}

	level := slog.LevelInfo
	if *verboseFlag {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	var cfg Config
	registry := envfigure.NewRegistry(
		envfigure.WithProvider(envfigure.DefaultProvider(*envFileOpt...)),
		envfigure.WithLogger(logger),
		envfigure.WithZeroDefaults())
	if err := registry.Request(&cfg); err != nil {
		return errors.Wrap(err, "register config")
	}

	if *helpEnvFlag {
		return printHelp(stdout, registry)
	}

	if err := registry.Configure(); err != nil {
		return errors.Wrap(err, "configure")
	}
	fmt.Fprintf(stdout, "%+v\n", cfg)
	if cfg.Num != nil {
		fmt.Fprintf(stdout, "num: %d\n", *cfg.Num)
	}
	return nil
}

func printHelp(w io.Writer, registry *envfigure.Registry) error {
	help := registry.Help()
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VARIABLE\tDEFAULT\tDESCRIPTION")
	for _, key := range registry.Keys() {
		entry := help[key]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", key, entry.Default, entry.Text())
	}
	return tw.Flush()
}
