package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/alecthomas/kingpin.v2"

	dice "github.com/uob-dice/dice-lib"
	"github.com/uob-dice/dice-lib/config"
)

var (
	app          = kingpin.New("dice-fs", "File operations across the storage systems of a DICE site.")
	appConfig    = app.Flag("config", "Path to the DICE site configuration.").Short('c').PlaceHolder("config.yaml").Default(config.DefaultPath).String()
	appLogLevel  = app.Flag("log-level", "Log level (severity). All messages with lower severity are omitted.").Default("warn").Enum("debug", "info", "warn", "error")
	appLogFormat = app.Flag("log-format", "Format of the log output. All formats print one message per line.").Default("text").Enum("text", "logfmt", "json")
	appQuiet     = app.Flag("quiet", "Do not print log messages.").Short('q').Default("false").Bool()
	appFormat    = app.Flag("format", "Format of the output. text prints an ASCII table (the default). json prints JSON lines.").Short('f').Default("text").Enum("text", "json")
	appTimeout   = app.Flag("timeout", "Abort the operation after this duration, 0 disables the timeout.").Default("0s").Duration()
)

func main() {
	app.Version(dice.Version)

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, cancel := prepareContext()
	defer cancel()

	var err error

	switch command {
	case owner.FullCommand():
		err = performOwner(ctx)
	case size.FullCommand():
		err = performSize(ctx)
	case ls.FullCommand():
		err = performLs(ctx)
	case mkdir.FullCommand():
		err = performMkdir(ctx)
	case rm.FullCommand():
		err = performRm(ctx)
	case cp.FullCommand():
		err = performCp(ctx)
	case mv.FullCommand():
		err = performMv(ctx)
	case route.FullCommand():
		err = performRoute(ctx)
	case mounts.FullCommand():
		err = performMounts(ctx)
	case facts.FullCommand():
		err = performFacts(ctx)
	case apelCheck.FullCommand():
		err = performAPEL(ctx)
	case glossary.FullCommand():
		err = performGlossary(ctx)
	}

	if err != nil {
		if mainErr, ok := err.(*MainError); ok {
			os.Exit(mainErr.ExitCode)
			return
		}
		os.Exit(1)
	}
}

func prepareContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if *appTimeout <= 0 {
		return ctx, stop
	}

	ctx, cancel := context.WithTimeout(ctx, *appTimeout)
	return ctx, func() {
		cancel()
		stop()
	}
}

var _ error = &MainError{}

type MainError struct {
	error
	ExitCode int
}

func (m *MainError) Cause() error {
	return m.error
}

func (m *MainError) Unwrap() error {
	return m.error
}
