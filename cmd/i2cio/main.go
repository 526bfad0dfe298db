package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	chlog "github.com/charmbracelet/log"
	"github.com/muesli/termenv"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/i2cio"
	"github.com/mklimuk/i2cio/adapter"
	"github.com/mklimuk/i2cio/cmd/i2cio/console"
	"github.com/mklimuk/i2cio/format"
	"github.com/mklimuk/i2cio/i2c"
	"github.com/mklimuk/i2cio/ioctx"
	"github.com/mklimuk/i2cio/parser"
	"github.com/mklimuk/i2cio/txn"
)

var version string
var commit string
var date string

const description = `Reads commands from standard input and runs them as I2C transactions.
Data read from devices is written to standard output.

Commands (letters are case insensitive, line breaks carry no meaning):

   D address bus     select device address (0-127) on /dev/i2c-<bus>
   R length          read length bytes (1-256)
   W byte [byte...]  write one or more bytes (0-255)
   ;                 end the current transaction
   # comment         ignored up to the end of the line

Numbers are decimal, octal with a leading 0 or hexadecimal with a leading 0x.
Messages following a D are combined into one transaction that ends at ';', at
the next D or at the end of input. Up to 42 messages fit in one transaction.

Every read prints one line: hex bytes (0x1F) by default, decimal with
--decimal. With --binary read data is written as raw bytes without separators.
--binary takes precedence over --decimal.

Example:

   echo "D 0x50 1 W 0x00 0x10 R 4" | i2cio`

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	console.SetOutput(stderr)
	app := newApp(stdin, stdout, stderr)
	err := app.Run(args)
	if err == nil {
		return 0
	}
	var exerr cli.ExitCoder
	if errors.As(err, &exerr) {
		if msg := err.Error(); msg != "" {
			console.Error(msg)
		}
		return exerr.ExitCode()
	}
	console.Error(err.Error())
	return 1
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
	app := cli.NewApp()
	app.Name = "i2cio"
	app.Version = fmt.Sprintf("%s-%s-%s", version, date, commit)
	app.Usage = "perform I2C transactions described on standard input"
	app.UsageText = "i2cio [-n] [-d | -b] [-a adapter] [--dump] < commands > read_data"
	app.Description = description
	app.UseShortOptionHandling = true
	app.HideHelpCommand = true
	app.Reader = stdin
	app.Writer = stderr
	app.ErrWriter = stderr
	// exit codes are handled by run
	app.ExitErrHandler = func(*cli.Context, error) {}
	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "dry-run",
			Aliases: []string{"n"},
			Usage:   "do not touch the bus, reads return 0x55",
		},
		&cli.BoolFlag{
			Name:    "decimal",
			Aliases: []string{"d"},
			Usage:   "print read data as decimal numbers",
		},
		&cli.BoolFlag{
			Name:    "binary",
			Aliases: []string{"b"},
			Usage:   "write read data as raw bytes (takes precedence over --decimal)",
		},
		&cli.StringFlag{
			Name:    "adapter",
			Aliases: []string{"a"},
			Value:   "dev",
			Usage:   "bus adapter: dev, periph or mcp2221",
		},
		&cli.BoolFlag{
			Name:  "dump",
			Usage: "write every transaction as YAML to standard error",
		},
		&cli.BoolFlag{
			Name:  "verbose",
			Usage: "enable verbose logging",
		},
	}
	app.OnUsageError = func(c *cli.Context, err error, _ bool) error {
		_ = cli.ShowAppHelp(c)
		return console.Exit(2, "%v", err)
	}
	app.Before = func(c *cli.Context) error {
		charm := chlog.NewWithOptions(stderr, chlog.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.DateTime,
		})
		charm.SetColorProfile(termenv.TrueColor)
		charm.SetLevel(chlog.InfoLevel)
		if c.Bool("verbose") {
			charm.SetLevel(chlog.DebugLevel)
		}
		slog.SetDefault(slog.New(charm))
		return nil
	}
	app.Action = func(c *cli.Context) error {
		if c.NArg() > 0 {
			_ = cli.ShowAppHelp(c)
			return console.Exit(2, "unexpected argument %q", c.Args().First())
		}
		bus, err := newBus(c.String("adapter"), c.Bool("dry-run"))
		if err != nil {
			_ = cli.ShowAppHelp(c)
			return console.Exit(2, "%v", err)
		}
		if c.Bool("dump") {
			bus = i2c.NewDumper(bus, stderr)
		}
		defer func() {
			if err := bus.Close(); err != nil {
				console.Warnf("could not close bus: %v", err)
			}
		}()
		mode := format.ModeFromFlags(c.Bool("decimal"), c.Bool("binary"))
		ctx := ioctx.SetVerbose(c.Context, c.Bool("verbose"))
		slog.Debug("starting", "adapter", c.String("adapter"), "dry-run", c.Bool("dry-run"), "mode", mode)
		b := txn.New(bus, format.New(stdout, mode))
		if err := parser.New(b).Run(ctx, stdin); err != nil {
			return console.Exit(1, "%v", err)
		}
		return nil
	}
	return app
}

func newBus(name string, dryRun bool) (i2cio.Bus, error) {
	if dryRun {
		return i2c.NewDryBus(), nil
	}
	switch name {
	case "dev":
		return i2c.NewDevBus(), nil
	case "periph":
		return i2c.NewPeriphBus(), nil
	case "mcp2221":
		return adapter.NewMCP2221(), nil
	}
	return nil, fmt.Errorf("unknown adapter %q", name)
}
