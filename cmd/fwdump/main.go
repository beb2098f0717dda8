package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func printFatal(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "fwdump"
	app.Usage = "encode and inspect flyweight frames"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "config, c", Usage: "YAML config with encode defaults"},
		cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides config)"},
	}
	app.Commands = []cli.Command{
		{
			Name:      "encode",
			Aliases:   []string{"e"},
			Usage:     "encode values as records of a builtin schema",
			ArgsUsage: "VALUE...",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "schema, s", Usage: "builtin schema name, see 'fwdump schemas'"},
				cli.StringFlag{Name: "out, o", Usage: "output file, stdout when empty"},
				cli.StringFlag{Name: "compression", Usage: "none, zstd, s2 or lz4"},
				cli.StringFlag{Name: "byte-order", Usage: "little or big"},
				cli.IntFlag{Name: "max-record-size", Usage: "reject records larger than N bytes"},
				cli.BoolFlag{Name: "stdin", Usage: "read one value per line from stdin"},
			},
			Action: encodeCommand,
		},
		{
			Name:      "inspect",
			Aliases:   []string{"i"},
			Usage:     "verify a frame and print its header and records",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				cli.BoolFlag{Name: "header-only", Usage: "skip decoding records"},
			},
			Action: inspectCommand,
		},
		{
			Name:   "schemas",
			Usage:  "list builtin schemas and their ids",
			Action: schemasCommand,
		},
	}

	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		printFatal("fwdump: %v", err)
	}
}
