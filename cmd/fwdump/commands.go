package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/arloliu/flyweight/endian"
	"github.com/arloliu/flyweight/frame"
	"github.com/arloliu/flyweight/internal/collision"
)

type env struct {
	cfg    Config
	log    *zap.Logger
	schema *collision.Registry[recordType]
}

func setup(c *cli.Context) (*env, error) {
	cfg, err := loadConfig(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}
	if level := c.GlobalString("log-level"); level != "" {
		cfg.LogLevel = level
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	frame.SetLogger(logger)

	reg, err := newRegistry()
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, log: logger, schema: reg}, nil
}

func encodeCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync() //nolint:errcheck

	if c.IsSet("compression") {
		e.cfg.Compression = c.String("compression")
	}
	if c.IsSet("byte-order") {
		e.cfg.ByteOrder = c.String("byte-order")
	}
	if c.IsSet("max-record-size") {
		e.cfg.MaxRecordSize = c.Int("max-record-size")
	}

	values := []string(c.Args())
	if c.Bool("stdin") {
		if values, err = readLines(os.Stdin); err != nil {
			return err
		}
	}

	data, err := encodeValues(e, c.String("schema"), values)
	if err != nil {
		return err
	}

	out := c.String("out")
	if out == "" {
		_, err = c.App.Writer.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec
		return err
	}
	e.log.Info("frame written",
		zap.String("file", out),
		zap.String("schema", c.String("schema")),
		zap.Int("records", len(values)),
		zap.Int("bytes", len(data)),
	)

	return nil
}

// encodeValues encodes one record per value into a frame of the named
// builtin schema.
func encodeValues(e *env, schema string, values []string) ([]byte, error) {
	if schema == "" {
		return nil, fmt.Errorf("missing --schema")
	}
	id, rt, ok := e.schema.Get(schema)
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", schema)
	}
	opts, err := e.cfg.writerOptions()
	if err != nil {
		return nil, err
	}

	w, err := frame.NewWriter(id, opts...)
	if err != nil {
		return nil, err
	}
	if err := rt.encode(w, values); err != nil {
		return nil, err
	}

	return w.Finish()
}

func inspectCommand(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync() //nolint:errcheck

	if c.NArg() != 1 {
		return fmt.Errorf("inspect takes exactly one FILE")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return err
	}

	return inspectFrame(e, data, c.App.Writer, c.Bool("header-only"))
}

// inspectFrame verifies data and prints its header, then every record when
// the schema is a builtin and headerOnly is false.
func inspectFrame(e *env, data []byte, out io.Writer, headerOnly bool) error {
	f, err := frame.Decode(data)
	if err != nil {
		return err
	}
	h := f.Header
	name, rt, known := e.schema.Lookup(h.SchemaID)
	if !known {
		name = "unknown"
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "schema\t%s (%#016x)\n", name, h.SchemaID)
	fmt.Fprintf(tw, "byte order\t%s\n", endian.Name(h.Engine()))
	fmt.Fprintf(tw, "native order\t%s\n", nativeOrder(h.Engine()))
	fmt.Fprintf(tw, "compression\t%s\n", h.Compression)
	fmt.Fprintf(tw, "records\t%d\n", h.RecordCount)
	fmt.Fprintf(tw, "payload\t%d bytes raw, %d bytes stored\n", h.RawLen, h.StoredLen)
	fmt.Fprintf(tw, "checksum\t%#016x ok\n", h.Checksum)
	if err := tw.Flush(); err != nil {
		return err
	}

	if headerOnly || !known {
		return nil
	}
	fmt.Fprintf(out, "%6s %8s %8s  %s\n", "#", "offset", "size", "value")

	return rt.dump(f, out)
}

// nativeOrder names the host byte order and whether records of engine can
// be read without swapping.
func nativeOrder(engine endian.EndianEngine) string {
	name := "little"
	if !endian.IsNativeLittleEndian() {
		name = "big"
	}
	if endian.CompareNativeEndian(engine) {
		return name + ", matches records"
	}

	return name + ", records swapped"
}

func schemasCommand(c *cli.Context) error {
	reg, err := newRegistry()
	if err != nil {
		return err
	}

	return listSchemas(reg, c.App.Writer)
}

func listSchemas(reg *collision.Registry[recordType], out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, name := range reg.Names() {
		id, rt, _ := reg.Get(name)
		fmt.Fprintf(tw, "%s\t%#016x\t%s\n", name, id, rt.usage)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d builtin schemas\n", reg.Count())

	return err
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}

	return lines, sc.Err()
}
