package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/arloliu/flyweight/format"
	"github.com/arloliu/flyweight/frame"
	"github.com/arloliu/flyweight/fw"
	"github.com/arloliu/flyweight/internal/collision"
)

// nullLiteral encodes and prints a null string.
const nullLiteral = `\N`

// recordType encodes command line values as records and prints decoded
// records of one builtin schema.
type recordType struct {
	usage  string
	encode func(w *frame.Writer, values []string) error
	dump   func(f *frame.Frame, out io.Writer) error
}

// record builds a recordType from a codec factory taking the frame byte
// order, a parser filling a builder from one value and a printer.
func record[V fw.View, B fw.Builder](
	usage string,
	codec func(opts ...fw.Option) fw.Codec[V, B],
	parse func(b B, s string) error,
	show func(v V) string,
) recordType {
	return recordType{
		usage: usage,
		encode: func(w *frame.Writer, values []string) error {
			b := codec(fw.WithEngine(w.Engine())).NewBuilder()
			for _, s := range values {
				if _, err := frame.Append(w, b, func(b B) error { return parse(b, s) }); err != nil {
					return fmt.Errorf("value %q: %w", s, err)
				}
			}

			return nil
		},
		dump: func(f *frame.Frame, out io.Writer) error {
			v := codec(fw.WithEngine(f.Engine())).NewView()
			return frame.Each(f, v, func(i int, v V) error {
				_, err := fmt.Fprintf(out, "%6d %8d %8d  %s\n", i, v.Offset(), v.Sizeof(), show(v))
				return err
			})
		},
	}
}

type (
	tagList   = fw.ListView[*fw.StringVariantView]
	tagsBuild = fw.ListBuilder[*fw.StringVariantView, *fw.StringVariantBuilder]
	labelMap  = fw.MapView[*fw.StringView, *fw.IntView[uint32]]
	labelsB   = fw.MapBuilder[*fw.StringView, *fw.StringBuilder, *fw.IntView[uint32], *fw.IntBuilder[uint32]]
)

var builtinOrder = []string{"varint64", "uint64", "string16", "int-variant", "tags", "labels", "person"}

var builtins = map[string]recordType{
	"varint64": record("signed integers, zigzag varint",
		func(...fw.Option) fw.Codec[*fw.Varint64View, *fw.Varint64Builder] { return fw.Varint64() },
		func(b *fw.Varint64Builder, s string) error {
			x, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return err
			}
			return b.Set(x)
		},
		func(v *fw.Varint64View) string { return strconv.FormatInt(v.Value(), 10) },
	),
	"uint64": record("unsigned 64-bit integers",
		fw.Uint64,
		func(b *fw.IntBuilder[uint64], s string) error {
			x, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				return err
			}
			return b.Set(x)
		},
		func(v *fw.IntView[uint64]) string { return strconv.FormatUint(v.Value(), 10) },
	),
	"string16": record(`strings with a 16-bit length, \N for null`,
		fw.String16,
		func(b *fw.StringBuilder, s string) error {
			if s == nullLiteral {
				return b.SetNull()
			}
			return b.Set(s)
		},
		showString,
	),
	"int-variant": record("signed integers in the narrowest tagged kind",
		func(opts ...fw.Option) fw.Codec[*fw.IntVariantView, *fw.IntVariantBuilder] {
			return fw.IntVariant(format.KindInt64, opts...)
		},
		func(b *fw.IntVariantBuilder, s string) error {
			x, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return err
			}
			return b.Set(x)
		},
		func(v *fw.IntVariantView) string { return fmt.Sprintf("%d (%s)", v.Value(), v.Kind()) },
	),
	"tags": record("comma separated string lists",
		func(opts ...fw.Option) fw.Codec[*tagList, *tagsBuild] {
			return fw.List(format.Width16, fw.StringVariant(format.KindString32, opts...), opts...)
		},
		func(b *tagsBuild, s string) error {
			if s == "" {
				return nil
			}
			for _, tag := range strings.Split(s, ",") {
				if err := b.Item(func(sb *fw.StringVariantBuilder) error { return sb.Set(tag) }); err != nil {
					return err
				}
			}
			return nil
		},
		func(v *tagList) string {
			tags := make([]string, 0, v.Len())
			for _, tag := range v.Items() {
				tags = append(tags, fmt.Sprintf("%s:%q", tag.Kind(), tag.String()))
			}
			return "[" + strings.Join(tags, " ") + "]"
		},
	),
	"labels": record("name=count pairs separated by commas",
		func(opts ...fw.Option) fw.Codec[*labelMap, *labelsB] {
			return fw.Map(format.Width16, fw.String8(opts...), fw.Uint32(opts...), opts...)
		},
		parseLabels,
		func(v *labelMap) string {
			pairs := make([]string, 0, v.Len())
			for k, c := range v.Entries() {
				pairs = append(pairs, fmt.Sprintf("%s=%d", k.String(), c.Value()))
			}
			return "{" + strings.Join(pairs, ", ") + "}"
		},
	),
	"person": record("id=N[,name=S][,age=N][,port=N] with id required",
		personCodec,
		parsePerson,
		showPerson,
	),
}

// newRegistry registers every builtin under its schema id.
func newRegistry() (*collision.Registry[recordType], error) {
	r := collision.NewRegistry[recordType]()
	for _, name := range builtinOrder {
		if _, err := r.Register(name, builtins[name]); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func showString(v *fw.StringView) string {
	if v.IsNull() {
		return nullLiteral
	}

	return strconv.Quote(v.String())
}

func parseLabels(b *labelsB, s string) error {
	if s == "" {
		return nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, count, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("label %q: missing '='", pair)
		}
		n, err := strconv.ParseUint(count, 10, 32)
		if err != nil {
			return fmt.Errorf("label %q: %w", pair, err)
		}
		err = b.Entry(
			func(kb *fw.StringBuilder) error { return kb.Set(name) },
			func(vb *fw.IntBuilder[uint32]) error { return vb.Set(uint32(n)) },
		)
		if err != nil {
			return err
		}
	}

	return nil
}
