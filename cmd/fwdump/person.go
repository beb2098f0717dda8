package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arloliu/flyweight/format"
	"github.com/arloliu/flyweight/fw"
)

const defaultPort = 8080

const (
	personID = iota
	personName
	personAge
	personPort
)

func personFields(opts ...fw.Option) []fw.Field {
	return []fw.Field{
		{Name: "id", Type: fw.Uint32(opts...), Required: true},
		{Name: "name", Type: fw.String8(opts...)},
		{Name: "age", Type: fw.Uint8(opts...)},
		{Name: "port", Type: fw.Uint16(opts...), Required: true, Default: fw.DefaultOf(func(b *fw.IntBuilder[uint16]) error {
			return b.Set(defaultPort)
		})},
	}
}

func personCodec(opts ...fw.Option) fw.Codec[*fw.OptionalListView, *fw.OptionalListBuilder] {
	schema, err := fw.NewListSchema(format.Width8, fw.PresenceBitmask, personFields(opts...), opts...)
	if err != nil {
		panic(fmt.Sprintf("fwdump: person schema: %v", err))
	}

	return fw.OptionalList(schema)
}

// parsePerson sets the fields named in s, a comma separated list of
// name=value pairs in any order.
func parsePerson(b *fw.OptionalListBuilder, s string) error {
	schema := b.Schema()
	values := make(map[int]string)
	for _, pair := range strings.Split(s, ",") {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("field %q: missing '='", pair)
		}
		i, ok := schema.Index(name)
		if !ok {
			return fmt.Errorf("unknown field %q", name)
		}
		values[i] = value
	}

	for i := range schema.FieldCount() {
		value, ok := values[i]
		if !ok {
			continue
		}
		if err := setPersonField(b, i, value); err != nil {
			return fmt.Errorf("field %s: %w", schema.Field(i).Name, err)
		}
	}

	return nil
}

func setPersonField(b *fw.OptionalListBuilder, i int, value string) error {
	switch i {
	case personName:
		return fw.SetField(b, i, func(sb *fw.StringBuilder) error { return sb.Set(value) })
	case personID:
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		return fw.SetField(b, i, func(ib *fw.IntBuilder[uint32]) error { return ib.Set(uint32(n)) })
	case personAge:
		n, err := strconv.ParseUint(value, 10, 8)
		if err != nil {
			return err
		}
		return fw.SetField(b, i, func(ib *fw.IntBuilder[uint8]) error { return ib.Set(uint8(n)) })
	default:
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			return err
		}
		return fw.SetField(b, i, func(ib *fw.IntBuilder[uint16]) error { return ib.Set(uint16(n)) })
	}
}

func showPerson(v *fw.OptionalListView) string {
	var parts []string

	if id, err := fw.FieldAs[*fw.IntView[uint32]](v, personID); err == nil {
		parts = append(parts, fmt.Sprintf("id=%d", id.Value()))
	}
	if name, err := fw.FieldAs[*fw.StringView](v, personName); err == nil {
		parts = append(parts, "name="+strconv.Quote(name.String()))
	}
	if age, err := fw.FieldAs[*fw.IntView[uint8]](v, personAge); err == nil {
		parts = append(parts, fmt.Sprintf("age=%d", age.Value()))
	}
	if port, err := fw.FieldAs[*fw.IntView[uint16]](v, personPort); err == nil {
		parts = append(parts, fmt.Sprintf("port=%d", port.Value()))
	}

	return fmt.Sprintf("%s mask=%#x", strings.Join(parts, " "), v.Bitmask())
}
