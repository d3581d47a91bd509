package table

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/malbeclabs/jvlake/inspector/pkg/partition"
	"github.com/malbeclabs/jvlake/inspector/pkg/store"
)

// DecodeError reports a file that is corrupt or not in the expected columnar format.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Loader reads parquet files from a store into tables.
type Loader struct {
	store store.Store
}

func NewLoader(s store.Store) *Loader {
	return &Loader{store: s}
}

// Load reads and decodes the referenced file. Decoding failures are returned as *DecodeError.
func (l *Loader) Load(ctx context.Context, ref partition.DataFileRef) (*Table, error) {
	data, err := l.store.ReadFile(ctx, ref.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ref.Path, err)
	}
	return Decode(ref.Path, data)
}

const readBatchSize = 256

type leaf struct {
	path     []string
	node     parquet.Node
	repeated bool
}

// Decode parses parquet bytes. Top-level columns keep schema order; nested groups become
// map[string]any and repeated leaves []any.
func Decode(path string, data []byte) (t *Table, err error) {
	// Malformed pages can panic deep inside the decoder.
	defer func() {
		if r := recover(); r != nil {
			t = nil
			err = &DecodeError{Path: path, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	schema := f.Schema()
	fields := schema.Fields()
	columns := make([]string, 0, len(fields))
	for _, field := range fields {
		columns = append(columns, field.Name())
	}

	leaves := make(map[int]leaf)
	for _, p := range schema.Columns() {
		lc, ok := schema.Lookup(p...)
		if !ok {
			continue
		}
		leaves[lc.ColumnIndex] = leaf{path: rowPath(schema, p), node: lc.Node, repeated: lc.MaxRepetitionLevel > 0}
	}

	rows := make([]Row, 0, f.NumRows())
	buf := make([]parquet.Row, readBatchSize)
	for _, rg := range f.RowGroups() {
		reader := rg.Rows()
		for {
			n, readErr := reader.ReadRows(buf)
			for _, r := range buf[:n] {
				rows = append(rows, buildRow(r, leaves))
			}
			if errors.Is(readErr, io.EOF) {
				break
			}
			if readErr != nil {
				_ = reader.Close()
				return nil, &DecodeError{Path: path, Err: readErr}
			}
			if n == 0 {
				break
			}
		}
		if err := reader.Close(); err != nil {
			return nil, &DecodeError{Path: path, Err: err}
		}
	}

	return New(columns, rows), nil
}

// rowPath maps a column path onto row keys. LIST wrappers are folded into the list column
// itself, so tags.list.element is stored under tags.
func rowPath(root parquet.Node, columnPath []string) []string {
	out := make([]string, 0, len(columnPath))
	node := root
	for i := 0; i < len(columnPath); i++ {
		if node = child(node, columnPath[i]); node == nil {
			return columnPath
		}
		out = append(out, columnPath[i])
		if !isList(node) || i+1 >= len(columnPath) {
			continue
		}
		// Three-level lists carry an element field under the repeated group; two-level
		// lists repeat the element directly.
		i++
		if node = child(node, columnPath[i]); node == nil {
			return columnPath
		}
		if !node.Leaf() && len(node.Fields()) == 1 && i+1 < len(columnPath) {
			i++
			if node = child(node, columnPath[i]); node == nil {
				return columnPath
			}
		}
	}
	return out
}

func child(node parquet.Node, name string) parquet.Node {
	for _, f := range node.Fields() {
		if f.Name() == name {
			return f
		}
	}
	return nil
}

func isList(node parquet.Node) bool {
	if node.Leaf() {
		return false
	}
	if lt := node.Type().LogicalType(); lt != nil && lt.List != nil {
		return true
	}
	// Writers that only set the converted type still use the repeated "list" group.
	fields := node.Fields()
	return len(fields) == 1 && fields[0].Name() == "list" && fields[0].Repeated() && !fields[0].Leaf()
}

func buildRow(values parquet.Row, leaves map[int]leaf) Row {
	row := make(Row)
	for _, v := range values {
		if v.IsNull() {
			continue
		}
		l, ok := leaves[v.Column()]
		if !ok || len(l.path) == 0 {
			continue
		}
		setPath(row, l.path, convertValue(l.node, v), l.repeated)
	}
	return row
}

// setPath stores value under the nested path, creating intermediate maps. Repeated leaves
// accumulate into a slice.
func setPath(m map[string]any, path []string, value any, repeated bool) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = make(map[string]any)
			m[key] = next
		}
		m = next
	}
	last := path[len(path)-1]
	if !repeated {
		m[last] = value
		return
	}
	list, _ := m[last].([]any)
	m[last] = append(list, value)
}

func convertValue(node parquet.Node, v parquet.Value) any {
	lt := node.Type().LogicalType()

	switch v.Kind() {
	case parquet.Boolean:
		return v.Boolean()
	case parquet.Int32:
		if lt != nil && lt.Date != nil {
			return time.Unix(int64(v.Int32())*86400, 0).UTC()
		}
		return v.Int32()
	case parquet.Int64:
		if lt != nil && lt.Timestamp != nil {
			return timestamp(v.Int64(), lt.Timestamp.Unit.Millis != nil, lt.Timestamp.Unit.Micros != nil)
		}
		return v.Int64()
	case parquet.Int96:
		return int96Time(v.Int96())
	case parquet.Float:
		return v.Float()
	case parquet.Double:
		return v.Double()
	case parquet.ByteArray, parquet.FixedLenByteArray:
		// Byte arrays in this lake are text, with or without a UTF8 annotation.
		return string(v.ByteArray())
	default:
		return v.String()
	}
}

// Julian day number of 1970-01-01.
const julianUnixEpoch = 2440588

// int96Time decodes the legacy INT96 timestamp: nanoseconds of the day in the low eight
// bytes and the Julian day in the high four.
func int96Time(i [3]uint32) time.Time {
	nanos := int64(i[1])<<32 | int64(i[0])
	days := int64(i[2]) - julianUnixEpoch
	return time.Unix(days*86400, nanos).UTC()
}

func timestamp(n int64, millis, micros bool) time.Time {
	switch {
	case millis:
		return time.UnixMilli(n).UTC()
	case micros:
		return time.UnixMicro(n).UTC()
	default:
		return time.Unix(0, n).UTC()
	}
}
