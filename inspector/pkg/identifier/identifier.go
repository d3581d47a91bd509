// Package identifier resolves the compound race identifier of a row regardless of how the
// writer encoded it.
//
// The identifier has four sub-fields (venue code, meeting sequence, day sequence, race number).
// Writers store it either as one structured column ("id" holding a group) or as flattened
// columns following the "parent.child" convention ("id.JyoCD", "id.Kaiji", ...).
package identifier

import (
	"github.com/malbeclabs/jvlake/inspector/pkg/table"
)

const (
	DefaultParent = "id"

	JyoCD   = "JyoCD"   // venue code
	Kaiji   = "Kaiji"   // meeting sequence
	Nichiji = "Nichiji" // day sequence
	RaceNum = "RaceNum" // race number
)

// SubFields lists the identifier sub-fields in display order.
var SubFields = [4]string{JyoCD, Kaiji, Nichiji, RaceNum}

// DefaultNameColumns are the descriptive race-name columns, in lookup order.
var DefaultNameColumns = []string{"RaceName", "race_name"}

// Shape is the physical encoding the identifier was resolved from.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeStructured
	ShapeFlattened
)

func (s Shape) String() string {
	switch s {
	case ShapeStructured:
		return "structured"
	case ShapeFlattened:
		return "flattened"
	default:
		return "absent"
	}
}

type SubField struct {
	Name    string
	Value   any
	Present bool
}

type Identifier struct {
	Shape  Shape
	Fields [4]SubField
}

// Get returns a sub-field by name.
func (id Identifier) Get(name string) (any, bool) {
	for _, f := range id.Fields {
		if f.Name == name {
			return f.Value, f.Present
		}
	}
	return nil, false
}

type Extractor struct {
	parent      string
	nameColumns []string
}

type Option func(*Extractor)

// WithParent sets the structured column name, which is also the flattened column prefix.
func WithParent(parent string) Option {
	return func(e *Extractor) { e.parent = parent }
}

func WithNameColumns(cols ...string) Option {
	return func(e *Extractor) { e.nameColumns = cols }
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		parent:      DefaultParent,
		nameColumns: DefaultNameColumns,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) flatColumn(sub string) string {
	return e.parent + "." + sub
}

// Extract resolves the identifier of row i. It never fails; sub-fields that cannot be found
// are returned with Present unset.
//
// A structured value in the parent column wins outright; flattened columns are only read when
// the row holds no structured value.
func (e *Extractor) Extract(t *table.Table, i int) Identifier {
	id := Identifier{Shape: ShapeAbsent}
	for j, name := range SubFields {
		id.Fields[j] = SubField{Name: name}
	}

	if v, ok := t.Value(i, e.parent); ok {
		if m, ok := table.Structured(v); ok {
			id.Shape = ShapeStructured
			for j, name := range SubFields {
				if sv, ok := m[name]; ok && sv != nil {
					id.Fields[j].Value = sv
					id.Fields[j].Present = true
				}
			}
			return id
		}
	}

	if !e.hasFlattened(t) {
		return id
	}
	id.Shape = ShapeFlattened
	for j, name := range SubFields {
		if v, ok := t.Value(i, e.flatColumn(name)); ok {
			id.Fields[j].Value = v
			id.Fields[j].Present = true
		}
	}
	return id
}

func (e *Extractor) hasFlattened(t *table.Table) bool {
	for _, name := range SubFields {
		if t.HasColumn(e.flatColumn(name)) {
			return true
		}
	}
	return false
}

// Name returns the descriptive race name of row i, if the table carries one.
func (e *Extractor) Name(t *table.Table, i int) (any, bool) {
	col, ok := t.FirstColumn(e.nameColumns...)
	if !ok {
		return nil, false
	}
	return t.Value(i, col)
}
