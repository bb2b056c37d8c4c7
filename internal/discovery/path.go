package discovery

import (
	"strconv"
	"strings"
)

// Segment is one step from the document root: a field name or an array index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Path locates a node in the document. The zero value is the root.
type Path []Segment

// Field returns p extended by a field step. p itself is not modified.
func (p Path) Field(key string) Path {
	return p.extend(Segment{Key: key})
}

// Index returns p extended by an index step. p itself is not modified.
func (p Path) Index(i int) Path {
	return p.extend(Segment{Index: i, IsIndex: true})
}

func (p Path) extend(s Segment) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, s)
}

// String renders the path with dots between fields and brackets for
// indexes, e.g. "Data.Result" or "items[0].tags". The root renders empty.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		if s.IsIndex {
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.Index))
			b.WriteByte(']')
			continue
		}
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s.Key)
	}
	return b.String()
}

// LastField returns the final field name in the path, skipping trailing
// index steps. It returns false when the path has no field step.
func (p Path) LastField() (string, bool) {
	for i := len(p) - 1; i >= 0; i-- {
		if !p[i].IsIndex {
			return p[i].Key, true
		}
	}
	return "", false
}

// Depth returns the number of steps in the path.
func (p Path) Depth() int {
	return len(p)
}
