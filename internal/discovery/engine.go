// Package discovery finds the arrays of objects embedded in a JSON document
// and registers each one as a table.
//
// The traversal is depth-first in document order. Once an array of objects
// is registered the walk continues into its elements, so tables nested in
// the rows of another table are found as well.
package discovery

import (
	"sort"
	"strings"
	"time"

	"github.com/dbsmedya/jsontables/internal/flatten"
	"github.com/dbsmedya/jsontables/internal/jsonvalue"
	"github.com/dbsmedya/jsontables/internal/logger"
	"github.com/dbsmedya/jsontables/internal/types"
)

// DefaultSampleSize bounds how many rows are sampled when comparing schemas.
const DefaultSampleSize = 500

// GroupSeparator joins the field names of grouped sibling tables.
const GroupSeparator = "+"

// Options controls a discovery run.
type Options struct {
	IncludeEmpty  bool       // register empty arrays as zero-row tables
	Naming        NamingMode // how names derive from paths
	Style         NameStyle  // character rules for names
	MaxNameLength int        // 0 = style limit
	GroupSiblings bool       // merge sibling tables with identical key sets
	SampleSize    int        // rows sampled per table when grouping
	Reserved      []string   // names that must not be handed out
}

// Engine discovers tables in decoded documents.
type Engine struct {
	opts   Options
	logger *logger.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(opts Options, log *logger.Logger) *Engine {
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSampleSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Engine{opts: opts, logger: log}
}

// IsTableCandidate reports whether v becomes a table: a non-empty array whose
// elements are all objects.
func IsTableCandidate(v *jsonvalue.Value) bool {
	return jsonvalue.IsArrayOfObjects(v)
}

// Discover walks doc and returns the registry of tables found. A scalar
// document or one without arrays of objects yields an empty registry.
func (e *Engine) Discover(doc *jsonvalue.Value) *types.TableSet {
	startTime := time.Now()

	namer := NewNamer(e.opts.Style, e.opts.MaxNameLength)
	namer.Reserve(e.opts.Reserved...)

	w := &walk{
		opts:   e.opts,
		logger: e.logger,
		namer:  namer,
		set:    types.NewTableSet(),
	}
	w.visit(doc, nil, 0)

	set := w.set
	set.Stats.TablesFound = set.Len()
	set.Stats.RowsFound = set.TotalRows()
	set.Stats.NodesVisited = w.nodes
	set.Stats.MaxDepth = w.maxDepth
	set.Stats.Duration = time.Since(startTime)

	e.logger.Infow("Discovery complete",
		"tables", set.Stats.TablesFound,
		"rows", set.Stats.RowsFound,
		"nodes", set.Stats.NodesVisited,
		"max_depth", set.Stats.MaxDepth,
		"duration", set.Stats.Duration,
	)
	return set
}

// walk holds the state of one Discover call.
type walk struct {
	opts     Options
	logger   *logger.Logger
	namer    *Namer
	set      *types.TableSet
	nodes    int
	maxDepth int
}

func (w *walk) visit(v *jsonvalue.Value, path Path, depth int) {
	if !v.IsContainer() {
		return
	}
	w.nodes++
	if depth > w.maxDepth {
		w.maxDepth = depth
	}

	switch {
	case IsTableCandidate(v):
		w.register(path, path.String(), v.Items())
		w.visitElements(v, path, depth)

	case v.IsObject():
		if w.opts.GroupSiblings {
			w.visitGrouped(v, path, depth)
			return
		}
		v.ForEach(func(key string, field *jsonvalue.Value) {
			w.visit(field, path.Field(key), depth+1)
		})

	case v.Len() == 0:
		if w.opts.IncludeEmpty {
			w.register(path, path.String(), nil)
		}

	default:
		for i, item := range v.Items() {
			w.visit(item, path.Index(i), depth+1)
		}
	}
}

// visitElements continues into the rows of a registered table. Rows add no
// path segment, so tables found inside them are named after their field.
func (w *walk) visitElements(v *jsonvalue.Value, path Path, depth int) {
	for _, item := range v.Items() {
		w.visit(item, path, depth+1)
	}
}

func (w *walk) register(path Path, source string, rows []*jsonvalue.Value) {
	if rows == nil {
		rows = []*jsonvalue.Value{}
	}
	name, err := w.namer.Assign(BaseName(w.opts.Naming, path))
	if err != nil {
		w.logger.Errorw("Failed to name table", "path", source, "error", err)
		return
	}

	if err := w.set.Add(&types.Table{Name: name, Path: source, Rows: rows}); err != nil {
		w.logger.Errorw("Failed to register table", "table", name, "error", err)
		return
	}
	w.logger.Debugw("Registered table", "table", name, "path", source, "rows", len(rows))
}

// visitGrouped handles an object when sibling grouping is enabled. Candidate
// fields whose sampled key sets match are registered once, as a single
// table, at the position of the first member. An empty key set never groups.
func (w *walk) visitGrouped(v *jsonvalue.Value, path Path, depth int) {
	groups := make(map[string][]string)
	signatures := make(map[string]string)
	v.ForEach(func(key string, field *jsonvalue.Value) {
		if !IsTableCandidate(field) {
			return
		}
		sig, ok := schemaSignature(field.Items(), w.opts.SampleSize)
		if !ok {
			return
		}
		signatures[key] = sig
		groups[sig] = append(groups[sig], key)
	})

	v.ForEach(func(key string, field *jsonvalue.Value) {
		sig, isCandidate := signatures[key]
		members := groups[sig]
		if !isCandidate || len(members) < 2 {
			w.visit(field, path.Field(key), depth+1)
			return
		}

		w.nodes++
		if depth+1 > w.maxDepth {
			w.maxDepth = depth + 1
		}
		if members[0] == key {
			var rows []*jsonvalue.Value
			for _, m := range members {
				f, _ := v.Get(m)
				rows = append(rows, f.Items()...)
			}
			grouped := path.Field(strings.Join(members, GroupSeparator))
			w.register(grouped, grouped.String(), rows)
		}
		w.visitElements(field, path.Field(key), depth+1)
	})
}

// schemaSignature identifies the sampled key set of rows regardless of key
// order. It reports false when the sampled rows have no keys.
func schemaSignature(rows []*jsonvalue.Value, sample int) (string, bool) {
	keys := flatten.SampleKeys(rows, sample)
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return strings.Join(keys, "\x00"), true
}
