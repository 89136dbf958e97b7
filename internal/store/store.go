package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

var (
	// ErrNotFound is returned when a graph path does not exist or is not a regular file.
	ErrNotFound = errors.New("store: graph file not found")
	// ErrMalformedDocument is returned when a file cannot be decoded as an interchange document at all.
	ErrMalformedDocument = errors.New("store: malformed graph document")
	// ErrNoGraphsLoaded is returned by LoadAndMergeMultiple when every path failed.
	ErrNoGraphsLoaded = errors.New("store: no graphs could be loaded")
)

// GraphRepository persists, reloads and merges graphs. Failures are reported
// as error values; malformed entities inside an otherwise readable document
// are dropped and reported as diagnostics instead.
type GraphRepository interface {
	Save(g *graphmodel.Graph, path string) error
	Load(path string) (*graphmodel.Graph, []graphmodel.Diagnostic, error)
	Exists(path string) bool
	Merge(g1, g2 *graphmodel.Graph) *graphmodel.Graph
	LoadAndMergeMultiple(paths []string) (*graphmodel.Graph, BatchReport, error)
}

// Ensures JSONStore implements GraphRepository at compile time.
var _ GraphRepository = (*JSONStore)(nil)

// FailedPath records one path a batch could not load.
type FailedPath struct {
	Path string
	Err  error
}

// BatchReport is the tally of a multi-file load.
type BatchReport struct {
	Loaded      []string
	Failed      []FailedPath
	Diagnostics int
}

func (r BatchReport) Total() int { return len(r.Loaded) + len(r.Failed) }

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}
