package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/kgraph/pkg/graphmodel"
)

const (
	sqlCreateGraphs = `
        CREATE TABLE IF NOT EXISTS kg_graphs (
            name TEXT PRIMARY KEY,
            metadata JSONB NOT NULL DEFAULT '{}',
            node_count INTEGER NOT NULL,
            edge_count INTEGER NOT NULL,
            published_at TIMESTAMPTZ NOT NULL
        );
    `
	sqlCreateNodes = `
        CREATE TABLE IF NOT EXISTS kg_graph_nodes (
            graph_name TEXT NOT NULL REFERENCES kg_graphs (name) ON DELETE CASCADE,
            ordinal INTEGER NOT NULL,
            id TEXT NOT NULL,
            type TEXT NOT NULL,
            properties JSONB NOT NULL DEFAULT '{}',
            PRIMARY KEY (graph_name, ordinal)
        );
    `
	sqlCreateEdges = `
        CREATE TABLE IF NOT EXISTS kg_graph_edges (
            graph_name TEXT NOT NULL REFERENCES kg_graphs (name) ON DELETE CASCADE,
            ordinal INTEGER NOT NULL,
            source TEXT NOT NULL,
            target TEXT NOT NULL,
            type TEXT NOT NULL,
            properties JSONB NOT NULL DEFAULT '{}',
            directed BOOLEAN NOT NULL DEFAULT TRUE,
            PRIMARY KEY (graph_name, ordinal)
        );
    `

	sqlDeleteGraph = `DELETE FROM kg_graphs WHERE name = $1;`
	sqlInsertGraph = `
        INSERT INTO kg_graphs (name, metadata, node_count, edge_count, published_at)
        VALUES ($1, $2, $3, $4, $5);
    `
	sqlInsertNode = `
        INSERT INTO kg_graph_nodes (graph_name, ordinal, id, type, properties)
        VALUES ($1, $2, $3, $4, $5);
    `
	sqlInsertEdge = `
        INSERT INTO kg_graph_edges (graph_name, ordinal, source, target, type, properties, directed)
        VALUES ($1, $2, $3, $4, $5, $6, $7);
    `

	sqlSelectGraph = `SELECT metadata FROM kg_graphs WHERE name = $1;`
	sqlSelectNodes = `
        SELECT id, type, properties
        FROM kg_graph_nodes
        WHERE graph_name = $1
        ORDER BY ordinal ASC;
    `
	sqlSelectEdges = `
        SELECT source, target, type, properties, directed
        FROM kg_graph_edges
        WHERE graph_name = $1
        ORDER BY ordinal ASC;
    `
)

// PostgresStore publishes named graphs to PostgreSQL, preserving node and edge order.
type PostgresStore struct {
	pool DBPool
	log  *zap.Logger
}

// Connect opens a pgx pool for the given connection string.
func Connect(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	return pool, nil
}

// NewPostgresStore creates a new store instance and verifies the connection.
func NewPostgresStore(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresStore{
		pool: pool,
		log:  logger.Named("postgres_store"),
	}, nil
}

// EnsureSchema creates the graph tables if they do not exist.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, ddl := range []string{sqlCreateGraphs, sqlCreateNodes, sqlCreateEdges} {
		if _, err := p.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

// SaveGraph replaces the graph stored under name with g in a single transaction.
func (p *PostgresStore) SaveGraph(ctx context.Context, name string, g *graphmodel.Graph) error {
	if g == nil {
		return errors.New("cannot publish a nil graph")
	}
	meta, err := encodeProperties(g.Metadata())
	if err != nil {
		return fmt.Errorf("failed to encode graph metadata: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			p.log.Error("Failed to rollback transaction", zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlDeleteGraph, name); err != nil {
		return fmt.Errorf("failed to delete previous version of %q: %w", name, err)
	}
	if _, err := tx.Exec(ctx, sqlInsertGraph, name, meta, g.Len(), len(g.Edges()), time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert graph %q: %w", name, err)
	}

	for i, n := range g.Nodes() {
		props, err := encodeProperties(n.Properties)
		if err != nil {
			return fmt.Errorf("failed to encode properties of node %s: %w", n.ID, err)
		}
		if _, err := tx.Exec(ctx, sqlInsertNode, name, i, n.ID, n.Type, props); err != nil {
			return fmt.Errorf("failed to insert node %s (index %d): %w", n.ID, i, err)
		}
	}
	for i, e := range g.Edges() {
		props, err := encodeProperties(e.Properties)
		if err != nil {
			return fmt.Errorf("failed to encode properties of edge %d: %w", i, err)
		}
		if _, err := tx.Exec(ctx, sqlInsertEdge, name, i, e.Source, e.Target, e.Type, props, e.Directed); err != nil {
			return fmt.Errorf("failed to insert edge %s->%s (index %d): %w", e.Source, e.Target, i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	p.log.Info("Graph published", zap.String("name", name), zap.Int("nodes", g.Len()), zap.Int("edges", len(g.Edges())))
	return nil
}

// LoadGraph reads the graph stored under name. Edges whose endpoints are
// missing are dropped with a warning, as on file load.
func (p *PostgresStore) LoadGraph(ctx context.Context, name string) (*graphmodel.Graph, error) {
	meta, err := p.loadMetadata(ctx, name)
	if err != nil {
		return nil, err
	}
	g := graphmodel.NewGraph()
	g.SetMetadata(meta)

	rows, err := p.pool.Query(ctx, sqlSelectNodes, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}
	known := make(map[string]struct{})
	for rows.Next() {
		var id, nodeType, rawProps string
		if err := rows.Scan(&id, &nodeType, &rawProps); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan node row: %w", err)
		}
		props, err := graphmodel.DecodeProperties([]byte(rawProps))
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to decode properties of node %s: %w", id, err)
		}
		_ = g.AddNode(graphmodel.NewNode(id, nodeType, props))
		known[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during node iteration: %w", err)
	}

	rows, err = p.pool.Query(ctx, sqlSelectEdges, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query edges: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var source, target, edgeType, rawProps string
		var directed bool
		if err := rows.Scan(&source, &target, &edgeType, &rawProps, &directed); err != nil {
			return nil, fmt.Errorf("failed to scan edge row: %w", err)
		}
		props, err := graphmodel.DecodeProperties([]byte(rawProps))
		if err != nil {
			return nil, fmt.Errorf("failed to decode properties of edge %s->%s: %w", source, target, err)
		}
		e := graphmodel.NewEdge(source, target, edgeType, props)
		e.Directed = directed
		if reason := unresolved(known, e); reason != "" {
			p.log.Warn("Dropping edge with unresolved endpoint", zap.String("graph", name), zap.String("reason", reason))
			continue
		}
		_ = g.AddEdge(e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during edge iteration: %w", err)
	}
	return g, nil
}

func (p *PostgresStore) loadMetadata(ctx context.Context, name string) (graphmodel.Properties, error) {
	rows, err := p.pool.Query(ctx, sqlSelectGraph, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query graph %q: %w", name, err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to query graph %q: %w", name, err)
		}
		return nil, fmt.Errorf("%w: graph %q is not published", ErrNotFound, name)
	}
	var rawMeta string
	if err := rows.Scan(&rawMeta); err != nil {
		return nil, fmt.Errorf("failed to scan graph row: %w", err)
	}
	meta, err := graphmodel.DecodeProperties([]byte(rawMeta))
	if err != nil {
		return nil, fmt.Errorf("failed to decode metadata of %q: %w", name, err)
	}
	return meta, nil
}

func encodeProperties(p graphmodel.Properties) (string, error) {
	if p == nil {
		p = graphmodel.Properties{}
	}
	b, err := graphmodel.MarshalIndent(p, 0)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
