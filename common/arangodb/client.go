package arangodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arangodb/go-driver/v2/arangodb"
	"github.com/arangodb/go-driver/v2/connection"
)

var ErrNotInitialized = errors.New("database not initialized, call EnsureDatabase first")

// Collection describes a document collection and the persistent indexes it
// needs. Each entry in Indexes is one compound index.
type Collection struct {
	Name    string
	Indexes [][]string
}

type Client interface {
	EnsureDatabase(ctx context.Context) error
	EnsureCollections(ctx context.Context, collections ...Collection) error

	// Query runs AQL and returns a cursor over the results. Callers must
	// close the cursor.
	Query(ctx context.Context, aql string, bindVars map[string]any) (Cursor, error)

	Close() error
}

type Cursor interface {
	HasMore() bool
	Read(ctx context.Context, out any) error
	Close() error
}

type Config struct {
	URL      string
	Username string
	Password string
	Database string
}

func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("arangodb URL is required")
	}
	if c.Username == "" {
		return fmt.Errorf("arangodb username is required")
	}
	if c.Database == "" {
		return fmt.Errorf("arangodb database name is required")
	}
	return nil
}

type client struct {
	arangoClient arangodb.Client
	db           arangodb.Database
	cfg          Config
}

func New(ctx context.Context, cfg Config) (Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("arangodb config: %w", err)
	}

	endpoint := connection.NewRoundRobinEndpoints([]string{cfg.URL})
	conn := connection.NewHttp2Connection(connection.DefaultHTTP2ConfigurationWrapper(endpoint, true))

	auth := connection.NewBasicAuth(cfg.Username, cfg.Password)
	if err := conn.SetAuthentication(auth); err != nil {
		return nil, fmt.Errorf("arangodb auth: %w", err)
	}

	return &client{
		arangoClient: arangodb.NewClient(conn),
		cfg:          cfg,
	}, nil
}

func (c *client) Close() error {
	return nil
}

func (c *client) EnsureDatabase(ctx context.Context) error {
	start := time.Now()

	exists, err := c.arangoClient.DatabaseExists(ctx, c.cfg.Database)
	if err != nil {
		return fmt.Errorf("check database exists: %w", err)
	}

	if !exists {
		_, err = c.arangoClient.CreateDatabase(ctx, c.cfg.Database, nil)
		if err != nil {
			return fmt.Errorf("create database: %w", err)
		}
		slog.InfoContext(ctx, "arangodb database created",
			"database", c.cfg.Database,
			"duration_ms", time.Since(start).Milliseconds())
	}

	db, err := c.arangoClient.GetDatabase(ctx, c.cfg.Database, nil)
	if err != nil {
		return fmt.Errorf("get database: %w", err)
	}
	c.db = db

	return nil
}

func (c *client) EnsureCollections(ctx context.Context, collections ...Collection) error {
	if c.db == nil {
		return ErrNotInitialized
	}

	for _, def := range collections {
		if err := c.ensureCollection(ctx, def); err != nil {
			return err
		}
	}
	return nil
}

func (c *client) ensureCollection(ctx context.Context, def Collection) error {
	exists, err := c.db.CollectionExists(ctx, def.Name)
	if err != nil {
		return fmt.Errorf("check collection %s exists: %w", def.Name, err)
	}

	if !exists {
		colType := arangodb.CollectionTypeDocument
		_, err = c.db.CreateCollectionV2(ctx, def.Name, &arangodb.CreateCollectionPropertiesV2{Type: &colType})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", def.Name, err)
		}
		slog.InfoContext(ctx, "arangodb collection created", "collection", def.Name)
	}

	if len(def.Indexes) == 0 {
		return nil
	}

	col, err := c.db.GetCollection(ctx, def.Name, nil)
	if err != nil {
		return fmt.Errorf("get collection %s: %w", def.Name, err)
	}
	for _, fields := range def.Indexes {
		// idempotent: returns the existing index when the definition matches
		if _, _, err := col.EnsurePersistentIndex(ctx, fields, nil); err != nil {
			return fmt.Errorf("ensure index %v on %s: %w", fields, def.Name, err)
		}
	}
	return nil
}

func (c *client) Query(ctx context.Context, aql string, bindVars map[string]any) (Cursor, error) {
	if c.db == nil {
		return nil, ErrNotInitialized
	}

	cursor, err := c.db.Query(ctx, aql, &arangodb.QueryOptions{BindVars: bindVars})
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	return driverCursor{cursor}, nil
}

type driverCursor struct {
	c arangodb.Cursor
}

func (d driverCursor) HasMore() bool { return d.c.HasMore() }
func (d driverCursor) Close() error  { return d.c.Close() }

func (d driverCursor) Read(ctx context.Context, out any) error {
	if _, err := d.c.ReadDocument(ctx, out); err != nil {
		return fmt.Errorf("read document: %w", err)
	}
	return nil
}

// QueryAll drains a query into a slice of T.
func QueryAll[T any](ctx context.Context, c Client, aql string, bindVars map[string]any) ([]T, error) {
	cursor, err := c.Query(ctx, aql, bindVars)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	var out []T
	for cursor.HasMore() {
		var doc T
		if err := cursor.Read(ctx, &doc); err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// QueryOne returns the first result, or found=false when the query is empty.
func QueryOne[T any](ctx context.Context, c Client, aql string, bindVars map[string]any) (doc T, found bool, err error) {
	cursor, err := c.Query(ctx, aql, bindVars)
	if err != nil {
		return doc, false, err
	}
	defer cursor.Close()

	if !cursor.HasMore() {
		return doc, false, nil
	}
	if err := cursor.Read(ctx, &doc); err != nil {
		return doc, false, err
	}
	return doc, true, nil
}
