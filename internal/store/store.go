// Package store provides SQLite persistence for the development backend.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"github.com/abelbrown/catalog/internal/product"
)

// ErrNotFound is returned when no product has the requested id.
var ErrNotFound = errors.New("product not found")

// Store handles SQLite persistence. NOT an interface - concrete type.
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var memSeq atomic.Uint64

// Open creates a new Store with the given database path.
// ":memory:" (or "") gives a private in-memory database.
// Uses WAL mode for better concurrent read performance (file-based DBs only).
func Open(dbPath string) (*Store, error) {
	memory := dbPath == "" || dbPath == ":memory:"

	connStr := dbPath
	if memory {
		// Named shared-cache database so every pooled connection sees the
		// same data while separate Stores stay isolated.
		connStr = fmt.Sprintf("file:catalog-%d?mode=memory&cache=shared", memSeq.Add(1))
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if !memory {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable WAL mode: %w", err)
		}
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price REAL NOT NULL CHECK (price >= 0),
		quantity INTEGER NOT NULL CHECK (quantity >= 0)
	);

	CREATE INDEX IF NOT EXISTS idx_products_name ON products(name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
// Thread-safe: acquires write lock to prevent closing during in-flight operations.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// List returns every product ordered by id.
func (s *Store) List(ctx context.Context) ([]product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.query(ctx, "SELECT id, name, description, price, quantity FROM products ORDER BY id")
}

// Get returns one product or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.get(ctx, id)
}

// Create inserts a product and returns it with its new id.
func (s *Store) Create(ctx context.Context, in product.Input) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO products (name, description, price, quantity) VALUES (?, ?, ?, ?)",
		in.Name, in.Description, in.Price, in.Quantity)
	if err != nil {
		return product.Product{}, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return product.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return product.Product{ID: id, Name: in.Name, Description: in.Description,
		Price: in.Price, Quantity: in.Quantity}, nil
}

// Update applies a partial update. Nil fields keep their current value.
func (s *Store) Update(ctx context.Context, id int64, u Patch) (product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.get(ctx, id)
	if err != nil {
		return product.Product{}, err
	}
	next := u.Apply(current)

	_, err = s.db.ExecContext(ctx,
		"UPDATE products SET name = ?, description = ?, price = ?, quantity = ? WHERE id = ?",
		next.Name, next.Description, next.Price, next.Quantity, id)
	if err != nil {
		return product.Product{}, fmt.Errorf("update product %d: %w", id, err)
	}
	return next, nil
}

// Delete removes a product or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of stored products.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Seed inserts products in one transaction.
func (s *Store) Seed(ctx context.Context, inputs []product.Input) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO products (name, description, price, quantity) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare seed: %w", err)
	}
	defer stmt.Close()

	for _, in := range inputs {
		if _, err := stmt.ExecContext(ctx, in.Name, in.Description, in.Price, in.Quantity); err != nil {
			return fmt.Errorf("seed %q: %w", in.Name, err)
		}
	}
	return tx.Commit()
}

func (s *Store) get(ctx context.Context, id int64) (product.Product, error) {
	var p product.Product
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, description, price, quantity FROM products WHERE id = ?", id).
		Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity)
	if errors.Is(err, sql.ErrNoRows) {
		return product.Product{}, ErrNotFound
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("get product %d: %w", id, err)
	}
	return p, nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]product.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []product.Product{}
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Quantity); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
}

// Apply returns p with the non-nil fields of u applied.
func (u Patch) Apply(p product.Product) product.Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	return p
}
