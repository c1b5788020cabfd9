package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn with a repository bound to a single database transaction.
// Any error returned by fn rolls back every write made through txRepo.
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// Snapshot runs fn in a read-only transaction that sees one consistent view
// of the database. SQLite transactions already do; PostgreSQL needs
// REPEATABLE READ, since READ COMMITTED takes a new view per statement.
func (r *Repository) Snapshot(ctx context.Context, fn func(txRepo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	}, snapshotOptions(r.db.Dialector.Name())...)
}

func snapshotOptions(dialect string) []*sql.TxOptions {
	if dialect != "postgres" {
		return nil
	}
	return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead, ReadOnly: true}}
}
