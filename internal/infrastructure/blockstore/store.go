package blockstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"coinbridge/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"
)

// Store persists block identifiers resolved from the node. Blocks are
// immutable, so rows are written once and only ever read back.
type Store struct {
	db     *sql.DB
	driver string
}

type Config struct {
	Driver string // "sqlite" or "mysql"
	DSN    string
}

func NewStore(cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("block db dsn is required")
	}
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite"
	}
	if driver != "sqlite" && driver != "mysql" {
		return nil, fmt.Errorf("unsupported block db driver %q", driver)
	}
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := createSchema(db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, driver: driver}, nil
}

func createSchema(db *sql.DB, driver string) error {
	schema := `CREATE TABLE IF NOT EXISTS blocks (
		block_index BIGINT NOT NULL PRIMARY KEY,
		block_hash VARCHAR(128) NOT NULL,
		end_version BIGINT NOT NULL
	)`
	if driver == "sqlite" {
		schema = `CREATE TABLE IF NOT EXISTS blocks (
			block_index INTEGER PRIMARY KEY,
			block_hash TEXT NOT NULL,
			end_version INTEGER NOT NULL
		)`
	}
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	index := `CREATE INDEX IF NOT EXISTS idx_blocks_hash ON blocks (block_hash)`
	if driver == "mysql" {
		// MySQL has no CREATE INDEX IF NOT EXISTS; duplicate-key errors on
		// restart are expected and ignored.
		if _, err := db.Exec(`CREATE INDEX idx_blocks_hash ON blocks (block_hash)`); err != nil {
			return nil
		}
		return nil
	}
	_, err := db.Exec(index)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) BlockByIndex(ctx context.Context, index uint64) (domain.BlockIdentifier, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT block_index, block_hash, end_version FROM blocks WHERE block_index = ?`, index)
	return scanBlock(row)
}

func (s *Store) BlockByHash(ctx context.Context, hash string) (domain.BlockIdentifier, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT block_index, block_hash, end_version FROM blocks WHERE block_hash = ?`, hash)
	return scanBlock(row)
}

func (s *Store) SaveBlock(ctx context.Context, block domain.BlockIdentifier) error {
	stmt := `INSERT INTO blocks (block_index, block_hash, end_version) VALUES (?, ?, ?)
		 ON CONFLICT (block_index) DO NOTHING`
	if s.driver == "mysql" {
		stmt = `INSERT IGNORE INTO blocks (block_index, block_hash, end_version) VALUES (?, ?, ?)`
	}
	_, err := s.db.ExecContext(ctx, stmt, block.Index, block.Hash, block.EndVersion)
	return err
}

func scanBlock(row *sql.Row) (domain.BlockIdentifier, bool, error) {
	var block domain.BlockIdentifier
	err := row.Scan(&block.Index, &block.Hash, &block.EndVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.BlockIdentifier{}, false, nil
	}
	if err != nil {
		return domain.BlockIdentifier{}, false, err
	}
	return block, true, nil
}
