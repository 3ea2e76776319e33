package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/gitscope/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/gitscope/internal/core/domain"
	"github.com/custodia-labs/gitscope/internal/core/ports/driven"
)

// Default keys of the GitHub token row.
const (
	DefaultService = "gitscope.github"
	DefaultAccount = "default"
)

// DatabaseFileName is the name of the database inside the data directory.
const DatabaseFileName = "credentials.db"

// Sealer encrypts secrets before they are written.
type Sealer interface {
	Seal(plaintext, aad []byte) ([]byte, error)
	Open(sealed, aad []byte) ([]byte, error)
}

// Store is a SQLite database holding sealed credentials.
type Store struct {
	db     *sql.DB
	path   string
	sealer Sealer
}

// DefaultDataDir returns ~/.gitscope/data.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".gitscope", "data"), nil
}

// NewStore opens or creates the database in dataDir.
// If dataDir is empty, DefaultDataDir is used.
func NewStore(dataDir string, sealer Sealer) (*Store, error) {
	if sealer == nil {
		return nil, errors.New("sqlite: sealer is required")
	}
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return nil, err
		}
		dataDir = dir
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFileName)

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:     db,
		path:   dbPath,
		sealer: sealer,
	}

	if err := s.migrate(migrations.Up); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	if err := os.Chmod(dbPath, 0600); err != nil && !errors.Is(err, os.ErrNotExist) {
		db.Close()
		return nil, fmt.Errorf("restricting database permissions: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// TokenStore returns the store for the GitHub token row.
func (s *Store) TokenStore() driven.TokenStore {
	return s.Secret(DefaultService, DefaultAccount)
}

// Secret returns a token store for an arbitrary service and account pair.
func (s *Store) Secret(service, account string) driven.TokenStore {
	return &tokenStore{store: s, service: service, account: account}
}

func (s *Store) migrate(fsys fs.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	currentVersion, err := s.schemaVersion(context.Background())
	if err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_credentials.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// schemaVersion returns the highest applied migration.
func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&v)
	return v, err
}

// ==================== TokenStore Implementation ====================

type tokenStore struct {
	store   *Store
	service string
	account string
}

var _ driven.TokenStore = (*tokenStore)(nil)

func (t *tokenStore) aad() []byte {
	return []byte(t.service + "/" + t.account)
}

// Load returns the decrypted token.
func (t *tokenStore) Load(ctx context.Context) (string, error) {
	var sealed []byte
	err := t.store.db.QueryRowContext(ctx,
		"SELECT secret FROM credentials WHERE service = ? AND account = ?",
		t.service, t.account,
	).Scan(&sealed)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading credential: %w", err)
	}

	plain, err := t.store.sealer.Open(sealed, t.aad())
	if err != nil {
		return "", fmt.Errorf("decrypting credential: %w", err)
	}
	return string(plain), nil
}

// Save encrypts and upserts the token.
func (t *tokenStore) Save(ctx context.Context, token string) error {
	sealed, err := t.store.sealer.Seal([]byte(token), t.aad())
	if err != nil {
		return fmt.Errorf("encrypting credential: %w", err)
	}
	_, err = t.store.db.ExecContext(ctx, `
		INSERT INTO credentials (service, account, secret, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(service, account) DO UPDATE SET
			secret = excluded.secret,
			updated_at = excluded.updated_at
	`, t.service, t.account, sealed, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving credential: %w", err)
	}
	return nil
}

// Delete removes the row. A missing row is not an error.
func (t *tokenStore) Delete(ctx context.Context) error {
	_, err := t.store.db.ExecContext(ctx,
		"DELETE FROM credentials WHERE service = ? AND account = ?",
		t.service, t.account,
	)
	if err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}
