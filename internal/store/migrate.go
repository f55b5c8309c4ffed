// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package store

import (
	"embed"
	"errors"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Registers the pgx5:// driver with golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema revision.
type Migration struct {
	Version uint
	Name    string
}

// Status summarizes the schema state of a database.
type Status struct {
	Version uint
	Dirty   bool
	Applied []Migration
	Pending []Migration
}

type migrationEngine interface {
	Up() error
	Down() error
	Steps(n int) error
	Version() (version uint, dirty bool, err error)
	Force(version int) error
	Close() (source error, database error)
}

// Migrator applies the embedded schema migrations.
type Migrator struct {
	engine migrationEngine
}

// NewMigrator opens a migrator against databaseURL. postgres:// and
// postgresql:// URLs are rewritten to the pgx5:// scheme.
func NewMigrator(databaseURL string) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, migrationsDir)
	if err != nil {
		return nil, oops.Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}

	engine, err := migrate.NewWithSourceInstance("iofs", source, migrateURL(databaseURL))
	if err != nil {
		_ = source.Close() //nolint:errcheck // init error wins
		return nil, oops.Code("MIGRATION_INIT_FAILED").Wrap(err)
	}
	return &Migrator{engine: engine}, nil
}

func migrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(databaseURL, scheme); ok {
			return "pgx5://" + rest
		}
	}
	return databaseURL
}

// Up applies every pending migration. An up-to-date schema is not an error.
func (m *Migrator) Up() error {
	if err := m.engine.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_UP_FAILED").Wrap(err)
	}
	return nil
}

// Down reverts every migration, dropping all tables.
func (m *Migrator) Down() error {
	if err := m.engine.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_DOWN_FAILED").Wrap(err)
	}
	return nil
}

// Steps migrates n revisions up (n > 0) or down (n < 0).
func (m *Migrator) Steps(n int) error {
	if err := m.engine.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.Code("MIGRATION_STEPS_FAILED").With("steps", n).Wrap(err)
	}
	return nil
}

// Version reports the applied version. A fresh database reports 0.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.engine.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, oops.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	return version, dirty, nil
}

// Force records version as applied without running anything. It is the
// recovery path for a dirty schema.
func (m *Migrator) Force(version int) error {
	if version < 0 {
		return oops.Code("INVALID_VERSION").Errorf("version must be non-negative, got %d", version)
	}
	if err := m.engine.Force(version); err != nil {
		return oops.Code("MIGRATION_FORCE_FAILED").With("version", version).Wrap(err)
	}
	return nil
}

// Status compares the applied version with the embedded migrations.
func (m *Migrator) Status() (Status, error) {
	version, dirty, err := m.Version()
	if err != nil {
		return Status{}, err
	}
	all, err := Migrations()
	if err != nil {
		return Status{}, err
	}

	st := Status{Version: version, Dirty: dirty}
	for _, mig := range all {
		if mig.Version <= version {
			st.Applied = append(st.Applied, mig)
		} else {
			st.Pending = append(st.Pending, mig)
		}
	}
	return st, nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	srcErr, dbErr := m.engine.Close()
	switch {
	case srcErr != nil && dbErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").Errorf("source: %v; database: %v", srcErr, dbErr)
	case srcErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "source").Wrap(srcErr)
	case dbErr != nil:
		return oops.Code("MIGRATION_CLOSE_FAILED").With("component", "database").Wrap(dbErr)
	}
	return nil
}

var (
	migrationsOnce sync.Once
	migrationsList []Migration
	migrationsErr  error
)

// Migrations lists the embedded migrations in ascending version order.
func Migrations() ([]Migration, error) {
	migrationsOnce.Do(func() {
		migrationsList, migrationsErr = loadMigrations(migrationsFS)
	})
	if migrationsErr != nil {
		return nil, migrationsErr
	}
	return slices.Clone(migrationsList), nil
}

// loadMigrations reads NNNNNN_name.up.sql entries. Files that do not follow
// the pattern are ignored.
func loadMigrations(fsys fs.ReadDirFS) ([]Migration, error) {
	entries, err := fsys.ReadDir(migrationsDir)
	if err != nil {
		return nil, oops.Code("MIGRATION_LIST_FAILED").Wrap(err)
	}

	var out []Migration
	for _, entry := range entries {
		base, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		num, _, ok := strings.Cut(base, "_")
		if !ok {
			continue
		}
		version, err := strconv.ParseUint(num, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Migration{Version: uint(version), Name: base})
	}
	slices.SortFunc(out, func(a, b Migration) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	return out, nil
}

// MigrationName returns the NNNNNN_name label for version, or "" when no
// embedded migration has that version.
func MigrationName(version uint) (string, error) {
	all, err := Migrations()
	if err != nil {
		return "", err
	}
	for _, mig := range all {
		if mig.Version == version {
			return mig.Name, nil
		}
	}
	return "", nil
}
