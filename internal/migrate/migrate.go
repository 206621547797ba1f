package migrate

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/marshallshelly/pebble-orm/pkg/migration"
)

//go:embed sql/*.sql
var files embed.FS

const lockPollInterval = 200 * time.Millisecond

// Up applies every embedded migration not yet recorded as applied in
// schema_migrations. Replicas starting together serialize on a Postgres
// advisory lock, so each version runs once.
func Up(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	migrations, err := Migrations()
	if err != nil {
		return err
	}

	// Advisory locks belong to a session, so the executor gets a pool of
	// exactly one connection: Lock and Unlock must run on the same one.
	cfg := pool.Config()
	cfg.MaxConns = 1
	cfg.MinConns = 0
	session, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open migration session: %w", err)
	}
	defer session.Close()

	exec := migration.NewExecutor(session, "")
	if err := lock(ctx, exec); err != nil {
		return err
	}
	defer func() {
		if err := exec.Unlock(ctx); err != nil {
			log.Warn("release migration lock", "error", err)
		}
	}()
	if err := exec.Initialize(ctx); err != nil {
		return err
	}

	before, err := appliedVersions(ctx, exec)
	if err != nil {
		return err
	}
	if err := exec.ApplyAll(ctx, migrations, false); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, m := range migrations {
		if !before[m.Version] {
			log.Info("migration applied", "version", m.Version, "name", m.Name)
		}
	}
	return nil
}

// lock waits for the migration advisory lock. pg_advisory_lock returns void,
// which Executor.Lock cannot scan, so poll pg_try_advisory_lock instead.
func lock(ctx context.Context, exec *migration.Executor) error {
	for {
		acquired, err := exec.TryLock(ctx)
		if err != nil {
			return err
		}
		if acquired {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for migration lock: %w", ctx.Err())
		case <-time.After(lockPollInterval):
		}
	}
}

func appliedVersions(ctx context.Context, exec *migration.Executor) (map[string]bool, error) {
	records, err := exec.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]bool, len(records))
	for _, r := range records {
		applied[r.Version] = true
	}
	return applied, nil
}

// Migrations loads the embedded files as executor migrations. A file named
// 0001_init.sql becomes version "0001" with name "init".
func Migrations() ([]migration.Migration, error) {
	names, err := Versions()
	if err != nil {
		return nil, err
	}
	out := make([]migration.Migration, 0, len(names))
	for _, name := range names {
		body, err := files.ReadFile("sql/" + name)
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", name, err)
		}
		version, label, ok := strings.Cut(strings.TrimSuffix(name, ".sql"), "_")
		if !ok || version == "" {
			return nil, fmt.Errorf("migration %s: expected <version>_<name>.sql", name)
		}
		out = append(out, migration.Migration{Version: version, Name: label, UpSQL: string(body)})
	}
	return out, nil
}

// Versions lists the embedded migration files in apply order.
func Versions() ([]string, error) {
	entries, err := fs.ReadDir(files, "sql")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
