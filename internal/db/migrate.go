package db

import (
	"bufio"
	"context"
	"database/sql"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Migrate applies every *.sql file in fsys that is not yet recorded in
// schema_migrations, in lexical order, and returns the names it applied.
// Only the part above a "-- +migrate Down" marker is executed.
func Migrate(ctx context.Context, database *sqlx.DB, fsys fs.FS) ([]string, error) {
	if _, err := database.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (filename TEXT PRIMARY KEY, applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP)`); err != nil {
		return nil, err
	}

	files, err := fs.Glob(fsys, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	var applied []string
	for _, file := range files {
		filename := path.Base(file)
		var count int
		if err := database.GetContext(ctx, &count, database.Rebind(`SELECT COUNT(*) FROM schema_migrations WHERE filename = ?`), filename); err != nil {
			return applied, err
		}
		if count > 0 {
			continue
		}
		content, err := fs.ReadFile(fsys, file)
		if err != nil {
			return applied, err
		}
		if err := applyScript(ctx, database, string(content)); err != nil {
			return applied, err
		}
		if _, err := database.ExecContext(ctx, database.Rebind(`INSERT INTO schema_migrations (filename) VALUES (?)`), filename); err != nil {
			return applied, err
		}
		zap.L().Info("migration applied", zap.String("file", filename))
		applied = append(applied, filename)
	}
	return applied, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func applyScript(ctx context.Context, db execer, script string) error {
	up := strings.Split(script, "-- +migrate Down")[0]
	for _, stmt := range splitSQL(up) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.Contains(line, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
