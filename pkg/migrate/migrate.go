package migrate

import (
	"context"
	"database/sql"
	"slices"
	"strconv"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
	"github.com/pressly/goose/v3"
)

const (
	DefaultDir = "pkg/migrate/migrations"
	Dialect    = "postgres"
)

// upCommands apply schema; the directory is validated before they run.
var upCommands = []string{"up", "up-by-one", "up-to", "redo"}

// Run executes a goose command against db. Commands that apply schema first
// check that dir creates every repricer table.
func Run(ctx context.Context, db *sql.DB, dir string, command string, args ...string) error {
	if db == nil || dir == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "db and migrations dir are required")
	}
	if slices.Contains(upCommands, command) {
		if err := ValidateDir(dir, RepricerTables...); err != nil {
			return err
		}
	}

	// migrations use postgres arrays
	if err := goose.SetDialect(Dialect); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set goose dialect")
	}
	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "goose "+command)
	}
	return nil
}

// MigrateToVersion moves the schema up or down to targetVersion.
func MigrateToVersion(ctx context.Context, db *sql.DB, dir string, targetVersion string) error {
	target, err := strconv.ParseInt(targetVersion, 10, 64)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "version must be YYYYMMDDHHMMSS").
			WithDetails(map[string]any{"version": targetVersion})
	}
	if err := goose.SetDialect(Dialect); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "set goose dialect")
	}

	current, err := goose.GetDBVersion(db)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get db version")
	}

	switch {
	case current == target:
		return nil
	case current < target:
		err = goose.UpToContext(ctx, db, dir, target)
	default:
		err = goose.DownToContext(ctx, db, dir, target)
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "goose migrate to "+targetVersion).
			WithDetails(map[string]any{"from": current, "to": target})
	}
	return nil
}
