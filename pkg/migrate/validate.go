package migrate

import (
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	pkgerrors "github.com/angelmondragon/repricer/pkg/errors"
)

// RepricerTables are the tables the policy and decision stores depend on.
var RepricerTables = []string{"reprice_policies", "reprice_envelopes", "reprice_decisions"}

var (
	migrationFileRe = regexp.MustCompile(`^(\d{14})_[a-z0-9_]+\.sql$`)
	createTableRe   = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([a-z0-9_."]+)`)
)

const (
	gooseUp   = "-- +goose Up"
	gooseDown = "-- +goose Down"
)

// ValidateDir checks migration file names, goose Up/Down markers and that
// every table in required is created by one of the files.
func ValidateDir(dir string, required ...string) error {
	if dir == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "migrations dir is required")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read migrations dir").WithDetails(map[string]any{"dir": dir})
	}

	versions := map[string]string{}
	created := map[string]string{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".sql") {
			continue
		}

		m := migrationFileRe.FindStringSubmatch(name)
		if m == nil {
			return invalidMigration(name, "file name must be YYYYMMDDHHMMSS_name.sql")
		}
		if prev, ok := versions[m[1]]; ok {
			return invalidMigration(name, "version "+m[1]+" already used by "+prev)
		}
		versions[m[1]] = name

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read migration").WithDetails(map[string]any{"file": name})
		}
		text := string(raw)
		up, down := strings.Index(text, gooseUp), strings.Index(text, gooseDown)
		switch {
		case up < 0:
			return invalidMigration(name, "missing "+gooseUp)
		case down < 0:
			return invalidMigration(name, "missing "+gooseDown)
		case down < up:
			return invalidMigration(name, gooseDown+" precedes "+gooseUp)
		}

		for _, match := range createTableRe.FindAllStringSubmatch(text[up:down], -1) {
			table := strings.ToLower(strings.Trim(match[1], `"`))
			if i := strings.LastIndex(table, "."); i >= 0 {
				table = table[i+1:]
			}
			created[table] = name
		}
	}

	var missing []string
	for _, table := range required {
		if _, ok := created[table]; !ok {
			missing = append(missing, table)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return pkgerrors.New(pkgerrors.CodeValidation, "migrations do not create required tables").
			WithDetails(map[string]any{"dir": dir, "missing": missing})
	}
	return nil
}

func invalidMigration(file, reason string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid migration: "+reason).WithDetails(map[string]any{"file": file})
}
