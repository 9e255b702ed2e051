package migrate

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var sqlFileRe = regexp.MustCompile(`^(\d{14})_([a-z0-9_]+)\.sql$`)

// nonPortable lists constructs that work on only one of the supported drivers.
var nonPortable = map[string]*regexp.Regexp{
	"JSONB":         regexp.MustCompile(`(?i)\bjsonb\b`),
	"SERIAL":        regexp.MustCompile(`(?i)\b(big|small)?serial\b`),
	"AUTOINCREMENT": regexp.MustCompile(`(?i)\bautoincrement\b`),
	"ILIKE":         regexp.MustCompile(`(?i)\bilike\b`),
	"NOW()":         regexp.MustCompile(`(?i)\bnow\s*\(\s*\)`),
}

// baselineTable must be created by the migration set; the document store depends on it.
const baselineTable = "store_documents"

type migrationFile struct {
	file    string
	version int64
	name    string
	body    string
}

// ValidateDir validates the migrations in a directory on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("dir is required")
	}
	return ValidateFS(os.DirFS(dir), ".")
}

// ValidateFS checks file naming, unique versions and names, balanced goose annotations, SQL that
// runs on both postgres and sqlite3, and that the set creates the document table.
func ValidateFS(fsys fs.FS, dir string) error {
	files, err := readMigrations(fsys, dir)
	if err != nil {
		return err
	}

	versions := map[int64]string{}
	names := map[string]string{}
	baseline := false
	for _, f := range files {
		if prev, ok := versions[f.version]; ok {
			return fmt.Errorf("duplicate migration version %d in %q and %q", f.version, prev, f.file)
		}
		versions[f.version] = f.file
		if prev, ok := names[f.name]; ok {
			return fmt.Errorf("duplicate migration name %q in %q and %q", f.name, prev, f.file)
		}
		names[f.name] = f.file

		if err := checkAnnotations(f); err != nil {
			return err
		}
		sql := stripComments(f.body)
		for construct, re := range nonPortable {
			if re.MatchString(sql) {
				return fmt.Errorf("migration %q uses %s, which is not portable between postgres and sqlite3", f.file, construct)
			}
		}
		if strings.Contains(strings.ToLower(sql), "create table if not exists "+baselineTable) {
			baseline = true
		}
	}

	if len(files) > 0 && !baseline {
		return fmt.Errorf("no migration creates %s", baselineTable)
	}
	return nil
}

func readMigrations(fsys fs.FS, dir string) ([]migrationFile, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %q: %w", dir, err)
	}

	var out []migrationFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		m := sqlFileRe.FindStringSubmatch(e.Name())
		if m == nil {
			return nil, fmt.Errorf("invalid migration filename %q (expected YYYYMMDDHHMMSS_name.sql)", e.Name())
		}
		version, _ := strconv.ParseInt(m[1], 10, 64)
		body, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read file %q: %w", e.Name(), err)
		}
		out = append(out, migrationFile{file: e.Name(), version: version, name: m[2], body: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func checkAnnotations(f migrationFile) error {
	up := strings.Index(f.body, "-- +goose Up")
	down := strings.Index(f.body, "-- +goose Down")
	switch {
	case up < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Up\"", f.file)
	case down < 0:
		return fmt.Errorf("migration %q missing \"-- +goose Down\"", f.file)
	case down < up:
		return fmt.Errorf("migration %q has its Down section before Up", f.file)
	}
	begins := strings.Count(f.body, "-- +goose StatementBegin")
	ends := strings.Count(f.body, "-- +goose StatementEnd")
	if begins != ends {
		return fmt.Errorf("migration %q has %d StatementBegin but %d StatementEnd", f.file, begins, ends)
	}
	return nil
}

func stripComments(body string) string {
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
