package migrate

import (
	"strings"
	"testing"
	"testing/fstest"
)

const baselineSQL = `-- +goose Up
-- +goose StatementBegin
CREATE TABLE IF NOT EXISTS store_documents (doc_key VARCHAR(64) PRIMARY KEY);
-- +goose StatementEnd

-- +goose Down
-- +goose StatementBegin
DROP TABLE IF EXISTS store_documents;
-- +goose StatementEnd
`

func withBaseline(extra map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{
		"m/20250101000000_create_store_documents.sql": {Data: []byte(baselineSQL)},
	}
	for name, body := range extra {
		fsys["m/"+name] = &fstest.MapFile{Data: []byte(body)}
	}
	return fsys
}

func TestValidateFSAcceptsEmbeddedSet(t *testing.T) {
	if err := ValidateFS(Embedded(), EmbeddedDir); err != nil {
		t.Fatalf("embedded migrations: %v", err)
	}
	if err := ValidateFS(withBaseline(map[string]string{"README.md": "notes"}), "m"); err != nil {
		t.Fatalf("baseline only: %v", err)
	}
}

func TestValidateFSRejections(t *testing.T) {
	cases := []struct {
		name  string
		fsys  fstest.MapFS
		wants string
	}{
		{
			name:  "bad filename",
			fsys:  withBaseline(map[string]string{"2025_add.sql": baselineSQL}),
			wants: "invalid migration filename",
		},
		{
			name:  "duplicate version",
			fsys:  withBaseline(map[string]string{"20250101000000_other.sql": "-- +goose Up\n-- +goose Down\n"}),
			wants: "duplicate migration version",
		},
		{
			name:  "duplicate name",
			fsys:  withBaseline(map[string]string{"20250202000000_create_store_documents.sql": "-- +goose Up\n-- +goose Down\n"}),
			wants: "duplicate migration name",
		},
		{
			name:  "missing down",
			fsys:  withBaseline(map[string]string{"20250202000000_add.sql": "-- +goose Up\nSELECT 1;\n"}),
			wants: "missing \"-- +goose Down\"",
		},
		{
			name:  "down before up",
			fsys:  withBaseline(map[string]string{"20250202000000_add.sql": "-- +goose Down\n-- +goose Up\n"}),
			wants: "Down section before Up",
		},
		{
			name:  "unbalanced statements",
			fsys:  withBaseline(map[string]string{"20250202000000_add.sql": "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n"}),
			wants: "StatementBegin",
		},
		{
			name:  "postgres only type",
			fsys:  withBaseline(map[string]string{"20250202000000_add.sql": "-- +goose Up\nALTER TABLE store_documents ADD COLUMN meta JSONB;\n-- +goose Down\n"}),
			wants: "JSONB",
		},
		{
			name:  "sqlite only keyword",
			fsys:  withBaseline(map[string]string{"20250202000000_add.sql": "-- +goose Up\nCREATE TABLE t (id INTEGER PRIMARY KEY AUTOINCREMENT);\n-- +goose Down\n"}),
			wants: "AUTOINCREMENT",
		},
		{
			name: "no baseline",
			fsys: fstest.MapFS{
				"m/20250202000000_add.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			},
			wants: "no migration creates store_documents",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateFS(tc.fsys, "m")
			if err == nil {
				t.Fatalf("expected error containing %q", tc.wants)
			}
			if !strings.Contains(err.Error(), tc.wants) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.wants)
			}
		})
	}
}

func TestValidateFSIgnoresCommentedConstructs(t *testing.T) {
	body := "-- +goose Up\n-- postgres would use JSONB here\nSELECT 1;\n-- +goose Down\n"
	if err := ValidateFS(withBaseline(map[string]string{"20250202000000_note.sql": body}), "m"); err != nil {
		t.Fatalf("comment should not count: %v", err)
	}
}
