package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte("package q\n\n"+body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLint(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		want  []string
	}{
		{
			name: "clean",
			files: map[string]string{
				"a.go": "const QA = `--sql 5c5eaa52-e419-42dc-bc9c-e69d16f9ffd9\nselect 1;`\n",
				"b.go": "const Label = \"not sql at all\"\n",
			},
		},
		{
			name:  "missing marker",
			files: map[string]string{"a.go": "const QA = `select id from users`\n"},
			want:  []string{"missing or invalid"},
		},
		{
			name: "duplicate marker",
			files: map[string]string{
				"a.go": "const QA = `--sql 5c5eaa52-e419-42dc-bc9c-e69d16f9ffd9\nselect 1;`\n",
				"b.go": "const QB = `--sql 5c5eaa52-e419-42dc-bc9c-e69d16f9ffd9\ndelete from users;`\n",
			},
			want: []string{"already used by QA"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, body := range tc.files {
				writeGo(t, dir, name, body)
			}
			got, err := lint([]string{dir})
			if err != nil {
				t.Fatalf("lint: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("violations = %+v, want %d", got, len(tc.want))
			}
			for i, w := range tc.want {
				if !strings.Contains(got[i].message, w) {
					t.Fatalf("violation %d = %q, want substring %q", i, got[i].message, w)
				}
			}
		})
	}
}

func TestLintSkipsUnderscoreDirs(t *testing.T) {
	dir := t.TempDir()
	hidden := filepath.Join(dir, "_examples")
	if err := os.MkdirAll(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	writeGo(t, hidden, "x.go", "const QX = `select 1`\n")
	got, err := lint([]string{dir})
	if err != nil || len(got) != 0 {
		t.Fatalf("lint = %+v, %v", got, err)
	}
}
