package knowledge

import (
	"os"
	"path/filepath"
	"testing"
)

func writeKnowledgeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "knowledge.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write knowledge file: %v", err)
	}
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeKnowledgeFile(t, `[
		{"keywords": ["topup", "isi ulang"], "answer": "Gunakan menu Top Up."},
		{"keywords": ["harga"], "answer": "Lihat halaman produk."}
	]`)

	entries, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Keywords[1] != "isi ulang" {
		t.Errorf("entry order or keywords not preserved: %v", entries[0])
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
}

func TestLoad_MalformedJSON(t *testing.T) {
	path := writeKnowledgeFile(t, `{"not": "an array"`)
	if _, err := Load(path); err == nil {
		t.Error("expected an error for malformed JSON")
	}
}

func TestLoad_RejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"empty array", `[]`},
		{"no keywords", `[{"keywords": [], "answer": "x"}]`},
		{"empty answer", `[{"keywords": ["topup"], "answer": ""}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeKnowledgeFile(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("expected an error for %s", tt.name)
			}
		})
	}
}
