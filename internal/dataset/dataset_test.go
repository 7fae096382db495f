package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type fieldEncoder struct{}

func (fieldEncoder) EncodeSource(line string) []int {
	return []int{len(strings.Fields(line))}
}

func writeLines(t *testing.T, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "src.txt")
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadLines(t *testing.T) {
	t.Parallel()

	path := writeLines(t, []string{"one", "two words", "three little words"})
	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(lines) != 3 || lines[1] != "two words" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestReadLinesEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeLines(t, nil)
	lines, err := ReadLines(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func TestMakeBatchesOrderAndIndices(t *testing.T) {
	t.Parallel()

	lines := []string{"a", "b b", "c c c", "d d d d", "e"}
	batches, err := MakeBatches(lines, fieldEncoder{}, 2)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(batches) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(batches))
	}
	if batches[2].Len() != 1 {
		t.Fatalf("last batch should hold the remainder, got %d", batches[2].Len())
	}

	next := 0
	for _, b := range batches {
		for j, idx := range b.Indices {
			if idx != next {
				t.Fatalf("index out of order: got %d, want %d", idx, next)
			}
			if b.Sources[j][0] != len(strings.Fields(lines[idx])) {
				t.Fatalf("source %d encoded wrong: %v", idx, b.Sources[j])
			}
			next++
		}
	}
	if next != len(lines) {
		t.Fatalf("covered %d examples, want %d", next, len(lines))
	}
}

func TestMakeBatchesEmptyInput(t *testing.T) {
	t.Parallel()

	batches, err := MakeBatches(nil, fieldEncoder{}, 4)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if len(batches) != 0 {
		t.Fatalf("expected zero batches, got %d", len(batches))
	}
}

func TestMakeBatchesInvalidSize(t *testing.T) {
	t.Parallel()

	if _, err := MakeBatches([]string{"a"}, fieldEncoder{}, 0); err == nil {
		t.Fatal("expected error for batch size 0")
	}
}

func TestParseSourceMapping(t *testing.T) {
	t.Parallel()

	m, err := ParseSourceMapping("src:/tmp/in.txt,image:/tmp/feats.bin")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if m["src"] != "/tmp/in.txt" || m["image"] != "/tmp/feats.bin" {
		t.Fatalf("unexpected mapping: %v", m)
	}
	if got := PrimarySource(m); got != "/tmp/in.txt" {
		t.Fatalf("primary source: got %q", got)
	}
}

func TestParseSourceMappingErrors(t *testing.T) {
	t.Parallel()

	for _, spec := range []string{"", "noseparator", "src:", ":path", "src:a,src:b"} {
		if _, err := ParseSourceMapping(spec); err == nil {
			t.Fatalf("expected error for %q", spec)
		}
	}
}

func TestPrimarySourceFallback(t *testing.T) {
	t.Parallel()

	m := map[string]string{"video": "/v", "audio": "/a"}
	if got := PrimarySource(m); got != "/a" {
		t.Fatalf("expected lexically first key path, got %q", got)
	}
}
