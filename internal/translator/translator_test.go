package translator

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nmtgo/beamline/internal/logger"
	"github.com/nmtgo/beamline/internal/model/modeltest"
)

func quietLogger() logger.Logger {
	return logger.JSON(discard{}, slog.LevelError)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func baseOptions(t *testing.T, ckpts ...string) Options {
	t.Helper()
	return Options{
		Checkpoints: ckpts,
		BeamWidth:   2,
		MaxLen:      5,
		BatchSize:   2,
		Output:      filepath.Join(t.TempDir(), "hyps"),
	}
}

func writeSplitFile(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.src")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestTranslateLines(t *testing.T) {
	t.Parallel()

	ckpt := modeltest.Write(t, modeltest.Fixture{})
	tr, err := New(baseOptions(t, ckpt), quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}

	// The fixture model always decodes "a" then end-of-sequence.
	hyps, err := tr.TranslateLines(context.Background(), []string{"x y", "y", "x"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(hyps) != 3 {
		t.Fatalf("expected 3 hypotheses, got %d", len(hyps))
	}
	for i, h := range hyps {
		if h != "a" {
			t.Fatalf("hypothesis %d: expected %q, got %q", i, "a", h)
		}
	}
}

func TestTranslateLinesEmpty(t *testing.T) {
	t.Parallel()

	ckpt := modeltest.Write(t, modeltest.Fixture{})
	tr, err := New(baseOptions(t, ckpt), quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	hyps, err := tr.TranslateLines(context.Background(), nil)
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if len(hyps) != 0 {
		t.Fatalf("expected zero hypotheses, got %v", hyps)
	}
}

func TestRunWritesSplitFile(t *testing.T) {
	t.Parallel()

	ckpt := modeltest.Write(t, modeltest.Fixture{})
	src := writeSplitFile(t, "x y\ny x\n")

	opts := baseOptions(t, ckpt)
	opts.Splits = []string{"test"}
	opts.SplitPaths = map[string]string{"test": src}

	tr, err := New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := opts.Output + ".test.beam2"
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(raw) != "a\na\n" {
		t.Fatalf("output content: %q", raw)
	}
}

func TestRunSourceMappingUsesNewSplit(t *testing.T) {
	t.Parallel()

	ckpt := modeltest.Write(t, modeltest.Fixture{})
	src := writeSplitFile(t, "x\n")

	opts := baseOptions(t, ckpt)
	opts.Source = "src:" + src

	tr, err := New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	// The synthetic split leaves no split infix in the name.
	out := opts.Output + ".beam2"
	if _, err := os.Stat(out); err != nil {
		t.Fatalf("expected output at %q: %v", out, err)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	t.Parallel()

	ckpt := modeltest.Write(t, modeltest.Fixture{})
	src := writeSplitFile(t, "x y\ny\nx x x\n")

	opts := baseOptions(t, ckpt)
	opts.Splits = []string{"test"}
	opts.SplitPaths = map[string]string{"test": src}
	opts.LPAlpha = 1.0

	tr, err := New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}

	out := opts.Output + ".test.lp_1.0.beam2"
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(first, second) {
		t.Fatal("reruns produced different bytes")
	}
}

func TestRunEmptySplitFile(t *testing.T) {
	t.Parallel()

	ckpt := modeltest.Write(t, modeltest.Fixture{})
	src := writeSplitFile(t, "")

	opts := baseOptions(t, ckpt)
	opts.Splits = []string{"test"}
	opts.SplitPaths = map[string]string{"test": src}

	tr, err := New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	raw, err := os.ReadFile(opts.Output + ".test.beam2")
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected empty output file, got %q", raw)
	}
}

func TestFiltersApplied(t *testing.T) {
	t.Parallel()

	// "upper" declared at training time must reach the written output.
	ckpt := modeltest.Write(t, modeltest.Fixture{Filters: []string{"upper"}})
	tr, err := New(baseOptions(t, ckpt), quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	hyps, err := tr.TranslateLines(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if hyps[0] != "A" {
		t.Fatalf("expected filtered %q, got %q", "A", hyps[0])
	}
}

func TestFiltersDisabled(t *testing.T) {
	t.Parallel()

	ckpt := modeltest.Write(t, modeltest.Fixture{Filters: []string{"upper"}})
	opts := baseOptions(t, ckpt)
	opts.DisableFilters = true

	tr, err := New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	hyps, err := tr.TranslateLines(context.Background(), []string{"x"})
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if hyps[0] != "a" {
		t.Fatalf("expected unfiltered %q, got %q", "a", hyps[0])
	}
}

func TestEnsembleNamingSuffix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	p1 := filepath.Join(dir, "m1.blc")
	p2 := filepath.Join(dir, "m2.blc")
	modeltest.WriteTo(t, modeltest.Fixture{}, p1)
	modeltest.WriteTo(t, modeltest.Fixture{}, p2)
	src := writeSplitFile(t, "x\n")

	opts := baseOptions(t, p1, p2)
	opts.Splits = []string{"test"}
	opts.SplitPaths = map[string]string{"test": src}

	tr, err := New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	if err := tr.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(opts.Output + ".test.ens2.beam2"); err != nil {
		t.Fatalf("expected ens2 suffix in output name: %v", err)
	}
}

func TestValidation(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{}, quietLogger()); err == nil {
		t.Fatal("expected validation error for empty options")
	}

	ckpt := modeltest.Write(t, modeltest.Fixture{})
	opts := baseOptions(t, ckpt)
	opts.BeamWidth = 0
	if _, err := New(opts, quietLogger()); err == nil {
		t.Fatal("expected validation error for beam width 0")
	}

	opts = baseOptions(t, ckpt)
	tr, err := New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	// No splits and no source mapping.
	if err := tr.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing splits")
	}

	opts = baseOptions(t, ckpt)
	opts.Splits = []string{"test"}
	opts.Source = "src:/tmp/x"
	tr, err = New(opts, quietLogger())
	if err != nil {
		t.Fatalf("new translator: %v", err)
	}
	if err := tr.Run(context.Background()); err == nil {
		t.Fatal("expected error for splits combined with source mapping")
	}
}
