package descriptor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/rs/zerolog"

	"chempredd/internal/sparse"
)

func testCSR() *sparse.CSR {
	return &sparse.CSR{
		Rows:    2,
		Cols:    8,
		Indptr:  []int64{0, 2, 3},
		Indices: []int64{1, 5, 7},
		Data:    []float32{1, 1, 2},
	}
}

// writeFakeTool creates a shell script that mimics the descriptor tool: it
// locates --output_dir in its args and copies a fixture CSR dir under the run
// name, or fails with the given exit code.
func writeFakeTool(t *testing.T, fixture string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixture requires a POSIX shell")
	}
	script := fmt.Sprintf(`#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--output_dir" ]; then out="$2"; shift; fi
  shift
done
if [ %d -ne 0 ]; then echo "tool exploded" >&2; exit %d; fi
mkdir -p "$out/mms"
cp "%s"/* "$out/mms/"
`, exitCode, exitCode, fixture)
	p := filepath.Join(t.TempDir(), "fake_tuner.sh")
	if err := os.WriteFile(p, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake tool: %v", err)
	}
	return p
}

func toolFixtures(t *testing.T) (params, key, structure, csrDir string) {
	t.Helper()
	dir := t.TempDir()
	params = filepath.Join(dir, "params.json")
	key = filepath.Join(dir, "key.json")
	structure = filepath.Join(dir, "T2.csv")
	for _, p := range []string{params, key} {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
	if err := os.WriteFile(structure, []byte("input_compound_id,smiles\nc1,CCO\nc2,c1ccccc1\n"), 0o644); err != nil {
		t.Fatalf("write structure: %v", err)
	}
	csrDir = filepath.Join(dir, "csr")
	if err := sparse.WriteCSRDir(csrDir, testCSR()); err != nil {
		t.Fatalf("write fixture csr: %v", err)
	}
	return params, key, structure, csrDir
}

func TestNewToolProviderValidation(t *testing.T) {
	if _, err := NewToolProvider(ToolConfig{}, zerolog.Nop()); !IsUnavailable(err) {
		t.Fatalf("expected unavailable error for empty binary, got %v", err)
	}
	params, _, _, _ := toolFixtures(t)
	_, err := NewToolProvider(ToolConfig{Binary: "tuner", ParametersFile: params, KeyFile: "/nope/key.json"}, zerolog.Nop())
	if err == nil {
		t.Fatal("expected error for missing key file")
	}
}

func TestToolPrepare(t *testing.T) {
	params, key, structure, csrDir := toolFixtures(t)
	bin := writeFakeTool(t, csrDir, 0)
	p, err := NewToolProvider(ToolConfig{
		Binary:         bin,
		ParametersFile: params,
		KeyFile:        key,
		WorkDir:        t.TempDir(),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	m, err := p.Prepare(context.Background(), structure)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if m.Rows != 2 || m.Cols != 8 || m.NNZ() != 3 {
		t.Fatalf("unexpected matrix: %+v", m)
	}
}

func TestToolPrepareFailures(t *testing.T) {
	params, key, structure, csrDir := toolFixtures(t)

	okBin := writeFakeTool(t, csrDir, 0)
	p, err := NewToolProvider(ToolConfig{Binary: okBin, ParametersFile: params, KeyFile: key}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p.Prepare(context.Background(), filepath.Join(t.TempDir(), "missing.csv")); !IsBadInput(err) {
		t.Fatalf("expected bad input error, got %v", err)
	}

	badBin := writeFakeTool(t, csrDir, 3)
	p2, err := NewToolProvider(ToolConfig{Binary: badBin, ParametersFile: params, KeyFile: key}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	_, err = p2.Prepare(context.Background(), structure)
	if !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	p3, err := NewToolProvider(ToolConfig{Binary: "/definitely/not/here", ParametersFile: params, KeyFile: key}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	if _, err := p3.Prepare(context.Background(), structure); !IsUnavailable(err) {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}

func TestToolPrepareCanceled(t *testing.T) {
	params, key, structure, csrDir := toolFixtures(t)
	bin := writeFakeTool(t, csrDir, 0)
	p, err := NewToolProvider(ToolConfig{Binary: bin, ParametersFile: params, KeyFile: key}, zerolog.Nop())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Prepare(ctx, structure); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
