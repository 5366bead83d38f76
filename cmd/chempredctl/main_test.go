package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeModelFixture(t *testing.T, base, name, hyperparameters string) {
	t.Helper()
	dir := filepath.Join(base, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hyperparameters.json"), []byte(hyperparameters), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "network.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestModelsCommandEmptyDir(t *testing.T) {
	out, err := runCmd(t, "models", "--models-dir", t.TempDir())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "no models found") {
		t.Fatalf("output: %q", out)
	}
}

func TestModelsCommandListsConf(t *testing.T) {
	base := t.TempDir()
	writeModelFixture(t, base, "good", `{
		"conf": {"fold_inputs": 32000, "input_transform": "binarize"},
		"model_type": "federated",
		"class_output_size": 10,
		"regr_output_size": 3
	}`)
	writeModelFixture(t, base, "broken", `{}`)
	out, err := runCmd(t, "models", "--models-dir", base)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "good\tclass=10 regr=3 fold=32000 transform=binarize") {
		t.Fatalf("output: %q", out)
	}
	if !strings.Contains(out, "broken\t(bad conf") {
		t.Fatalf("output: %q", out)
	}
}

func TestModelsCommandBadDir(t *testing.T) {
	if _, err := runCmd(t, "models", "--models-dir", filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatal("expected error for missing dir")
	}
}

func TestPredictCommandRequiresFlags(t *testing.T) {
	if _, err := runCmd(t, "predict"); err == nil {
		t.Fatal("expected error for missing required flags")
	}
}
