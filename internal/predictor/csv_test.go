package predictor

import (
	"bytes"
	"strings"
	"testing"

	"chempredd/internal/descriptor"
)

func TestWriteStructureCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStructureCSV(&buf, []string{"a", "b"}, []string{"CCO", "c1ccccc1"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "input_compound_id,smiles" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "a,CCO" {
		t.Fatalf("row 1 = %q", lines[1])
	}
}

func TestWriteStructureCSVGeneratedIDs(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStructureCSV(&buf, nil, []string{"CCO"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "input-0,CCO") {
		t.Fatalf("generated id missing: %q", buf.String())
	}
}

func TestWriteStructureCSVRejects(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStructureCSV(&buf, nil, nil); !descriptor.IsBadInput(err) {
		t.Fatalf("empty smiles: got %v", err)
	}
	if err := writeStructureCSV(&buf, []string{"a"}, []string{"CCO", "CCN"}); !descriptor.IsBadInput(err) {
		t.Fatalf("length mismatch: got %v", err)
	}
	if err := writeStructureCSV(&buf, nil, []string{"  "}); !descriptor.IsBadInput(err) {
		t.Fatalf("blank smiles: got %v", err)
	}
}

func TestParseStructureCSV(t *testing.T) {
	ids, smiles, err := parseStructureCSV("smiles,input_compound_id,extra\nCCO,a,x\nCCN,b,y\n")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || smiles[1] != "CCN" {
		t.Fatalf("ids=%v smiles=%v", ids, smiles)
	}
}

func TestParseStructureCSVErrors(t *testing.T) {
	if _, _, err := parseStructureCSV("foo,bar\n1,2\n"); !descriptor.IsBadInput(err) {
		t.Fatalf("missing columns: got %v", err)
	}
	if _, _, err := parseStructureCSV("input_compound_id,smiles\n"); !descriptor.IsBadInput(err) {
		t.Fatalf("no rows: got %v", err)
	}
	if _, _, err := parseStructureCSV(""); !descriptor.IsBadInput(err) {
		t.Fatalf("empty text: got %v", err)
	}
}
