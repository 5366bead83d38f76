package predictor

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"chempredd/internal/descriptor"
)

// T2 structure file column names, as the descriptor tool expects them.
const (
	colCompoundID = "input_compound_id"
	colSmiles     = "smiles"
)

// writeStructureCSV writes a T2-format structure file. ids may be empty, in
// which case row numbers are generated.
func writeStructureCSV(w io.Writer, ids, smiles []string) error {
	if len(smiles) == 0 {
		return descriptor.ErrBadInput("no smiles provided")
	}
	if len(ids) > 0 && len(ids) != len(smiles) {
		return descriptor.ErrBadInput(fmt.Sprintf("input_ids length %d != smiles length %d", len(ids), len(smiles)))
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{colCompoundID, colSmiles}); err != nil {
		return err
	}
	for i, s := range smiles {
		if strings.TrimSpace(s) == "" {
			return descriptor.ErrBadInput(fmt.Sprintf("empty smiles at row %d", i))
		}
		id := fmt.Sprintf("input-%d", i)
		if len(ids) > 0 {
			id = ids[i]
		}
		if err := cw.Write([]string{id, s}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// parseStructureCSV extracts compound ids and smiles from raw T2 CSV text.
// The header must carry both columns; extra columns are ignored.
func parseStructureCSV(text string) (ids, smiles []string, err error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, nil, descriptor.ErrBadInput(fmt.Sprintf("csv header: %v", err))
	}
	idCol, smilesCol := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(strings.ToLower(h)) {
		case colCompoundID:
			idCol = i
		case colSmiles:
			smilesCol = i
		}
	}
	if idCol < 0 || smilesCol < 0 {
		return nil, nil, descriptor.ErrBadInput(fmt.Sprintf("csv must have %s and %s columns", colCompoundID, colSmiles))
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, descriptor.ErrBadInput(fmt.Sprintf("csv: %v", err))
		}
		if len(rec) <= idCol || len(rec) <= smilesCol {
			return nil, nil, descriptor.ErrBadInput("csv row with missing columns")
		}
		ids = append(ids, rec[idCol])
		smiles = append(smiles, rec[smilesCol])
	}
	if len(smiles) == 0 {
		return nil, nil, descriptor.ErrBadInput("csv has no data rows")
	}
	return ids, smiles, nil
}
