package predictor

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chempredd/internal/descriptor"
	"chempredd/internal/sparse"
	"chempredd/pkg/types"
)

// unfolded descriptor matrix as the tool would emit it: 2 rows, 32 columns.
// Folding to 8 buckets maps col j to j mod 8.
func rawDescriptor() *sparse.CSR {
	return &sparse.CSR{
		Rows:    2,
		Cols:    32,
		Indptr:  []int64{0, 3, 5},
		Indices: []int64{1, 9, 17, 5, 29},
		Data:    []float32{1, 1, 1, 1, 1},
	}
}

func newTestSystem(t *testing.T, prov descriptor.Provider) *System {
	t.Helper()
	dir := modelDir(t, defaultFixtureConf())
	s, err := New(Config{
		Registry: []types.Model{{ID: "m1", Name: "m1", Path: dir}},
		Provider: prov,
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return s
}

func TestNewRequiresProvider(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewRejectsIncompleteModelDir(t *testing.T) {
	dir := t.TempDir()
	writeHyperparameters(t, dir, defaultFixtureConf())
	_, err := New(Config{
		Registry: []types.Model{{ID: "broken", Path: dir}},
		Provider: &descriptor.StubProvider{},
		Logger:   zerolog.Nop(),
	})
	require.Error(t, err)
}

func TestGetModelUnknown(t *testing.T) {
	s := newTestSystem(t, &descriptor.StubProvider{Matrix: rawDescriptor()})
	_, _, err := s.PredictFile(context.Background(), "nope", "whatever.csv")
	assert.True(t, IsModelUnknown(err), "got %v", err)
	_, _, err = s.PredictFile(context.Background(), "", "whatever.csv")
	assert.True(t, IsModelUnknown(err), "no default model: got %v", err)
}

func TestPredictFilePipeline(t *testing.T) {
	prov := &descriptor.StubProvider{Matrix: rawDescriptor()}
	s := newTestSystem(t, prov)
	cls, reg, err := s.PredictFile(context.Background(), "m1", "input.csv")
	require.NoError(t, err)
	assert.Equal(t, 2, cls.Rows)
	assert.Equal(t, 2, cls.Cols)
	assert.Equal(t, 1, reg.Cols)
	require.Len(t, prov.Calls, 1)
	assert.Equal(t, "input.csv", prov.Calls[0])

	st := s.Status()
	assert.Equal(t, uint64(1), st.PredictionsTotal)
	assert.Equal(t, uint64(2), st.RowsTotal)
	assert.Equal(t, 1, st.LoadedCount)
}

func TestPredictRequestSmiles(t *testing.T) {
	s := newTestSystem(t, &descriptor.StubProvider{Matrix: rawDescriptor()})
	resp, err := s.Predict(context.Background(), types.PredictRequest{
		Model:  "m1",
		Smiles: []string{"CCO", "c1ccccc1"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"input-0", "input-1"}, resp.InputIDs)
	assert.Equal(t, 2, resp.Classification.Rows)
}

func TestPredictRequestCSV(t *testing.T) {
	s := newTestSystem(t, &descriptor.StubProvider{Matrix: rawDescriptor()})
	resp, err := s.Predict(context.Background(), types.PredictRequest{
		Model: "m1",
		CSV:   "input_compound_id,smiles\na,CCO\nb,c1ccccc1\n",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, resp.InputIDs)
}

func TestPredictRequestBadInputs(t *testing.T) {
	s := newTestSystem(t, &descriptor.StubProvider{Matrix: rawDescriptor()})
	_, err := s.Predict(context.Background(), types.PredictRequest{Model: "m1"})
	assert.True(t, descriptor.IsBadInput(err), "empty request: got %v", err)
	_, err = s.Predict(context.Background(), types.PredictRequest{
		Model:  "m1",
		Smiles: []string{"CCO"},
		CSV:    "input_compound_id,smiles\na,CCO\n",
	})
	assert.True(t, descriptor.IsBadInput(err), "both inputs: got %v", err)
	_, err = s.Predict(context.Background(), types.PredictRequest{
		Model:    "m1",
		Smiles:   []string{"CCO"},
		InputIDs: []string{"a", "b"},
	})
	assert.True(t, descriptor.IsBadInput(err), "id mismatch: got %v", err)
}

func TestPredictProviderErrorRecorded(t *testing.T) {
	s := newTestSystem(t, &descriptor.StubProvider{Err: descriptor.ErrUnavailable("tool gone")})
	_, err := s.Predict(context.Background(), types.PredictRequest{Model: "m1", Smiles: []string{"CCO"}})
	require.Error(t, err)
	assert.True(t, descriptor.IsUnavailable(err))
	assert.Contains(t, s.Status().LastError, "tool gone")
}

func TestDefaultModelFallback(t *testing.T) {
	dir := modelDir(t, defaultFixtureConf())
	s, err := New(Config{
		Registry:     []types.Model{{ID: "m1", Path: dir}},
		Provider:     &descriptor.StubProvider{Matrix: rawDescriptor()},
		DefaultModel: "m1",
		Logger:       zerolog.Nop(),
	})
	require.NoError(t, err)
	resp, err := s.Predict(context.Background(), types.PredictRequest{Smiles: []string{"CCO", "CCN"}})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Classification.Rows)
	assert.Equal(t, "m1", resp.Model, "response names the resolved model, not the empty request field")
}

func TestListModelsAndDetail(t *testing.T) {
	s := newTestSystem(t, &descriptor.StubProvider{Matrix: rawDescriptor()})
	models := s.ListModels()
	require.Len(t, models, 1)
	assert.Equal(t, "m1", models[0].ID)

	d, err := s.ModelDetail("m1")
	require.NoError(t, err)
	assert.Equal(t, 8, d.FoldInputs)
	assert.Equal(t, 2, d.ClassOutputSize)
	assert.False(t, d.Loaded)

	_, err = s.ModelDetail("nope")
	assert.True(t, IsModelUnknown(err))
}

func TestSetRegistryKeepsHandles(t *testing.T) {
	dir := modelDir(t, defaultFixtureConf())
	s, err := New(Config{
		Registry: []types.Model{{ID: "m1", Path: dir}},
		Provider: &descriptor.StubProvider{Matrix: rawDescriptor()},
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	_, _, err = s.PredictFile(context.Background(), "m1", "x.csv")
	require.NoError(t, err)

	dir2 := modelDir(t, defaultFixtureConf())
	require.NoError(t, s.SetRegistry([]types.Model{
		{ID: "m1", Path: dir},
		{ID: "m2", Path: dir2},
	}))
	st := s.Status()
	require.Len(t, st.Models, 2)
	assert.Equal(t, 1, st.LoadedCount, "m1 weights should survive the re-scan")

	// dropping a model removes it
	require.NoError(t, s.SetRegistry([]types.Model{{ID: "m2", Path: dir2}}))
	_, _, err = s.PredictFile(context.Background(), "m1", "x.csv")
	assert.True(t, IsModelUnknown(err))
}
