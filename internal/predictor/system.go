package predictor

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"chempredd/internal/descriptor"
	"chempredd/internal/sparse"
	"chempredd/pkg/types"
)

// Package defaults. DefaultBatchSize matches the batch size the pretrained
// models were evaluated with.
const (
	DefaultBatchSize = 4000
	DefaultDevice    = "cpu"
)

// Config carries the constructor parameters for a System.
type Config struct {
	// Registry lists the model directories discovered by the scanner.
	Registry []types.Model
	// Provider prepares descriptor matrices from structure files.
	Provider descriptor.Provider
	// Device requested for network loading. Only "cpu" is executed; anything
	// else is accepted and logged, then falls back to CPU forward.
	Device string
	// BatchSize bounds rows between context checks. 0 = DefaultBatchSize.
	BatchSize int
	// DefaultModel is used when a request omits the model id.
	DefaultModel string
	// Logger for pipeline events.
	Logger zerolog.Logger
}

// System exposes predictions for SMILES inputs over a directory of pretrained
// models. It is the orchestration layer: model resolution, delegation to the
// descriptor tool, fold/transform parameterization, and the forward pass.
type System struct {
	mu     sync.RWMutex
	models map[string]*Model

	provider     descriptor.Provider
	device       string
	batchSize    int
	defaultModel string
	log          zerolog.Logger

	start       time.Time
	lastErr     atomic.Value // string
	predictions atomic.Uint64
	rows        atomic.Uint64
}

// New builds a System from an already-scanned registry. Every registry entry
// must be a valid model directory; a missing file fails construction, as in
// the scanner contract.
func New(cfg Config) (*System, error) {
	if cfg.Provider == nil {
		return nil, fmt.Errorf("predictor: nil descriptor provider")
	}
	device := cfg.Device
	if device == "" {
		device = DefaultDevice
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	s := &System{
		models:       make(map[string]*Model, len(cfg.Registry)),
		provider:     cfg.Provider,
		device:       device,
		batchSize:    batch,
		defaultModel: cfg.DefaultModel,
		log:          cfg.Logger,
		start:        time.Now(),
	}
	if device != DefaultDevice {
		s.log.Warn().Str("device", device).Msg("only cpu forward is supported, requested device recorded but ignored")
	}
	for _, m := range cfg.Registry {
		h, err := NewModel(m.ID, m.Path)
		if err != nil {
			return nil, err
		}
		s.models[m.ID] = h
	}
	return s, nil
}

// SetRegistry replaces the model set after a re-scan. Handles for unchanged
// paths are kept so resident weights survive a registry refresh.
func (s *System) SetRegistry(models []types.Model) error {
	next := make(map[string]*Model, len(models))
	s.mu.RLock()
	old := s.models
	s.mu.RUnlock()
	for _, m := range models {
		if h, ok := old[m.ID]; ok && h.Path == m.Path {
			next[m.ID] = h
			continue
		}
		h, err := NewModel(m.ID, m.Path)
		if err != nil {
			return err
		}
		next[m.ID] = h
	}
	s.mu.Lock()
	s.models = next
	s.mu.Unlock()
	return nil
}

// Ready reports whether the system can serve predictions.
func (s *System) Ready() bool {
	return s.provider != nil
}

// ListModels returns the registered models sorted by id.
func (s *System) ListModels() []types.Model {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Model, 0, len(s.models))
	for _, m := range s.models {
		out = append(out, types.Model{ID: m.ID, Name: m.ID, Path: m.Path})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ModelDetail returns the detail view for one model, reading its
// hyperparameters if they are not resident yet.
func (s *System) ModelDetail(id string) (types.ModelDetail, error) {
	m, err := s.getModel(id)
	if err != nil {
		return types.ModelDetail{}, err
	}
	if _, err := m.Conf(); err != nil {
		return types.ModelDetail{}, err
	}
	return m.Detail(), nil
}

// Status reports the system state.
func (s *System) Status() types.StatusResponse {
	s.mu.RLock()
	models := make([]*Model, 0, len(s.models))
	for _, m := range s.models {
		models = append(models, m)
	}
	s.mu.RUnlock()
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })

	resp := types.StatusResponse{
		Device:           s.device,
		PredictionsTotal: s.predictions.Load(),
		RowsTotal:        s.rows.Load(),
		UptimeSeconds:    int64(time.Since(s.start).Seconds()),
		ServerTimeUnix:   time.Now().Unix(),
	}
	if v, ok := s.lastErr.Load().(string); ok {
		resp.LastError = v
	}
	for _, m := range models {
		d := m.Detail()
		if d.Loaded {
			resp.LoadedCount++
		}
		resp.Models = append(resp.Models, d)
	}
	return resp
}

func (s *System) getModel(id string) (*Model, error) {
	if id == "" {
		id = s.defaultModel
		if id == "" {
			return nil, ErrModelUnknown("(unspecified)")
		}
	}
	s.mu.RLock()
	m, ok := s.models[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrModelUnknown(id)
	}
	return m, nil
}

// PredictFile runs the full pipeline for a T2 structure file on disk:
// descriptor preparation, fold/transform per the model conf, forward pass.
func (s *System) PredictFile(ctx context.Context, modelID, structureFile string) (cls, reg types.Matrix, err error) {
	m, err := s.getModel(modelID)
	if err != nil {
		return cls, reg, err
	}
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			s.lastErr.Store(err.Error())
		}
		predictionsTotal.WithLabelValues(m.ID, outcome).Inc()
		predictDuration.WithLabelValues(m.ID).Observe(time.Since(start).Seconds())
	}()

	conf, err := m.Conf()
	if err != nil {
		return cls, reg, err
	}
	x, err := s.provider.Prepare(ctx, structureFile)
	if err != nil {
		return cls, reg, err
	}
	folded, err := foldForConf(x, conf)
	if err != nil {
		return cls, reg, err
	}
	cls, reg, err = m.Predict(ctx, folded, s.batchSize)
	if err != nil {
		return cls, reg, err
	}
	s.predictions.Add(1)
	s.rows.Add(uint64(cls.Rows))
	rowsTotal.Add(float64(cls.Rows))
	s.log.Info().
		Str("model", m.ID).
		Int("rows", cls.Rows).
		Int("class_tasks", cls.Cols).
		Int("regr_tasks", reg.Cols).
		Dur("dur", time.Since(start)).
		Msg("predict done")
	return cls, reg, nil
}

// Predict serves an API request: materialize the structure file from the
// request body, then run PredictFile.
func (s *System) Predict(ctx context.Context, req types.PredictRequest) (types.PredictResponse, error) {
	// Resolve up front so the response names the model actually used, even
	// when the request left it to the configured default.
	m, err := s.getModel(req.Model)
	if err != nil {
		return types.PredictResponse{}, err
	}
	ids, smiles, err := requestRecords(req)
	if err != nil {
		return types.PredictResponse{}, err
	}
	f, err := os.CreateTemp("", "chempredd-t2-*.csv")
	if err != nil {
		return types.PredictResponse{}, err
	}
	path := f.Name()
	defer os.Remove(path)
	if err := writeStructureCSV(f, ids, smiles); err != nil {
		f.Close()
		return types.PredictResponse{}, err
	}
	if err := f.Close(); err != nil {
		return types.PredictResponse{}, err
	}

	cls, reg, err := s.PredictFile(ctx, m.ID, path)
	if err != nil {
		return types.PredictResponse{}, err
	}
	if len(ids) == 0 {
		ids = make([]string, len(smiles))
		for i := range ids {
			ids[i] = fmt.Sprintf("input-%d", i)
		}
	}
	return types.PredictResponse{
		Model:          m.ID,
		InputIDs:       ids,
		Classification: cls,
		Regression:     reg,
	}, nil
}

// requestRecords normalizes the two request input shapes to id/smiles slices.
func requestRecords(req types.PredictRequest) (ids, smiles []string, err error) {
	switch {
	case len(req.Smiles) > 0 && req.CSV != "":
		return nil, nil, descriptor.ErrBadInput("provide smiles or csv, not both")
	case len(req.Smiles) > 0:
		return req.InputIDs, req.Smiles, nil
	case req.CSV != "":
		return parseStructureCSV(req.CSV)
	default:
		return nil, nil, descriptor.ErrBadInput("no smiles provided")
	}
}

// foldForConf applies the model's training-time fold and transform settings.
func foldForConf(x *sparse.CSR, conf Conf) (*sparse.CSR, error) {
	return sparse.FoldTransform(x, conf.FoldInputs, conf.InputTransform)
}
