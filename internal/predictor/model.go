package predictor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/openfluke/loom/nn"

	"chempredd/internal/sparse"
	"chempredd/pkg/types"
)

// File names expected inside every model directory.
const (
	HyperparametersFile = "hyperparameters.json"
	NetworkFile         = "network.json"
)

// networkName is the identifier the pretrained network is saved under inside
// NetworkFile.
const networkName = "model"

// Conf is the flattened model configuration read from the hyperparameters
// file: the "conf" section values plus the top-level head sizes.
type Conf struct {
	ModelType       string
	ClassOutputSize int
	RegrOutputSize  int
	FoldInputs      int
	InputTransform  string
}

// hyperparametersFile mirrors the on-disk layout: a "conf" object holding the
// training-time preprocessing settings, with the head sizes and model type at
// the top level.
type hyperparametersFile struct {
	Conf struct {
		FoldInputs     int    `json:"fold_inputs"`
		InputTransform string `json:"input_transform"`
	} `json:"conf"`
	ModelType       string `json:"model_type"`
	ClassOutputSize int    `json:"class_output_size"`
	RegrOutputSize  int    `json:"regr_output_size"`
}

// Model is a handle on one pretrained model directory. The hyperparameters
// and the network weights are each read at most once, on first use; a failed
// read is retried on the next call rather than cached.
type Model struct {
	ID   string
	Path string

	mu   sync.Mutex
	conf *Conf
	net  *nn.Network

	// fwdMu serializes forward passes; the network is not safe for
	// concurrent use.
	fwdMu sync.Mutex
}

// NewModel validates that path contains the two required files and returns a
// handle. Nothing is read yet.
func NewModel(id, path string) (*Model, error) {
	for _, name := range []string{HyperparametersFile, NetworkFile} {
		p := filepath.Join(path, name)
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("model %s: %w", id, err)
		}
	}
	return &Model{ID: id, Path: path}, nil
}

// Conf returns the model configuration, reading it on first call.
func (m *Model) Conf() (Conf, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadConfLocked(); err != nil {
		return Conf{}, err
	}
	return *m.conf, nil
}

func (m *Model) loadConfLocked() error {
	if m.conf != nil {
		return nil
	}
	p := filepath.Join(m.Path, HyperparametersFile)
	b, err := os.ReadFile(p)
	if err != nil {
		return ErrConf(fmt.Sprintf("model %s: %v", m.ID, err))
	}
	var hp hyperparametersFile
	if err := json.Unmarshal(b, &hp); err != nil {
		return ErrConf(fmt.Sprintf("model %s: parse %s: %v", m.ID, HyperparametersFile, err))
	}
	c := Conf{
		ModelType:       hp.ModelType,
		ClassOutputSize: hp.ClassOutputSize,
		RegrOutputSize:  hp.RegrOutputSize,
		FoldInputs:      hp.Conf.FoldInputs,
		InputTransform:  hp.Conf.InputTransform,
	}
	if c.FoldInputs <= 0 {
		return ErrConf(fmt.Sprintf("model %s: fold_inputs must be positive, got %d", m.ID, c.FoldInputs))
	}
	if c.ClassOutputSize < 0 || c.RegrOutputSize < 0 {
		return ErrConf(fmt.Sprintf("model %s: negative head size", m.ID))
	}
	if c.ClassOutputSize+c.RegrOutputSize == 0 {
		return ErrConf(fmt.Sprintf("model %s: both heads have size 0", m.ID))
	}
	m.conf = &c
	return nil
}

// Load reads the network weights if not already resident.
func (m *Model) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadNetLocked()
}

func (m *Model) loadNetLocked() error {
	if m.net != nil {
		return nil
	}
	net, err := nn.LoadModel(filepath.Join(m.Path, NetworkFile), networkName)
	if err != nil {
		return fmt.Errorf("model %s: load network: %w", m.ID, err)
	}
	m.net = net
	modelLoadsTotal.Inc()
	return nil
}

// Loaded reports whether the network weights are resident.
func (m *Model) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net != nil
}

// Predict runs every row of the prepared (already folded and transformed)
// matrix through the network and splits each output vector into the
// classification and regression heads. batchSize bounds how many rows run
// between context checks.
func (m *Model) Predict(ctx context.Context, x *sparse.CSR, batchSize int) (cls, reg types.Matrix, err error) {
	conf, err := m.Conf()
	if err != nil {
		return cls, reg, err
	}
	if err := m.Load(); err != nil {
		return cls, reg, err
	}
	if x.Cols != conf.FoldInputs {
		return cls, reg, fmt.Errorf("model %s: input width %d != fold_inputs %d", m.ID, x.Cols, conf.FoldInputs)
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	cls = types.Matrix{Rows: x.Rows, Cols: conf.ClassOutputSize, Data: make([]float32, x.Rows*conf.ClassOutputSize)}
	reg = types.Matrix{Rows: x.Rows, Cols: conf.RegrOutputSize, Data: make([]float32, x.Rows*conf.RegrOutputSize)}
	width := conf.ClassOutputSize + conf.RegrOutputSize

	m.fwdMu.Lock()
	defer m.fwdMu.Unlock()

	input := make([]float32, x.Cols)
	for i := 0; i < x.Rows; i++ {
		if i%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				return cls, reg, err
			}
		}
		x.DenseRow(i, input)
		out, _ := m.net.ForwardCPU(input)
		if len(out) != width {
			return cls, reg, fmt.Errorf("model %s: network output width %d != class+regr %d", m.ID, len(out), width)
		}
		copy(cls.Row(i), out[:conf.ClassOutputSize])
		copy(reg.Row(i), out[conf.ClassOutputSize:])
	}
	return cls, reg, nil
}

// Detail builds the API view of this model. Conf fields stay zero when the
// hyperparameters were never read or are unreadable.
func (m *Model) Detail() types.ModelDetail {
	d := types.ModelDetail{
		Model:  types.Model{ID: m.ID, Name: m.ID, Path: m.Path},
		Loaded: m.Loaded(),
	}
	m.mu.Lock()
	conf := m.conf
	m.mu.Unlock()
	if conf != nil {
		d.ModelType = conf.ModelType
		d.ClassOutputSize = conf.ClassOutputSize
		d.RegrOutputSize = conf.RegrOutputSize
		d.FoldInputs = conf.FoldInputs
		d.InputTransform = conf.InputTransform
	}
	return d
}
