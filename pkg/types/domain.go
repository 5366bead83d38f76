package types

// Model represents a discoverable pretrained model directory on disk.
type Model struct {
	// Stable identifier for the model (the directory name).
	// example: chembl-mt
	ID string `json:"id" example:"chembl-mt"`
	// Human-friendly name.
	// example: chembl-mt
	Name string `json:"name" example:"chembl-mt"`
	// Absolute path to the model directory on disk.
	// example: /home/user/models/chem/chembl-mt
	Path string `json:"path" example:"/home/user/models/chem/chembl-mt"`
}

// ModelDetail extends Model with the hyperparameter summary exposed on
// GET /models/{id}. Widths are task counts, not neurons.
type ModelDetail struct {
	Model
	// Model type reported by the hyperparameters file.
	// example: federated
	ModelType string `json:"model_type,omitempty" example:"federated"`
	// Number of classification tasks (output columns).
	// example: 312
	ClassOutputSize int `json:"class_output_size" example:"312"`
	// Number of regression tasks (output columns).
	// example: 12
	RegrOutputSize int `json:"regr_output_size" example:"12"`
	// Descriptor folding size the model was trained with.
	// example: 32000
	FoldInputs int `json:"fold_inputs" example:"32000"`
	// Input value transform the model was trained with.
	// example: binarize
	InputTransform string `json:"input_transform" example:"binarize"`
	// Whether the network weights are currently resident in memory.
	Loaded bool `json:"loaded"`
}

// Matrix is a dense row-major prediction matrix. Rows are input samples,
// columns are tasks.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float32 `json:"data"`
}

// At returns the element at (i, j). No bounds checking beyond the slice's own.
func (m Matrix) At(i, j int) float32 { return m.Data[i*m.Cols+j] }

// Row returns the i-th row as a subslice of the backing data.
func (m Matrix) Row(i int) []float32 { return m.Data[i*m.Cols : (i+1)*m.Cols] }
