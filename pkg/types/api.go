package types

// PredictRequest is the payload for POST /predict.
type PredictRequest struct {
	// Required model identifier (directory name under the models dir).
	// example: chembl-mt
	Model string `json:"model" example:"chembl-mt"`
	// SMILES records to predict on. Each entry is one compound.
	// example: ["CC(=O)Oc1ccccc1C(=O)O"]
	Smiles []string `json:"smiles,omitempty" example:"[\"CC(=O)Oc1ccccc1C(=O)O\"]"`
	// Optional identifiers parallel to Smiles; generated when omitted.
	InputIDs []string `json:"input_ids,omitempty"`
	// Raw T2-format CSV text as an alternative to Smiles. Must carry the
	// standard input_compound_id,smiles header.
	CSV string `json:"csv,omitempty"`
}

// PredictResponse carries the two prediction heads for a request.
type PredictResponse struct {
	// Model that produced the predictions.
	Model string `json:"model"`
	// Identifiers of the compounds, in row order.
	InputIDs []string `json:"input_ids"`
	// Classification predictions (rows = compounds, cols = tasks).
	Classification Matrix `json:"classification"`
	// Regression predictions (rows = compounds, cols = tasks).
	Regression Matrix `json:"regression"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Registered models with conf summaries where already read.
	Models []ModelDetail `json:"models"`
	// Number of models whose weights are resident.
	LoadedCount int `json:"loaded_count"`
	// Device the system loads networks on.
	// example: cpu
	Device string `json:"device" example:"cpu"`
	// Total prediction requests served since start.
	PredictionsTotal uint64 `json:"predictions_total"`
	// Total compound rows run through a network since start.
	RowsTotal uint64 `json:"rows_total"`
	// Last error observed by the system (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
