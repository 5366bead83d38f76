// Package predictor orchestrates the prediction pipeline over a directory of
// pretrained sparse feed-forward models. It is structured into small files by
// concern:
//
//   - model.go: the per-model handle (lazy conf, lazy weights, forward pass,
//     head split).
//   - system.go: the per-deployment System (registry map, lookup, descriptor
//     delegation, fold/transform parameterization, request plumbing).
//   - csv.go: T2 structure file reading/writing.
//   - errors.go: error types and helpers (IsModelUnknown, IsConfError).
//   - metrics.go: prometheus collectors.
//
// The heavy computation is all delegated: fingerprints and the key-based bit
// shuffle to the external descriptor tool (internal/descriptor), the network
// forward pass to the loom library. This package parameterizes and calls.
package predictor
