package predictor

// modelUnknownError signals a lookup miss in the model registry (404 mapping).
type modelUnknownError struct{ id string }

func (e modelUnknownError) Error() string { return "requested model does not exist: " + e.id }

// ErrModelUnknown returns the error for a model id absent from the registry.
func ErrModelUnknown(id string) error { return modelUnknownError{id: id} }

// IsModelUnknown reports whether the error indicates a missing model id.
func IsModelUnknown(err error) bool {
	_, ok := err.(modelUnknownError)
	return ok
}

// confError signals an invalid or unreadable hyperparameters file. These are
// deployment problems, not caller problems, so they map to 500.
type confError struct{ msg string }

func (e confError) Error() string { return e.msg }

// ErrConf constructs a confError.
func ErrConf(msg string) error { return confError{msg: msg} }

// IsConfError reports whether err indicates a broken model configuration.
func IsConfError(err error) bool {
	_, ok := err.(confError)
	return ok
}
