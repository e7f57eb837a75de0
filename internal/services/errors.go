package services

// ValidationError reports a client-fixable problem with a product submission.
// It is raised before any upload side effect happens.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// UploadError reports a failed image upload to the remote media store.
type UploadError struct {
	Err error
}

func (e *UploadError) Error() string {
	return "image upload failed: " + e.Err.Error()
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed write to the document store.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "failed to persist product: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
