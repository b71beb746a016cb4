package extract

import "fmt"

// ExtractionError reports a local file that could not be turned into
// content, such as a corrupt or encrypted PDF.
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// RemoteProcessingError reports a failed call to the transcription service.
// The ingestion that triggered it produces no item.
type RemoteProcessingError struct {
	Source string
	Err    error
}

func (e *RemoteProcessingError) Error() string {
	return fmt.Sprintf("process %s: %v", e.Source, e.Err)
}

func (e *RemoteProcessingError) Unwrap() error { return e.Err }
