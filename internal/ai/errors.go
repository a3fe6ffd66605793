package ai

import "fmt"

// UpstreamError marks failures coming from the external OpenAI services so
// handlers can tell infrastructure failures apart from input errors.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream call failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
