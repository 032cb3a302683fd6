package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Registry errors
	ErrRegistryLoad       = fmt.Errorf("failed to load provider registry")
	ErrNoMatchingProvider = fmt.Errorf("no provider can embed this URL")
	ErrProviderNotFound   = fmt.Errorf("provider not found")

	// Fetch errors
	ErrTransport = fmt.Errorf("oembed transport failed")
	ErrDecode    = fmt.Errorf("oembed response could not be decoded")
	ErrNoLinks   = fmt.Errorf("no oembed links discovered")

	ErrResponseTooLarge = fmt.Errorf("response body too large")

	// Persistence errors
	ErrEmbedNotFound = fmt.Errorf("embed not found")
	ErrBatchNotFound = fmt.Errorf("batch not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
