package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// SDK and widget errors
	ErrSDKLoad          = fmt.Errorf("widget SDK failed to load")
	ErrSDKUnavailable   = fmt.Errorf("widget SDK not available")
	ErrInvalidFrame     = fmt.Errorf("not an embeddable player frame")
	ErrEmbedNotFound    = fmt.Errorf("embed not found")
	ErrHitDropped       = fmt.Errorf("analytics hit dropped")
	ErrCollectorClosed  = fmt.Errorf("analytics collector closed")
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrScriptParse      = fmt.Errorf("invalid replay script")
	ErrDocumentNotFound = fmt.Errorf("document not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
