package analytics

import "fmt"

// LabeledItem is an entry of the /symbols and /strategies catalogs.
type LabeledItem struct {
	Label string `json:"label"` // display name, e.g. "Apple Inc."
	Value string `json:"value"` // identifier used in requests, e.g. "AAPL"
}

// TransportError reports a failed request or a non-success HTTP status.
type TransportError struct {
	Op         string // request description, e.g. "GET /history"
	StatusCode int    // 0 when the request never got a response
	Body       string // truncated response body for non-2xx replies
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
