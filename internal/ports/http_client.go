package ports

import "net/http"

// HTTPClient abstracts the HTTP round trip so the monitoring tracker can be
// tested without a network. The standard *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
