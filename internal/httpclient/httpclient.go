package httpclient

import (
	"encoding/base64"
	"net/http"
	"time"
)

const DefaultTimeout = 30 * time.Second

// HTTPClient is the part of *http.Client the REST collaborators use.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// New returns an *http.Client with timeout, or DefaultTimeout when timeout is zero.
func New(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// BasicAuth builds the Authorization header value for Atlassian Cloud APIs.
func BasicAuth(username, token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+token))
}
