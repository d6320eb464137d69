package httpclient

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	assert.Equal(t, DefaultTimeout, New(0).Timeout)
	assert.Equal(t, 5*time.Second, New(5*time.Second).Timeout)
}

func TestBasicAuth(t *testing.T) {
	// base64("me@example.com:tok")
	assert.Equal(t, "Basic bWVAZXhhbXBsZS5jb206dG9r", BasicAuth("me@example.com", "tok"))
}
