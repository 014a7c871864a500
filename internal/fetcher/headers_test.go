package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBrowserHeadersFresh(t *testing.T) {
	t.Parallel()

	first := BrowserHeaders()
	first.Set("Accept", "changed")
	assert.NotEqual(t, "changed", BrowserHeaders().Get("Accept"))
	assert.Empty(t, BrowserHeaders().Get("User-Agent"))
}
