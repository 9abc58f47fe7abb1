package embed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/docsearch/internal/errors"
)

func TestOllamaEmbedDeadlineReportsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	e, err := NewOllamaEmbedder(context.Background(), OllamaConfig{
		Host:            srv.URL,
		Model:           "nomic-embed-text",
		Dimensions:      8,
		Timeout:         50 * time.Millisecond,
		MaxRetries:      1,
		SkipHealthCheck: true,
	})
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Embed(context.Background(), "pipeline inspection")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.GetCode(err))
}
