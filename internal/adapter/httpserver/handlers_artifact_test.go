package httpserver

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/pscheid92/spotthefake/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifact_ServesJPEG(t *testing.T) {
	app := &mockAppService{
		artifactFn: func(_ context.Context, id string) ([]byte, error) {
			assert.Equal(t, "0123456789abcdef0123456789abcdef", id)
			return []byte{0xff, 0xd8, 0xff}, nil
		},
	}
	srv := newTestServer(t, app)

	rec := do(srv, http.MethodGet, "/artifacts/0123456789abcdef0123456789abcdef", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, rec.Body.Bytes())
	assert.Empty(t, rec.Result().Cookies(), "artifacts are served without a session")
}

func TestArtifact_NotFound(t *testing.T) {
	app := &mockAppService{
		artifactFn: func(context.Context, string) ([]byte, error) {
			return nil, domain.ErrArtifactNotFound
		},
	}
	srv := newTestServer(t, app)

	rec := do(srv, http.MethodGet, "/artifacts/gone", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"type":"not_found"`)
}

func TestArtifact_StorageError(t *testing.T) {
	app := &mockAppService{
		artifactFn: func(context.Context, string) ([]byte, error) {
			return nil, errors.New("disk on fire")
		},
	}
	srv := newTestServer(t, app)

	rec := do(srv, http.MethodGet, "/artifacts/abc", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk on fire")
}
