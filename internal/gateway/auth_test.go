package gateway

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/auth"
	"github.com/lattice-graph/latticedb/internal/registry"
)

const testSecret = "this-is-a-32-byte-or-longer-secret!"

func TestServerRejectsRequestsWithoutBearerTokenWhenAuthEnabled(t *testing.T) {
	addr := freeAddr(t)
	mgr, err := auth.NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	handlers := map[string]registry.HandlerFunc{
		"echo": func(req *registry.Request, resp *registry.Response) error {
			resp.StatusCode = 200
			resp.Body = []byte(`{}`)
			return nil
		},
	}
	srv := New(Options{Addr: addr, Handlers: handlers, JWTManager: mgr})
	go srv.ListenAndServe()
	waitUntilUp(t, addr)

	status, _ := rawRequest(t, addr, "GET", "/echo", "")
	require.Equal(t, 401, status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestServerAcceptsRequestsWithValidBearerToken(t *testing.T) {
	addr := freeAddr(t)
	mgr, err := auth.NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := mgr.GenerateToken("user-1", auth.RoleViewer)
	require.NoError(t, err)

	handlers := map[string]registry.HandlerFunc{
		"echo": func(req *registry.Request, resp *registry.Response) error {
			resp.StatusCode = 200
			resp.Body = []byte(`{}`)
			return nil
		},
	}
	srv := New(Options{Addr: addr, Handlers: handlers, JWTManager: mgr})
	go srv.ListenAndServe()
	waitUntilUp(t, addr)

	status, _ := rawRequestWithAuth(t, addr, "GET", "/echo", "", token)
	require.Equal(t, 200, status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}
