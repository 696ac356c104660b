package gateway

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lattice-graph/latticedb/internal/registry"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func rawRequest(t *testing.T, addr, method, path, body string) (int, string) {
	t.Helper()
	return rawRequestWithAuth(t, addr, method, path, body, "")
}

func rawRequestWithAuth(t *testing.T, addr, method, path, body, token string) (int, string) {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	require.NoError(t, err)
	defer conn.Close()

	authHeader := ""
	if token != "" {
		authHeader = fmt.Sprintf("Authorization: Bearer %s\r\n", token)
	}
	req := fmt.Sprintf("%s %s HTTP/1.1\r\n%sContent-Length: %d\r\n\r\n%s", method, path, authHeader, len(body), body)
	_, err = conn.Write([]byte(req))
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	statusLine, err := r.ReadString('\n')
	require.NoError(t, err)
	var status int
	_, err = fmt.Sscanf(statusLine, "HTTP/1.1 %d", &status)
	require.NoError(t, err)

	var contentLength int
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		trimmed := line[:len(line)-2]
		if trimmed == "" {
			break
		}
		fmt.Sscanf(trimmed, "Content-Length: %d", &contentLength)
	}
	respBody := make([]byte, contentLength)
	if contentLength > 0 {
		_, err = r.Read(respBody)
		require.NoError(t, err)
	}
	return status, string(respBody)
}

func TestServerRoutesRegisteredHandler(t *testing.T) {
	addr := freeAddr(t)
	handlers := map[string]registry.HandlerFunc{
		"echo": func(req *registry.Request, resp *registry.Response) error {
			resp.StatusCode = 200
			resp.Body = append([]byte(`{"got":`), append(req.Body, '}')...)
			return nil
		},
	}
	srv := New(Options{Addr: addr, Handlers: handlers})
	go srv.ListenAndServe()
	waitUntilUp(t, addr)

	status, body := rawRequest(t, addr, "GET", "/echo", `"hi"`)
	require.Equal(t, 200, status)
	require.Equal(t, `{"got":"hi"}`, body)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestServerRejectsNonGETMethodOnRegisteredPath(t *testing.T) {
	addr := freeAddr(t)
	handlers := map[string]registry.HandlerFunc{
		"echo": func(req *registry.Request, resp *registry.Response) error {
			resp.StatusCode = 200
			resp.Body = []byte(`{}`)
			return nil
		},
	}
	srv := New(Options{Addr: addr, Handlers: handlers})
	go srv.ListenAndServe()
	waitUntilUp(t, addr)

	status, _ := rawRequest(t, addr, "POST", "/echo", `"hi"`)
	require.Equal(t, 404, status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestServerReturns404ForUnknownRoute(t *testing.T) {
	addr := freeAddr(t)
	srv := New(Options{Addr: addr, Handlers: map[string]registry.HandlerFunc{}})
	go srv.ListenAndServe()
	waitUntilUp(t, addr)

	status, _ := rawRequest(t, addr, "POST", "/nope", "")
	require.Equal(t, 404, status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestServerReturns500OnHandlerError(t *testing.T) {
	addr := freeAddr(t)
	handlers := map[string]registry.HandlerFunc{
		"boom": func(req *registry.Request, resp *registry.Response) error {
			return fmt.Errorf("boom")
		},
	}
	srv := New(Options{Addr: addr, Handlers: handlers})
	go srv.ListenAndServe()
	waitUntilUp(t, addr)

	status, _ := rawRequest(t, addr, "GET", "/boom", "")
	require.Equal(t, 500, status)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func TestServerBindsTrailingSegmentToIDParam(t *testing.T) {
	addr := freeAddr(t)
	var gotID string
	handlers := map[string]registry.HandlerFunc{
		"get_node": func(req *registry.Request, resp *registry.Response) error {
			gotID = req.Params["id"]
			resp.StatusCode = 200
			resp.Body = []byte(`{}`)
			return nil
		},
	}
	srv := New(Options{Addr: addr, Handlers: handlers})
	go srv.ListenAndServe()
	waitUntilUp(t, addr)

	status, _ := rawRequest(t, addr, "GET", "/get_node/abc-123", "")
	require.Equal(t, 200, status)
	require.Equal(t, "abc-123", gotID)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
}

func waitUntilUp(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server at %s never came up", addr)
}
