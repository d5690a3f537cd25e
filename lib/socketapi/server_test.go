// Copyright 2026 The Council Authors
// SPDX-License-Identifier: Apache-2.0

package socketapi

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/council-foundation/council/lib/testutil"
)

// sendRequest connects to a Unix socket, sends a CBOR request, and
// returns the decoded response envelope.
func sendRequest(t *testing.T, socketPath string, request any) Response {
	t.Helper()

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to socket: %v", err)
	}
	defer conn.Close()

	if err := newEncoder(conn).Encode(request); err != nil {
		t.Fatalf("writing request: %v", err)
	}

	// Signal that we're done writing (half-close). CBOR is self-
	// delimiting so this isn't required by the protocol, but it's
	// good hygiene.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := newDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return response
}

// decodeData unmarshals the Data field of a response into the given
// target. Fails the test if decoding fails.
func decodeData(t *testing.T, response Response, target any) {
	t.Helper()
	if len(response.Data) == 0 {
		t.Fatal("response has no data to decode")
	}
	if err := Unmarshal(response.Data, target); err != nil {
		t.Fatalf("decoding response data: %v", err)
	}
}

func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(testutil.SocketDir(t), "test.sock")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if t.Context().Err() != nil {
			t.Fatalf("socket %s did not appear before test context expired", path)
		}
		runtime.Gosched()
	}
}

func TestServerStatus(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return map[string]any{
			"uptime_seconds": 42,
			"open_polls":     3,
		}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serveErr error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		serveErr = server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	response := sendRequest(t, socketPath, map[string]string{"action": "status"})

	if !response.OK {
		t.Errorf("expected ok=true, got false")
	}

	var data map[string]any
	decodeData(t, response, &data)
	if data["uptime_seconds"] != uint64(42) {
		t.Errorf("expected uptime_seconds=42, got %v (%T)", data["uptime_seconds"], data["uptime_seconds"])
	}
	if data["open_polls"] != uint64(3) {
		t.Errorf("expected open_polls=3, got %v (%T)", data["open_polls"], data["open_polls"])
	}

	cancel()
	wg.Wait()
	if serveErr != nil {
		t.Errorf("Serve returned error: %v", serveErr)
	}
}

func TestServerUnknownAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	response := sendRequest(t, socketPath, map[string]string{"action": "nonexistent"})

	if response.OK {
		t.Errorf("expected ok=false, got true")
	}
	if response.Error == "" {
		t.Error("expected error message for unknown action")
	}

	cancel()
	wg.Wait()
}

func TestServerMissingAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	response := sendRequest(t, socketPath, map[string]string{"slug": "beta-freeze"})

	if response.OK {
		t.Errorf("expected ok=false, got true")
	}

	cancel()
	wg.Wait()
}

func TestServerInvalidCBOR(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer conn.Close()

	// Send garbage bytes that aren't valid CBOR.
	conn.Write([]byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb})

	// Half-close so the server sees EOF after our bytes.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var response Response
	if err := newDecoder(conn).Decode(&response); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if response.OK {
		t.Errorf("expected ok=false for invalid CBOR, got true")
	}
}

func TestServerHandlerError(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("something broke")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	response := sendRequest(t, socketPath, map[string]string{"action": "fail"})

	if response.OK {
		t.Errorf("expected ok=false, got true")
	}
	if response.Error != "something broke" {
		t.Errorf("expected error='something broke', got %q", response.Error)
	}

	cancel()
	wg.Wait()
}

func TestServerNilResult(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	response := sendRequest(t, socketPath, map[string]string{"action": "noop"})

	if !response.OK {
		t.Errorf("expected ok=true, got false")
	}
	// Should have no data.
	if len(response.Data) != 0 {
		t.Errorf("expected no data in response, got %d bytes", len(response.Data))
	}

	cancel()
	wg.Wait()
}

func TestServerHandlerSeesFullRequest(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Slug   string `cbor:"slug"`
			Member string `cbor:"member"`
		}
		if err := Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{
			"slug":   request.Slug,
			"member": request.Member,
		}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	response := sendRequest(t, socketPath, map[string]string{
		"action": "echo",
		"slug":   "beta-freeze",
		"member": "alice@example.org",
	})

	if !response.OK {
		t.Fatalf("expected ok=true, got false (error: %s)", response.Error)
	}

	var data map[string]any
	decodeData(t, response, &data)
	if data["slug"] != "beta-freeze" {
		t.Errorf("slug: got %v, want beta-freeze", data["slug"])
	}
	if data["member"] != "alice@example.org" {
		t.Errorf("member: got %v, want alice@example.org", data["member"])
	}

	cancel()
	wg.Wait()
}

func TestServerConcurrentRequests(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Value int `cbor:"value"`
		}
		Unmarshal(raw, &request)
		return map[string]any{"value": request.Value}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var serveWg sync.WaitGroup
	serveWg.Add(1)
	go func() {
		defer serveWg.Done()
		server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	const concurrency = 20
	var clientWg sync.WaitGroup
	for i := range concurrency {
		clientWg.Add(1)
		go func() {
			defer clientWg.Done()
			response := sendRequest(t, socketPath, map[string]any{
				"action": "echo",
				"value":  i,
			})
			if !response.OK {
				t.Errorf("request %d: expected ok=true", i)
			}
			var data map[string]any
			decodeData(t, response, &data)
			if data["value"] != uint64(i) {
				t.Errorf("request %d: expected value=%d, got %v", i, i, data["value"])
			}
		}()
	}

	clientWg.Wait()
	cancel()
	serveWg.Wait()
}

func TestServerGracefulShutdown(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	// Handler that blocks until released.
	handlerStarted := make(chan struct{})
	handlerRelease := make(chan struct{})
	server.Handle("slow", func(ctx context.Context, raw []byte) (any, error) {
		close(handlerStarted)
		<-handlerRelease
		return map[string]any{"completed": true}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	// Start a slow request.
	responseChan := make(chan Response, 1)
	go func() {
		responseChan <- sendRequest(t, socketPath, map[string]string{"action": "slow"})
	}()

	// Wait for the handler to start, then release it and cancel.
	testutil.RequireClosed(t, handlerStarted, 5*time.Second, "slow handler did not start")
	close(handlerRelease)
	cancel()

	// The slow request should still complete.
	response := testutil.RequireReceive(t, responseChan, 5*time.Second, "in-flight request did not complete")
	if !response.OK {
		t.Errorf("expected ok=true for in-flight request, got false")
	}
	var data map[string]any
	decodeData(t, response, &data)
	if data["completed"] != true {
		t.Errorf("expected completed=true, got %v", data["completed"])
	}

	// Serve should return after the in-flight request completes.
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return after cancellation"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}

	// Socket file should be cleaned up.
	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("socket file not cleaned up after Serve returned")
	}
}

func TestServerReplacesStaleSocket(t *testing.T) {
	socketPath := testSocketPath(t)

	// Leave a stale file behind at the socket path, as an unclean
	// shutdown would. Listening would fail with "address already in
	// use" if the server did not remove it first.
	if err := os.WriteFile(socketPath, nil, 0600); err != nil {
		t.Fatalf("creating stale socket file: %v", err)
	}

	server := NewServer(socketPath, testLogger())
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()

	waitForSocket(t, socketPath)

	response := sendRequest(t, socketPath, map[string]string{"action": "status"})
	if !response.OK {
		t.Errorf("expected ok=true after stale socket replacement, got false")
	}

	cancel()
	if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "Serve did not return"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}
}

func TestServerDuplicateHandlerPanics(t *testing.T) {
	server := NewServer("/tmp/test.sock", testLogger())
	server.Handle("foo", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate handler registration")
		}
	}()

	server.Handle("foo", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})
}
