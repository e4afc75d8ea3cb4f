package sshexec

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/caravel-sh/caravel/internal/util/keygen"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	pair, err := keygen.GenerateEd25519()
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	return pair.PrivateKey
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{
		Host:       "192.0.2.10",
		User:       "root",
		PrivateKey: testKey(t),
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if client.config.Port != defaultPort {
		t.Errorf("expected port %d, got %d", defaultPort, client.config.Port)
	}
	if client.config.DialTimeout != defaultDialTimeout {
		t.Errorf("expected dial timeout %v, got %v", defaultDialTimeout, client.config.DialTimeout)
	}
	if client.Host() != "192.0.2.10" {
		t.Errorf("unexpected host %q", client.Host())
	}
}

func TestNewClient_Validation(t *testing.T) {
	t.Parallel()

	key := testKey(t)

	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty host", Config{User: "root", PrivateKey: key}},
		{"empty user", Config{Host: "192.0.2.10", PrivateKey: key}},
		{"empty key", Config{Host: "192.0.2.10", User: "root"}},
		{"garbage key", Config{Host: "192.0.2.10", User: "root", PrivateKey: []byte("nonsense")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestExecute_ConnectError(t *testing.T) {
	t.Parallel()

	// A listener that accepts and immediately closes produces a
	// handshake failure, which must classify as a connection error.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	client, err := NewClient(Config{
		Host:        "127.0.0.1",
		Port:        addr.Port,
		User:        "root",
		PrivateKey:  testKey(t),
		DialTimeout: time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.Execute(context.Background(), "true")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !IsConnectError(err) {
		t.Errorf("expected connection error, got: %v", err)
	}

	var ce *ConnectError
	if !errors.As(err, &ce) || ce.Unwrap() == nil {
		t.Errorf("ConnectError should wrap an underlying error")
	}
}

func TestWaitReady_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	// Reserve a port and close it so nothing is listening.
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	client, err := NewClient(Config{
		Host:        "127.0.0.1",
		Port:        port,
		User:        "root",
		PrivateKey:  testKey(t),
		DialTimeout: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	err = client.WaitReady(context.Background(), 2, time.Millisecond)
	if err == nil {
		t.Fatal("expected error after exhausting attempts, got nil")
	}
}

func TestWaitReady_ContextCancel(t *testing.T) {
	t.Parallel()

	client, err := NewClient(Config{
		Host:        "203.0.113.1", // TEST-NET, never reachable
		User:        "root",
		PrivateKey:  testKey(t),
		DialTimeout: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err = client.WaitReady(ctx, 100, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
