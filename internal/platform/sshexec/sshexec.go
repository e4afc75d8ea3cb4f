// Package sshexec executes commands on cluster nodes over SSH.
//
// It handles connection establishment with retry, key-based
// authentication and command execution with context support. Connection
// failures are distinguished from command failures so callers can retry
// the former without re-running commands that already executed.
//
// Host key verification is disabled by default: servers are created and
// destroyed by the reconciler and have no stable host identity.
package sshexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/caravel-sh/caravel/internal/util/retry"
)

const (
	defaultPort        = 22
	defaultDialTimeout = 10 * time.Second
)

// Executor runs commands on a single remote host.
type Executor interface {
	// Execute runs a command and returns its combined output. A
	// non-zero exit status is returned as an error wrapping the output.
	Execute(ctx context.Context, command string) (string, error)

	// ExecuteWithRetry runs a command, retrying with exponential
	// backoff on connection failures only. A command that reached the
	// host and failed is never re-run.
	ExecuteWithRetry(ctx context.Context, command string, maxRetries int, initialDelay time.Duration) (string, error)

	// WriteFile writes content to a remote path with the given mode.
	WriteFile(ctx context.Context, path, content, mode string) error

	// WaitReady polls until the host accepts SSH connections and
	// executes a trivial command, for at most attempts probes at the
	// given interval.
	WaitReady(ctx context.Context, attempts int, interval time.Duration) error

	// WaitCloudInit polls until first-boot provisioning has finished.
	WaitCloudInit(ctx context.Context, attempts int, interval time.Duration) error
}

// ConnectError marks a failure to reach the host or open a session.
// Commands never started executing when a ConnectError is returned.
type ConnectError struct {
	Err error
}

func (e *ConnectError) Error() string { return e.Err.Error() }

func (e *ConnectError) Unwrap() error { return e.Err }

// IsConnectError reports whether err is a connection-level failure.
func IsConnectError(err error) bool {
	var ce *ConnectError
	return errors.As(err, &ce)
}

// Config holds SSH client configuration.
type Config struct {
	Host       string
	Port       int
	User       string
	PrivateKey []byte

	// DialTimeout bounds TCP connection establishment. Zero means the
	// default of 10s.
	DialTimeout time.Duration

	// HostKeyCallback overrides host key verification. Nil means
	// ssh.InsecureIgnoreHostKey.
	HostKeyCallback ssh.HostKeyCallback
}

// Client implements Executor over the SSH protocol. The private key is
// parsed once at construction; connections are opened per call.
type Client struct {
	config Config
	signer ssh.Signer
}

// NewClient validates the configuration and parses the private key.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("host cannot be empty")
	}
	if cfg.User == "" {
		return nil, fmt.Errorf("user cannot be empty")
	}
	if len(cfg.PrivateKey) == 0 {
		return nil, fmt.Errorf("private key cannot be empty")
	}
	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	if cfg.HostKeyCallback == nil {
		cfg.HostKeyCallback = ssh.InsecureIgnoreHostKey() //nolint:gosec // Ephemeral infrastructure
	}

	signer, err := ssh.ParsePrivateKey(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &Client{config: cfg, signer: signer}, nil
}

// Host returns the address the client connects to.
func (c *Client) Host() string {
	return c.config.Host
}

func (c *Client) addr() string {
	return fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
}

func (c *Client) connect(ctx context.Context) (*ssh.Client, error) {
	clientConfig := &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(c.signer)},
		HostKeyCallback: c.config.HostKeyCallback,
		Timeout:         c.config.DialTimeout,
	}

	dialer := net.Dialer{Timeout: c.config.DialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.addr())
	if err != nil {
		return nil, &ConnectError{Err: fmt.Errorf("failed to dial %s: %w", c.addr(), err)}
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, c.addr(), clientConfig)
	if err != nil {
		_ = conn.Close()
		return nil, &ConnectError{Err: fmt.Errorf("ssh handshake with %s failed: %w", c.addr(), err)}
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

// Execute runs a command on the remote host.
func (c *Client) Execute(ctx context.Context, command string) (string, error) {
	client, err := c.connect(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return "", &ConnectError{Err: fmt.Errorf("failed to open session on %s: %w", c.config.Host, err)}
	}
	defer func() { _ = session.Close() }()

	output, err := session.CombinedOutput(command)
	if err != nil {
		return string(output), fmt.Errorf("command failed on %s: %w\nCommand: %s\nOutput: %s",
			c.config.Host, err, command, string(output))
	}
	return string(output), nil
}

// ExecuteWithRetry runs a command, retrying connection failures with
// exponential backoff.
func (c *Client) ExecuteWithRetry(ctx context.Context, command string, maxRetries int, initialDelay time.Duration) (string, error) {
	var output string
	err := retry.Do(ctx, func() error {
		out, err := c.Execute(ctx, command)
		output = out
		if err != nil && !IsConnectError(err) {
			return retry.Fatal(err)
		}
		return err
	},
		retry.WithMaxRetries(maxRetries),
		retry.WithInitialDelay(initialDelay))
	return output, err
}

// WriteFile writes content to path on the remote host, creating parent
// directories and setting the file mode.
func (c *Client) WriteFile(ctx context.Context, path, content, mode string) error {
	client, err := c.connect(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	session, err := client.NewSession()
	if err != nil {
		return &ConnectError{Err: fmt.Errorf("failed to open session on %s: %w", c.config.Host, err)}
	}
	defer func() { _ = session.Close() }()

	session.Stdin = bytes.NewBufferString(content)
	cmd := fmt.Sprintf("mkdir -p $(dirname %q) && cat > %q && chmod %s %q", path, path, mode, path)
	if output, err := session.CombinedOutput(cmd); err != nil {
		return fmt.Errorf("failed to write %s on %s: %w\nOutput: %s", path, c.config.Host, err, output)
	}
	return nil
}

// WaitReady polls until the host accepts an SSH connection and runs a
// trivial command. Exhausting the attempt budget is an error.
func (c *Client) WaitReady(ctx context.Context, attempts int, interval time.Duration) error {
	return c.pollCommand(ctx, "true", attempts, interval, "host never became reachable")
}

// WaitCloudInit polls until cloud-init reports first-boot provisioning
// complete via its boot-finished sentinel.
func (c *Client) WaitCloudInit(ctx context.Context, attempts int, interval time.Duration) error {
	return c.pollCommand(ctx, "test -f /var/lib/cloud/instance/boot-finished",
		attempts, interval, "cloud-init never finished")
}

func (c *Client) pollCommand(ctx context.Context, command string, attempts int, interval time.Duration, failure string) error {
	var lastErr error
	for i := 0; i < attempts; i++ {
		_, err := c.Execute(ctx, command)
		if err == nil {
			return nil
		}
		lastErr = err
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("%s on %s after %d attempts: %w", failure, c.config.Host, attempts, lastErr)
}
