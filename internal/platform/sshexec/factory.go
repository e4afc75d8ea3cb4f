package sshexec

import (
	"fmt"
	"os"
)

// Factory creates Executors for individual hosts sharing one identity.
type Factory struct {
	user       string
	port       int
	privateKey []byte
}

// NewFactory loads the private key and returns a factory for executors
// authenticating as user on the given port.
func NewFactory(user, privateKeyPath string, port int) (*Factory, error) {
	// #nosec G304
	key, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh private key: %w", err)
	}
	return &Factory{user: user, port: port, privateKey: key}, nil
}

// For returns an Executor for the given host.
func (f *Factory) For(host string) (Executor, error) {
	return NewClient(Config{
		Host:       host,
		Port:       f.port,
		User:       f.user,
		PrivateKey: f.privateKey,
	})
}

// ExecutorFactory creates executors per host; satisfied by *Factory and
// by test fakes.
type ExecutorFactory interface {
	For(host string) (Executor, error)
}
