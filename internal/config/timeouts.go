package config

import (
	"os"
	"strconv"
	"time"
)

// Timeouts holds all configurable wait budgets. Every bounded wait in the
// codebase draws its attempt count and interval from here so test runs can
// shorten them uniformly.
type Timeouts struct {
	ServerCreate time.Duration // server creation at the provider
	Delete       time.Duration // provider-side delete actions

	ReachableAttempts int           // SSH reachability probes for new servers
	ReachableInterval time.Duration // delay between reachability probes

	CloudInitAttempts int           // first-boot provisioning polls
	CloudInitInterval time.Duration // delay between cloud-init polls

	NodeReady time.Duration // node Ready after install or join
	PodReady  time.Duration // ingress controller pod Running

	RetryMaxAttempts  int           // generic retry budget
	RetryInitialDelay time.Duration // initial backoff delay
}

// LoadTimeouts loads timeout configuration from environment variables,
// falling back to defaults for unset or unparsable values.
//
// Environment variables:
//   - CARAVEL_TIMEOUT_SERVER_CREATE (default: 10m)
//   - CARAVEL_TIMEOUT_DELETE (default: 5m)
//   - CARAVEL_TIMEOUT_NODE_READY (default: 5m)
//   - CARAVEL_TIMEOUT_POD_READY (default: 5m)
//   - CARAVEL_RETRY_MAX_ATTEMPTS (default: 5)
//   - CARAVEL_RETRY_INITIAL_DELAY (default: 1s)
func LoadTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      parseDuration("CARAVEL_TIMEOUT_SERVER_CREATE", 10*time.Minute),
		Delete:            parseDuration("CARAVEL_TIMEOUT_DELETE", 5*time.Minute),
		ReachableAttempts: 30,
		ReachableInterval: 10 * time.Second,
		CloudInitAttempts: 60,
		CloudInitInterval: 5 * time.Second,
		NodeReady:         parseDuration("CARAVEL_TIMEOUT_NODE_READY", 5*time.Minute),
		PodReady:          parseDuration("CARAVEL_TIMEOUT_POD_READY", 5*time.Minute),
		RetryMaxAttempts:  parseInt("CARAVEL_RETRY_MAX_ATTEMPTS", 5),
		RetryInitialDelay: parseDuration("CARAVEL_RETRY_INITIAL_DELAY", 1*time.Second),
	}
}

// TestTimeouts returns aggressively shortened timeouts for unit tests.
func TestTimeouts() *Timeouts {
	return &Timeouts{
		ServerCreate:      time.Second,
		Delete:            time.Second,
		ReachableAttempts: 2,
		ReachableInterval: time.Millisecond,
		CloudInitAttempts: 2,
		CloudInitInterval: time.Millisecond,
		NodeReady:         100 * time.Millisecond,
		PodReady:          100 * time.Millisecond,
		RetryMaxAttempts:  1,
		RetryInitialDelay: time.Millisecond,
	}
}

func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}

func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}
