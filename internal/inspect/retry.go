/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package inspect

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// RetryConfig defines how the first ping of a new connection is retried.
// Instances that were just created or restarted refuse connections for a while.
type RetryConfig struct {
	// MaxRetries is the number of retries after the first attempt
	MaxRetries int
	// InitialInterval is the wait after the first failure
	InitialInterval time.Duration
	// MaxInterval caps the wait between attempts
	MaxInterval time.Duration
	// Multiplier grows the interval after each retry
	Multiplier float64
	// RandomizationFactor adds jitter (0-1)
	RandomizationFactor float64
}

// DefaultRetryConfig returns the connect policy used by Open
// Sequence: immediate -> 2s -> 4s -> 8s
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:          3,
		InitialInterval:     2 * time.Second,
		MaxInterval:         30 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.2,
	}
}

// connectRetry is the policy OpenPostgres and OpenMySQL ping with
var connectRetry = DefaultRetryConfig()

// retry runs fn until it succeeds, fails with a permanent error, the retries
// are used up or ctx is done. It returns the number of attempts made.
func retry(ctx context.Context, config RetryConfig, fn func(ctx context.Context) error) (int, error) {
	log := logr.FromContextOrDiscard(ctx)
	var interval time.Duration

	for attempt := 1; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return attempt, nil
		}
		if attempt > config.MaxRetries || !isTransient(err) {
			return attempt, err
		}

		if attempt == 1 {
			interval = config.InitialInterval
		} else {
			interval = time.Duration(float64(interval) * config.Multiplier)
		}
		if interval > config.MaxInterval {
			interval = config.MaxInterval
		}
		wait := interval
		if config.RandomizationFactor > 0 {
			delta := config.RandomizationFactor * float64(interval)
			wait = time.Duration(float64(interval) - delta + rand.Float64()*2*delta)
		}

		log.V(1).Info("connection not ready, retrying", "attempt", attempt, "wait", wait.String(), "error", err.Error())
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(wait):
		}
	}
}

// isTransient reports whether err looks like an instance that is not
// accepting connections yet rather than bad credentials or a bad DSN.
func isTransient(err error) bool {
	if err == nil {
		return false
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"i/o timeout",
		"temporary failure",
		"too many connections",
		"the database system is starting up",
		"not currently accepting connections",
		"connection timed out",
		"network is unreachable",
		"no route to host",
		"broken pipe",
		"unexpected eof",
		"try again",
	} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
