// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package agora

import (
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/agora/delegation"
	"github.com/blinklabs-io/agora/governance"
	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	promRegistry        prometheus.Registerer
	logger              *slog.Logger
	powerSource         delegation.PowerSource
	reputation          governance.ReputationSource
	gateway             governance.ExecutionGateway
	timeSource          delegation.TimeSource
	dataDir             string
	authorities         []string
	quorum              uint64
	thresholdPercent    uint64
	executionDelay      uint64
	weighting           governance.VoteWeighting
	countAbstainInRatio bool
	shutdownTimeout     time.Duration
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new agora config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:           slog.New(slog.NewJSONHandler(io.Discard, nil)),
		thresholdPercent: 50,
		weighting:        governance.WeightingLinear,
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to. In most cases, prometheus.DefaultRegistry would be
// a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithPowerSource specifies the oracle for each account's own voting power.
// This is required
func WithPowerSource(source delegation.PowerSource) ConfigOptionFunc {
	return func(c *Config) {
		c.powerSource = source
	}
}

// WithReputationSource specifies the oracle for per-account reputation
// scores. Required when the reputation weighting scheme is selected
func WithReputationSource(
	source governance.ReputationSource,
) ConfigOptionFunc {
	return func(c *Config) {
		c.reputation = source
	}
}

// WithExecutionGateway specifies the gateway that proposal actions are
// dispatched through. The default gateway accepts every action without
// side effects
func WithExecutionGateway(
	gateway governance.ExecutionGateway,
) ConfigOptionFunc {
	return func(c *Config) {
		c.gateway = gateway
	}
}

// WithTimeSource specifies the time source used for voting windows and
// timelocks. This defaults to the wall clock
func WithTimeSource(source delegation.TimeSource) ConfigOptionFunc {
	return func(c *Config) {
		c.timeSource = source
	}
}

// WithQuorum specifies the minimum weighted participation for proposals to
// be eligible to pass
func WithQuorum(quorum uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.quorum = quorum
	}
}

// WithThresholdPercent specifies the approval threshold percentage. The
// default is 50
func WithThresholdPercent(percent uint64) ConfigOptionFunc {
	return func(c *Config) {
		c.thresholdPercent = percent
	}
}

// WithExecutionDelay specifies the timelock between queueing a succeeded
// proposal and its earliest allowed execution
func WithExecutionDelay(delay time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.executionDelay = uint64(delay.Seconds()) // #nosec G115
	}
}

// WithWeighting specifies the vote weighting scheme for new proposals. The
// default is linear
func WithWeighting(weighting governance.VoteWeighting) ConfigOptionFunc {
	return func(c *Config) {
		c.weighting = weighting
	}
}

// WithCountAbstainInRatio includes abstain weight in the approval
// denominator. Abstain always counts toward quorum
func WithCountAbstainInRatio(enabled bool) ConfigOptionFunc {
	return func(c *Config) {
		c.countAbstainInRatio = enabled
	}
}

// WithAuthorities restricts queueing and execution to the listed accounts
// and allows them to cancel any proposal. The default is no authorities,
// leaving queue and execute permissionless
func WithAuthorities(authorities ...string) ConfigOptionFunc {
	return func(c *Config) {
		c.authorities = append(c.authorities, authorities...)
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}
