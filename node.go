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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/delegation"
	"github.com/blinklabs-io/agora/event"
	"github.com/blinklabs-io/agora/governance"
)

// Node wires the database, event bus, delegation registry, and governance
// engine together behind a single lifecycle.
type Node struct {
	eventBus      *event.EventBus
	db            *database.Database
	registry      *delegation.Registry
	engine        *governance.Engine
	shutdownFuncs []func(context.Context) error
	config        Config
	done          chan struct{}
	shutdownOnce  sync.Once
}

func New(cfg Config) (*Node, error) {
	if cfg.powerSource == nil {
		return nil, errors.New("no power source provided")
	}
	n := &Node{
		config:   cfg,
		eventBus: event.NewEventBus(cfg.promRegistry, cfg.logger),
		done:     make(chan struct{}),
	}
	db, err := database.New(&database.Config{
		DataDir: cfg.dataDir,
		Logger:  cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	registry, err := delegation.NewRegistry(delegation.RegistryConfig{
		Logger:   cfg.logger,
		Database: n.db,
		EventBus: n.eventBus,
		Source:   cfg.powerSource,
		Time:     cfg.timeSource,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create delegation registry: %w", err)
	}
	n.registry = registry
	// Voting power flows through the delegation registry so that votes see
	// delegated power at the proposal snapshot
	engine, err := governance.NewEngine(governance.EngineConfig{
		Logger:       cfg.logger,
		Database:     n.db,
		EventBus:     n.eventBus,
		Power:        n.registry,
		Reputation:   cfg.reputation,
		Gateway:      cfg.gateway,
		Time:         cfg.timeSource,
		PromRegistry: cfg.promRegistry,
		Params: governance.Params{
			Quorum:              cfg.quorum,
			ThresholdPercent:    cfg.thresholdPercent,
			ExecutionDelay:      cfg.executionDelay,
			Weighting:           cfg.weighting,
			CountAbstainInRatio: cfg.countAbstainInRatio,
			Authorities:         cfg.authorities,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create governance engine: %w", err)
	}
	n.engine = engine
	return n, nil
}

// Run blocks until the node is stopped
func (n *Node) Run() error {
	n.config.logger.Info(
		"governance node started",
		"component", "node",
		"data_dir", n.config.dataDir,
		"quorum", n.config.quorum,
		"threshold_percent", n.config.thresholdPercent,
		"weighting", n.config.weighting.String(),
	)

	// Wait for shutdown signal
	<-n.done
	return nil
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	if n.db != nil {
		if closeErr := n.db.Close(); closeErr != nil {
			err = errors.Join(
				err,
				fmt.Errorf("database close: %w", closeErr),
			)
		}
	}

	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}

// Engine returns the governance engine
func (n *Node) Engine() *governance.Engine {
	return n.engine
}

// Delegation returns the delegation registry
func (n *Node) Delegation() *delegation.Registry {
	return n.registry
}

// Database returns the underlying database
func (n *Node) Database() *database.Database {
	return n.db
}

// EventBus returns the event bus
func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}
