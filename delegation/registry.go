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

package delegation

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
)

// PowerSource is the external oracle for an account's own voting power.
// It must be deterministic for a fixed snapshot argument.
type PowerSource interface {
	GetPower(account string, at uint64) (uint64, error)
}

// StaticPowerSource serves fixed per-account voting power from a map.
// Accounts not present have zero power.
type StaticPowerSource map[string]uint64

func (s StaticPowerSource) GetPower(account string, _ uint64) (uint64, error) {
	return s[account], nil
}

// TimeSource provides the current time as unix seconds. Values must be
// non-decreasing across calls.
type TimeSource interface {
	Now() uint64
}

// WallClock is the default TimeSource
type WallClock struct{}

func (WallClock) Now() uint64 {
	return uint64(time.Now().Unix()) // #nosec G115
}

// RegistryConfig holds the configuration for a delegation registry
type RegistryConfig struct {
	Logger   *slog.Logger
	Database *database.Database
	EventBus *event.EventBus
	Source   PowerSource
	Time     TimeSource
}

// Registry tracks delegation edges between accounts and answers
// point-in-time voting power queries. Every balance change appends a
// checkpoint to the affected accounts' logs, so power at a past snapshot is
// reconstructed from the log rather than read from live state. Delegating
// after a proposal's voting window opens therefore cannot change weights
// for that proposal.
type Registry struct {
	config  RegistryConfig
	logger  *slog.Logger
	mutex   sync.Mutex
	lastNow uint64
}

// NewRegistry creates a delegation registry
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.Source == nil {
		return nil, errors.New("no power source provided")
	}
	if cfg.Time == nil {
		cfg.Time = WallClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Registry{
		config: cfg,
		logger: logger,
	}, nil
}

// now reads the time source, clamped to be non-decreasing
func (r *Registry) now() uint64 {
	now := r.config.Time.Now()
	if now < r.lastNow {
		now = r.lastNow
	}
	r.lastNow = now
	return now
}

// delegatedAt returns an account's delegated-in/delegated-out totals at the
// given time. An account with no checkpoint history has zero totals.
func (r *Registry) delegatedAt(
	account string,
	at uint64,
	txn *database.Txn,
) (uint64, uint64, error) {
	checkpoint, err := r.config.Database.GetDelegationCheckpointAt(
		account,
		at,
		txn,
	)
	if err != nil {
		return 0, 0, err
	}
	if checkpoint == nil {
		return 0, 0, nil
	}
	return checkpoint.DelegatedIn, checkpoint.DelegatedOut, nil
}

// Delegate moves amount of the delegator's undelegated power to the
// delegate. The spendable amount is the delegator's own oracle power minus
// everything already delegated out.
func (r *Registry) Delegate(
	delegator string,
	delegate string,
	amount uint64,
) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if delegator == delegate {
		return ErrSelfDelegation
	}
	if amount == 0 {
		return ErrInvalidAmount
	}
	now := r.now()
	ownPower, err := r.config.Source.GetPower(delegator, now)
	if err != nil {
		return fmt.Errorf("failed to get power for %s: %w", delegator, err)
	}
	txn := r.config.Database.Transaction()
	defer txn.Rollback() //nolint:errcheck
	fromIn, fromOut, err := r.delegatedAt(delegator, now, txn)
	if err != nil {
		return err
	}
	if fromOut+amount > ownPower {
		return ErrInsufficientPower
	}
	toIn, toOut, err := r.delegatedAt(delegate, now, txn)
	if err != nil {
		return err
	}
	// Upsert the edge
	var edgeTotal uint64
	edge, err := r.config.Database.GetDelegationEdge(delegator, delegate, txn)
	if err != nil {
		if !errors.Is(err, models.ErrDelegationEdgeNotFound) {
			return err
		}
		edge = &models.DelegationEdge{
			Delegator: delegator,
			Delegate:  delegate,
		}
	}
	edge.Amount += amount
	edge.UpdatedAt = now
	edgeTotal = edge.Amount
	if err := r.config.Database.SetDelegationEdge(edge, txn); err != nil {
		return err
	}
	// Append checkpoints for both sides
	if err := r.config.Database.AddDelegationCheckpoint(
		&models.DelegationCheckpoint{
			Account:      delegator,
			At:           now,
			DelegatedIn:  fromIn,
			DelegatedOut: fromOut + amount,
		},
		txn,
	); err != nil {
		return err
	}
	if err := r.config.Database.AddDelegationCheckpoint(
		&models.DelegationCheckpoint{
			Account:      delegate,
			At:           now,
			DelegatedIn:  toIn + amount,
			DelegatedOut: toOut,
		},
		txn,
	); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit delegation: %w", err)
	}
	r.logger.Debug(
		"delegation created",
		"component", "delegation",
		"delegator", delegator,
		"delegate", delegate,
		"amount", amount,
	)
	if r.config.EventBus != nil {
		r.config.EventBus.Publish(
			event.DelegationChangedEventType,
			event.NewEvent(
				event.DelegationChangedEventType,
				event.DelegationChangedEvent{
					Delegator: delegator,
					Delegate:  delegate,
					Amount:    int64(amount), // #nosec G115
					EdgeTotal: edgeTotal,
				},
			),
		)
	}
	return nil
}

// Revoke reverses up to amount of an existing delegation edge. Revoking the
// full edge amount removes the edge.
func (r *Registry) Revoke(
	delegator string,
	delegate string,
	amount uint64,
) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if amount == 0 {
		return ErrInvalidAmount
	}
	now := r.now()
	txn := r.config.Database.Transaction()
	defer txn.Rollback() //nolint:errcheck
	edge, err := r.config.Database.GetDelegationEdge(delegator, delegate, txn)
	if err != nil {
		if errors.Is(err, models.ErrDelegationEdgeNotFound) {
			return ErrInsufficientDelegation
		}
		return err
	}
	if amount > edge.Amount {
		return ErrInsufficientDelegation
	}
	edge.Amount -= amount
	edge.UpdatedAt = now
	if edge.Amount == 0 {
		if err := r.config.Database.DeleteDelegationEdge(edge, txn); err != nil {
			return err
		}
	} else {
		if err := r.config.Database.SetDelegationEdge(edge, txn); err != nil {
			return err
		}
	}
	fromIn, fromOut, err := r.delegatedAt(delegator, now, txn)
	if err != nil {
		return err
	}
	toIn, toOut, err := r.delegatedAt(delegate, now, txn)
	if err != nil {
		return err
	}
	if err := r.config.Database.AddDelegationCheckpoint(
		&models.DelegationCheckpoint{
			Account:      delegator,
			At:           now,
			DelegatedIn:  fromIn,
			DelegatedOut: fromOut - amount,
		},
		txn,
	); err != nil {
		return err
	}
	if err := r.config.Database.AddDelegationCheckpoint(
		&models.DelegationCheckpoint{
			Account:      delegate,
			At:           now,
			DelegatedIn:  toIn - amount,
			DelegatedOut: toOut,
		},
		txn,
	); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit revocation: %w", err)
	}
	r.logger.Debug(
		"delegation revoked",
		"component", "delegation",
		"delegator", delegator,
		"delegate", delegate,
		"amount", amount,
	)
	if r.config.EventBus != nil {
		r.config.EventBus.Publish(
			event.DelegationChangedEventType,
			event.NewEvent(
				event.DelegationChangedEventType,
				event.DelegationChangedEvent{
					Delegator: delegator,
					Delegate:  delegate,
					Amount:    -int64(amount), // #nosec G115
					EdgeTotal: edge.Amount,
				},
			),
		)
	}
	return nil
}

// PowerAt returns an account's effective voting power at a point in time:
// its own oracle power plus delegated-in minus delegated-out, all evaluated
// at the snapshot.
func (r *Registry) PowerAt(account string, at uint64) (uint64, error) {
	ownPower, err := r.config.Source.GetPower(account, at)
	if err != nil {
		return 0, fmt.Errorf("failed to get power for %s: %w", account, err)
	}
	in, out, err := r.delegatedAt(account, at, nil)
	if err != nil {
		return 0, err
	}
	total := ownPower + in
	if out > total {
		// The oracle shrank below the delegated-out total; clamp rather
		// than underflow
		return 0, nil
	}
	return total - out, nil
}

// SpendablePower returns the amount the account can still delegate now
func (r *Registry) SpendablePower(account string) (uint64, error) {
	r.mutex.Lock()
	now := r.now()
	r.mutex.Unlock()
	ownPower, err := r.config.Source.GetPower(account, now)
	if err != nil {
		return 0, fmt.Errorf("failed to get power for %s: %w", account, err)
	}
	_, out, err := r.delegatedAt(account, now, nil)
	if err != nil {
		return 0, err
	}
	if out > ownPower {
		return 0, nil
	}
	return ownPower - out, nil
}

// EdgesFrom returns the account's outgoing delegation edges
func (r *Registry) EdgesFrom(account string) ([]*models.DelegationEdge, error) {
	return r.config.Database.GetDelegationEdgesFrom(account, nil)
}

// EdgesTo returns the account's incoming delegation edges
func (r *Registry) EdgesTo(account string) ([]*models.DelegationEdge, error) {
	return r.config.Database.GetDelegationEdgesTo(account, nil)
}
