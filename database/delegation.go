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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/agora/database/models"
)

// GetDelegationEdge returns the delegation edge between two accounts
func (d *Database) GetDelegationEdge(
	delegator string,
	delegate string,
	txn *Txn,
) (*models.DelegationEdge, error) {
	edge, err := d.metadata.GetDelegationEdge(
		delegator,
		delegate,
		txnMetadata(txn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation edge: %w", err)
	}
	if edge == nil {
		return nil, models.ErrDelegationEdgeNotFound
	}
	return edge, nil
}

// GetDelegationEdgesFrom returns all delegation edges out of an account
func (d *Database) GetDelegationEdgesFrom(
	delegator string,
	txn *Txn,
) ([]*models.DelegationEdge, error) {
	edges, err := d.metadata.GetDelegationEdgesFrom(
		delegator,
		txnMetadata(txn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation edges: %w", err)
	}
	return edges, nil
}

// GetDelegationEdgesTo returns all delegation edges into an account
func (d *Database) GetDelegationEdgesTo(
	delegate string,
	txn *Txn,
) ([]*models.DelegationEdge, error) {
	edges, err := d.metadata.GetDelegationEdgesTo(delegate, txnMetadata(txn))
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation edges: %w", err)
	}
	return edges, nil
}

// SetDelegationEdge creates or updates a delegation edge
func (d *Database) SetDelegationEdge(
	edge *models.DelegationEdge,
	txn *Txn,
) error {
	if edge == nil {
		return errors.New("edge cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction()
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.SetDelegationEdge(edge, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to set delegation edge: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit delegation edge: %w", err)
		}
	}
	return nil
}

// DeleteDelegationEdge removes a fully revoked delegation edge
func (d *Database) DeleteDelegationEdge(
	edge *models.DelegationEdge,
	txn *Txn,
) error {
	if edge == nil {
		return errors.New("edge cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction()
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.DeleteDelegationEdge(edge, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to delete delegation edge: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit delegation edge delete: %w", err)
		}
	}
	return nil
}

// AddDelegationCheckpoint appends an entry to an account's checkpoint log
func (d *Database) AddDelegationCheckpoint(
	checkpoint *models.DelegationCheckpoint,
	txn *Txn,
) error {
	if checkpoint == nil {
		return errors.New("checkpoint cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction()
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.AddDelegationCheckpoint(checkpoint, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to add delegation checkpoint: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit delegation checkpoint: %w", err)
		}
	}
	return nil
}

// GetDelegationCheckpointAt returns the latest checkpoint for an account at
// or before the given time. Returns nil (without error) when the account
// had no delegation activity by that time, which callers treat as zero
// delegated totals.
func (d *Database) GetDelegationCheckpointAt(
	account string,
	at uint64,
	txn *Txn,
) (*models.DelegationCheckpoint, error) {
	checkpoint, err := d.metadata.GetDelegationCheckpointAt(
		account,
		at,
		txnMetadata(txn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get delegation checkpoint: %w", err)
	}
	return checkpoint, nil
}
