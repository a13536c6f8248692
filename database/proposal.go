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

// GetProposal returns a proposal by ID
func (d *Database) GetProposal(
	id uint,
	txn *Txn,
) (*models.Proposal, error) {
	proposal, err := d.metadata.GetProposal(id, txnMetadata(txn))
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal: %w", err)
	}
	if proposal == nil {
		return nil, models.ErrProposalNotFound
	}
	return proposal, nil
}

// GetProposals returns all known proposals
func (d *Database) GetProposals(
	txn *Txn,
) ([]*models.Proposal, error) {
	proposals, err := d.metadata.GetProposals(txnMetadata(txn))
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", err)
	}
	return proposals, nil
}

// GetProposalsByDedupHash returns all proposals matching a dedup hash
func (d *Database) GetProposalsByDedupHash(
	dedupHash []byte,
	txn *Txn,
) ([]*models.Proposal, error) {
	proposals, err := d.metadata.GetProposalsByDedupHash(
		dedupHash,
		txnMetadata(txn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals by hash: %w", err)
	}
	return proposals, nil
}

// SetProposal creates or updates a proposal
func (d *Database) SetProposal(
	proposal *models.Proposal,
	txn *Txn,
) error {
	if proposal == nil {
		return errors.New("proposal cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction()
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.SetProposal(proposal, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to set proposal: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit proposal: %w", err)
		}
	}
	return nil
}

// GetProposalActions returns a proposal's actions in execution order
func (d *Database) GetProposalActions(
	proposalID uint,
	txn *Txn,
) ([]models.ProposalAction, error) {
	actions, err := d.metadata.GetProposalActions(
		proposalID,
		txnMetadata(txn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposal actions: %w", err)
	}
	return actions, nil
}

// SetProposalActions stores a proposal's actions
func (d *Database) SetProposalActions(
	actions []models.ProposalAction,
	txn *Txn,
) error {
	owned := false
	if txn == nil {
		txn = d.Transaction()
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.SetProposalActions(actions, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to set proposal actions: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit proposal actions: %w", err)
		}
	}
	return nil
}
