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

// GetVoteReceipt returns the vote receipt for a (proposal, voter) pair
func (d *Database) GetVoteReceipt(
	proposalID uint,
	voter string,
	txn *Txn,
) (*models.VoteReceipt, error) {
	receipt, err := d.metadata.GetVoteReceipt(
		proposalID,
		voter,
		txnMetadata(txn),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get vote receipt: %w", err)
	}
	if receipt == nil {
		return nil, models.ErrVoteReceiptNotFound
	}
	return receipt, nil
}

// GetVoteReceipts returns all vote receipts for a proposal
func (d *Database) GetVoteReceipts(
	proposalID uint,
	txn *Txn,
) ([]*models.VoteReceipt, error) {
	receipts, err := d.metadata.GetVoteReceipts(proposalID, txnMetadata(txn))
	if err != nil {
		return nil, fmt.Errorf("failed to get vote receipts: %w", err)
	}
	return receipts, nil
}

// AddVoteReceipt records a vote receipt
func (d *Database) AddVoteReceipt(
	receipt *models.VoteReceipt,
	txn *Txn,
) error {
	if receipt == nil {
		return errors.New("receipt cannot be nil")
	}
	owned := false
	if txn == nil {
		txn = d.Transaction()
		owned = true
		defer txn.Rollback() //nolint:errcheck
	}
	if err := d.metadata.SetVoteReceipt(receipt, txn.Metadata()); err != nil {
		return fmt.Errorf("failed to set vote receipt: %w", err)
	}
	if owned {
		if err := txn.Commit(); err != nil {
			return fmt.Errorf("failed to commit vote receipt: %w", err)
		}
	}
	return nil
}
