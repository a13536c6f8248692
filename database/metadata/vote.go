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

package metadata

import (
	"errors"

	"github.com/blinklabs-io/agora/database/models"
	"gorm.io/gorm"
)

// GetVoteReceipt retrieves the receipt for a (proposal, voter) pair.
// Returns nil if the voter has not voted on the proposal.
func (d *MetadataStoreSqlite) GetVoteReceipt(
	proposalID uint,
	voter string,
	txn *gorm.DB,
) (*models.VoteReceipt, error) {
	var receipt models.VoteReceipt
	db := d.resolveDB(txn)
	if result := db.Where(
		"proposal_id = ? AND voter = ?",
		proposalID,
		voter,
	).First(&receipt); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &receipt, nil
}

// GetVoteReceipts retrieves all receipts for a proposal.
func (d *MetadataStoreSqlite) GetVoteReceipts(
	proposalID uint,
	txn *gorm.DB,
) ([]*models.VoteReceipt, error) {
	var receipts []*models.VoteReceipt
	db := d.resolveDB(txn)
	if result := db.Where(
		"proposal_id = ?",
		proposalID,
	).Order("cast_at").Find(&receipts); result.Error != nil {
		return nil, result.Error
	}
	return receipts, nil
}

// SetVoteReceipt records a vote receipt. Receipts are immutable, so this is
// a plain insert; the unique index on (proposal_id, voter) rejects
// duplicates at the storage layer as a backstop for the engine's own check.
func (d *MetadataStoreSqlite) SetVoteReceipt(
	receipt *models.VoteReceipt,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Create(receipt); result.Error != nil {
		return result.Error
	}
	return nil
}
