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

// GetProposal retrieves a proposal by ID. Returns nil if not found.
func (d *MetadataStoreSqlite) GetProposal(
	id uint,
	txn *gorm.DB,
) (*models.Proposal, error) {
	var proposal models.Proposal
	db := d.resolveDB(txn)
	if result := db.First(&proposal, id); result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &proposal, nil
}

// GetProposals retrieves all proposals ordered by ID.
func (d *MetadataStoreSqlite) GetProposals(
	txn *gorm.DB,
) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	db := d.resolveDB(txn)
	if result := db.Order("id").Find(&proposals); result.Error != nil {
		return nil, result.Error
	}
	return proposals, nil
}

// GetProposalsByDedupHash retrieves all proposals with the given dedup hash.
// The caller decides which of them (if any) still block resubmission based
// on their derived lifecycle state.
func (d *MetadataStoreSqlite) GetProposalsByDedupHash(
	dedupHash []byte,
	txn *gorm.DB,
) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	db := d.resolveDB(txn)
	if result := db.Where(
		"dedup_hash = ?",
		dedupHash,
	).Find(&proposals); result.Error != nil {
		return nil, result.Error
	}
	return proposals, nil
}

// SetProposal creates or updates a proposal.
func (d *MetadataStoreSqlite) SetProposal(
	proposal *models.Proposal,
	txn *gorm.DB,
) error {
	db := d.resolveDB(txn)
	if result := db.Save(proposal); result.Error != nil {
		return result.Error
	}
	return nil
}

// GetProposalActions retrieves a proposal's actions in execution order.
func (d *MetadataStoreSqlite) GetProposalActions(
	proposalID uint,
	txn *gorm.DB,
) ([]models.ProposalAction, error) {
	var actions []models.ProposalAction
	db := d.resolveDB(txn)
	if result := db.Where(
		"proposal_id = ?",
		proposalID,
	).Order("action_index").Find(&actions); result.Error != nil {
		return nil, result.Error
	}
	return actions, nil
}

// SetProposalActions stores a proposal's actions.
func (d *MetadataStoreSqlite) SetProposalActions(
	actions []models.ProposalAction,
	txn *gorm.DB,
) error {
	if len(actions) == 0 {
		return nil
	}
	db := d.resolveDB(txn)
	if result := db.Create(&actions); result.Error != nil {
		return result.Error
	}
	return nil
}
