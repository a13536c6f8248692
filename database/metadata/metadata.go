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
	"log/slog"

	"github.com/blinklabs-io/agora/database/models"
	"gorm.io/gorm"
)

// MetadataStore is the interface for governance metadata persistence.
// Get methods return nil (not an error) when no matching record exists;
// the database facade maps that to the model's NotFound error.
type MetadataStore interface {
	// Database
	Close() error
	DB() *gorm.DB
	Transaction() *gorm.DB

	// Proposals
	GetProposal(uint, *gorm.DB) (*models.Proposal, error)
	GetProposals(*gorm.DB) ([]*models.Proposal, error)
	GetProposalsByDedupHash([]byte, *gorm.DB) ([]*models.Proposal, error)
	SetProposal(*models.Proposal, *gorm.DB) error
	GetProposalActions(uint, *gorm.DB) ([]models.ProposalAction, error)
	SetProposalActions([]models.ProposalAction, *gorm.DB) error

	// Vote receipts
	GetVoteReceipt(uint, string, *gorm.DB) (*models.VoteReceipt, error)
	GetVoteReceipts(uint, *gorm.DB) ([]*models.VoteReceipt, error)
	SetVoteReceipt(*models.VoteReceipt, *gorm.DB) error

	// Delegation
	GetDelegationEdge(string, string, *gorm.DB) (*models.DelegationEdge, error)
	GetDelegationEdgesFrom(string, *gorm.DB) ([]*models.DelegationEdge, error)
	GetDelegationEdgesTo(string, *gorm.DB) ([]*models.DelegationEdge, error)
	SetDelegationEdge(*models.DelegationEdge, *gorm.DB) error
	DeleteDelegationEdge(*models.DelegationEdge, *gorm.DB) error
	AddDelegationCheckpoint(*models.DelegationCheckpoint, *gorm.DB) error
	GetDelegationCheckpointAt(
		string,
		uint64,
		*gorm.DB,
	) (*models.DelegationCheckpoint, error)
}

// New creates a new sqlite-backed metadata store. Uses an in-memory
// database if dataDir is empty.
func New(
	dataDir string,
	logger *slog.Logger,
) (MetadataStore, error) {
	return NewSqlite(dataDir, logger)
}
