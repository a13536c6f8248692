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

package models

import "errors"

var ErrProposalNotFound = errors.New("proposal not found")

// Weighting constants select the vote weighting scheme for a proposal.
// The scheme is fixed at proposal creation and never changes mid-vote.
const (
	WeightingLinear     = 0
	WeightingQuadratic  = 1
	WeightingReputation = 2
)

// Proposal represents a governance proposal and its accumulated tally.
// Lifecycle state is not stored directly: Pending/Active/Succeeded/Defeated
// are derived from the stored fields and the current time, while the
// Cancelled/Executed flags and the queue markers record the transitions
// that cannot be recomputed.
type Proposal struct {
	ID          uint   `gorm:"primarykey"`
	DedupHash   []byte `gorm:"index;size:32;not null"` // hash of (targets, values, payloads, description)
	Proposer    string `gorm:"index;size:128;not null"`
	Description string `gorm:"not null"`
	// Voting window, fixed at creation
	VotingStart uint64 `gorm:"index;not null"`
	VotingEnd   uint64 `gorm:"index;not null"`
	// Consensus parameters, frozen from engine config at creation
	Quorum           uint64 `gorm:"not null"`
	ThresholdPercent uint64 `gorm:"not null"`
	ExecutionDelay   uint64 `gorm:"not null"`
	Weighting        uint8  `gorm:"not null"`
	// Weighted tally, monotonically non-decreasing during the voting window
	ForVotes     uint64 `gorm:"not null"`
	AgainstVotes uint64 `gorm:"not null"`
	AbstainVotes uint64 `gorm:"not null"`
	// Queue markers, set by the Succeeded -> Queued transition
	QueuedAt     *uint64
	ExecuteAfter *uint64
	// Terminal flags
	Cancelled bool `gorm:"not null;default:false"`
	Executed  bool `gorm:"not null;default:false"`
	CreatedAt uint64
}

// TableName returns the table name
func (Proposal) TableName() string {
	return "proposal"
}

// ProposalAction is a single (target, value, payload) effect of a proposal.
// Actions are executed in ActionIndex order. The raw payload bytes live in
// the blob store keyed by PayloadHash; only the hash is recorded here.
type ProposalAction struct {
	ID          uint   `gorm:"primarykey"`
	ProposalID  uint   `gorm:"uniqueIndex:idx_action_proposal_index,priority:1;not null"`
	ActionIndex uint32 `gorm:"uniqueIndex:idx_action_proposal_index,priority:2;not null"`
	Target      string `gorm:"size:128;not null"`
	Value       uint64 `gorm:"not null"`
	PayloadHash []byte `gorm:"size:32;not null"`
}

// TableName returns the table name
func (ProposalAction) TableName() string {
	return "proposal_action"
}
