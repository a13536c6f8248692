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

var ErrVoteReceiptNotFound = errors.New("vote receipt not found")

// Vote choice constants for a governance vote.
const (
	VoteAgainst = 0
	VoteFor     = 1
	VoteAbstain = 2
)

// VoteReceipt records a single vote on a proposal. The unique index on
// (proposal_id, voter) enforces at most one receipt per voter per proposal;
// re-voting is rejected, never overwritten.
type VoteReceipt struct {
	ID         uint   `gorm:"primarykey"`
	ProposalID uint   `gorm:"index:idx_receipt_proposal;uniqueIndex:idx_receipt_unique,priority:1;not null"`
	Voter      string `gorm:"uniqueIndex:idx_receipt_unique,priority:2;size:128;not null"`
	Choice     uint8  `gorm:"not null"` // 0=Against, 1=For, 2=Abstain
	// Weight is the voting power at the proposal's voting-start snapshot,
	// after the proposal's weighting scheme has been applied
	Weight uint64 `gorm:"not null"`
	CastAt uint64 `gorm:"not null"`
}

// TableName returns the table name
func (VoteReceipt) TableName() string {
	return "vote_receipt"
}
