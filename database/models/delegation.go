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

var ErrDelegationEdgeNotFound = errors.New("delegation edge not found")

// DelegationEdge is the current delegated amount from one account to
// another. Edges are created by delegation, reduced or removed by
// revocation, and never expire on their own.
type DelegationEdge struct {
	ID        uint   `gorm:"primarykey"`
	Delegator string `gorm:"index:idx_edge_delegator;uniqueIndex:idx_edge_unique,priority:1;size:128;not null"`
	Delegate  string `gorm:"index:idx_edge_delegate;uniqueIndex:idx_edge_unique,priority:2;size:128;not null"`
	Amount    uint64 `gorm:"not null"`
	UpdatedAt uint64 `gorm:"not null"`
}

// TableName returns the table name
func (DelegationEdge) TableName() string {
	return "delegation_edge"
}

// DelegationCheckpoint is one entry in the append-only per-account log of
// delegation totals. Point-in-time voting power queries read the latest
// checkpoint at or before the snapshot, so delegations made after a
// proposal's voting window opens cannot change weights for that proposal.
type DelegationCheckpoint struct {
	ID      uint   `gorm:"primarykey"`
	Account string `gorm:"index:idx_checkpoint_account_at,priority:1;size:128;not null"`
	At      uint64 `gorm:"index:idx_checkpoint_account_at,priority:2;not null"`
	// Running totals as of At
	DelegatedIn  uint64 `gorm:"not null"`
	DelegatedOut uint64 `gorm:"not null"`
}

// TableName returns the table name
func (DelegationCheckpoint) TableName() string {
	return "delegation_checkpoint"
}
