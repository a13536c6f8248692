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

package event

// Event types emitted by the governance engine and the delegation registry.
// These are the only externally observable side channel besides direct reads.
const (
	ProposalCreatedEventType      = EventType("governance.proposal.created")
	VoteCastEventType             = EventType("governance.vote.cast")
	ProposalStateChangedEventType = EventType("governance.proposal.state_changed")
	ProposalQueuedEventType       = EventType("governance.proposal.queued")
	ProposalExecutedEventType     = EventType("governance.proposal.executed")
	ProposalCancelledEventType    = EventType("governance.proposal.cancelled")
	DelegationChangedEventType    = EventType("delegation.changed")
)

// ProposalCreatedEvent is emitted when a proposal is accepted into the store
type ProposalCreatedEvent struct {
	// ProposalId is the identifier assigned to the new proposal
	ProposalId uint
	// Proposer is the account that created the proposal
	Proposer string
	// VotingStart is when the voting window opens
	VotingStart uint64
	// VotingEnd is when the voting window closes
	VotingEnd uint64
	// ActionCount is the number of actions the proposal carries
	ActionCount int
}

// VoteCastEvent is emitted after a vote receipt has been recorded
type VoteCastEvent struct {
	ProposalId uint
	Voter      string
	// Choice is the vote choice (0=Against, 1=For, 2=Abstain)
	Choice uint8
	// Weight is the snapshot voting power applied to the tally
	Weight uint64
}

// ProposalStateChangedEvent is emitted whenever an explicit transition
// changes a proposal's recorded state
type ProposalStateChangedEvent struct {
	ProposalId uint
	OldState   string
	NewState   string
}

// ProposalQueuedEvent is emitted when a succeeded proposal enters the
// execution timelock
type ProposalQueuedEvent struct {
	ProposalId uint
	QueuedAt   uint64
	// ExecuteAfter is the earliest time the proposal may be executed
	ExecuteAfter uint64
}

// ProposalExecutedEvent is emitted after all proposal actions were invoked
// successfully
type ProposalExecutedEvent struct {
	ProposalId uint
	Executor   string
}

// ProposalCancelledEvent is emitted when a proposal is cancelled
type ProposalCancelledEvent struct {
	ProposalId uint
	Canceller  string
}

// DelegationChangedEvent is emitted when a delegation edge is created,
// increased, reduced, or removed
type DelegationChangedEvent struct {
	Delegator string
	Delegate  string
	// Amount is the delta applied (negative for revocations)
	Amount int64
	// EdgeTotal is the resulting total on the (delegator, delegate) edge
	EdgeTotal uint64
}
