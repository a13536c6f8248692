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

package governance

import (
	"github.com/blinklabs-io/agora/database/models"
)

// State is the lifecycle state of a proposal. Only Cancelled, Queued, and
// Executed are persisted; the rest are derived from the voting window and
// tallies at query time.
type State uint8

const (
	StatePending State = iota
	StateActive
	StateSucceeded
	StateDefeated
	StateQueued
	StateExecuted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateActive:
		return "Active"
	case StateSucceeded:
		return "Succeeded"
	case StateDefeated:
		return "Defeated"
	case StateQueued:
		return "Queued"
	case StateExecuted:
		return "Executed"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal returns true for states a proposal can never leave
func (s State) Terminal() bool {
	return s == StateDefeated ||
		s == StateExecuted ||
		s == StateCancelled
}

// statusOf derives the state of a proposal at the given time. Persisted
// flags take precedence over the time-derived states, and a queued proposal
// stays Queued until executed or the sun burns out.
func statusOf(
	p *models.Proposal,
	countAbstainInRatio bool,
	now uint64,
) State {
	if p.Executed {
		return StateExecuted
	}
	if p.Cancelled {
		return StateCancelled
	}
	if p.QueuedAt != nil {
		return StateQueued
	}
	if now < p.VotingStart {
		return StatePending
	}
	if now <= p.VotingEnd {
		return StateActive
	}
	if tallyPasses(p, countAbstainInRatio) {
		return StateSucceeded
	}
	return StateDefeated
}

// tallyPasses evaluates quorum and approval threshold for a proposal whose
// voting window has closed. Abstain votes count toward quorum but are
// excluded from the approval ratio unless countAbstainInRatio is set.
func tallyPasses(p *models.Proposal, countAbstainInRatio bool) bool {
	participation := p.ForVotes + p.AgainstVotes + p.AbstainVotes
	if participation < p.Quorum {
		return false
	}
	// A proposal nobody voted for cannot pass, even when abstentions
	// alone meet quorum
	if p.ForVotes == 0 {
		return false
	}
	denominator := p.ForVotes + p.AgainstVotes
	if countAbstainInRatio {
		denominator += p.AbstainVotes
	}
	return p.ForVotes*100 >= p.ThresholdPercent*denominator
}
