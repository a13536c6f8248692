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
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPower map[string]uint64

func (s staticPower) PowerAt(account string, _ uint64) (uint64, error) {
	return s[account], nil
}

type powerFunc func(account string, at uint64) (uint64, error)

func (f powerFunc) PowerAt(account string, at uint64) (uint64, error) {
	return f(account, at)
}

type staticReputation map[string]uint64

func (s staticReputation) GetReputation(
	account string,
	_ uint64,
) (uint64, error) {
	return s[account], nil
}

type fakeClock struct {
	current uint64
}

func (c *fakeClock) Now() uint64 {
	return c.current
}

type recordingGateway struct {
	invoked []Action
	failAt  int // action index to fail at, -1 for none
}

func (g *recordingGateway) Invoke(
	_ context.Context,
	action Action,
) ([]byte, error) {
	if g.failAt >= 0 && len(g.invoked) == g.failAt {
		return []byte("revert reason"), errors.New("target rejected call")
	}
	g.invoked = append(g.invoked, action)
	return nil, nil
}

func defaultTestParams() Params {
	return Params{
		Quorum:           100,
		ThresholdPercent: 50,
		ExecutionDelay:   3600,
		Weighting:        WeightingLinear,
	}
}

func newTestEngine(
	t *testing.T,
	params Params,
	power PowerSource,
) (*Engine, *fakeClock, *recordingGateway) {
	t.Helper()
	db, err := database.New(&database.Config{
		DataDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		// nolint:errcheck
		db.Close()
	})
	clock := &fakeClock{current: 1000}
	gateway := &recordingGateway{failAt: -1}
	engine, err := NewEngine(EngineConfig{
		Database: db,
		Power:    power,
		Gateway:  gateway,
		Time:     clock,
		Params:   params,
	})
	require.NoError(t, err)
	return engine, clock, gateway
}

func testProposalParams() ProposalParams {
	return ProposalParams{
		Proposer:     "alice",
		Description:  "raise the widget limit",
		Targets:      []string{"widget-service"},
		Values:       []uint64{0},
		Payloads:     [][]byte{[]byte(`{"limit":100}`)},
		VotingDelay:  100,
		VotingPeriod: 1000,
	}
}

func TestEngineValidation(t *testing.T) {
	db, err := database.New(&database.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	power := staticPower{}
	_, err = NewEngine(EngineConfig{Power: power})
	require.Error(t, err)
	_, err = NewEngine(EngineConfig{Database: db})
	require.Error(t, err)
	_, err = NewEngine(EngineConfig{
		Database: db,
		Power:    power,
		Params:   Params{ThresholdPercent: 101},
	})
	require.Error(t, err)
	_, err = NewEngine(EngineConfig{
		Database: db,
		Power:    power,
		Params: Params{
			ThresholdPercent: 50,
			Weighting:        WeightingReputation,
		},
	})
	require.ErrorContains(t, err, "reputation")
}

func TestProposeValidation(t *testing.T) {
	engine, _, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 500},
	)
	params := testProposalParams()
	params.Proposer = ""
	_, err := engine.Propose(params)
	require.ErrorIs(t, err, ErrInvalidProposal)

	params = testProposalParams()
	params.Description = ""
	_, err = engine.Propose(params)
	require.ErrorIs(t, err, ErrInvalidProposal)

	params = testProposalParams()
	params.Targets = nil
	params.Values = nil
	params.Payloads = nil
	_, err = engine.Propose(params)
	require.ErrorIs(t, err, ErrInvalidProposal)

	params = testProposalParams()
	params.Values = []uint64{1, 2}
	_, err = engine.Propose(params)
	require.ErrorIs(t, err, ErrInvalidProposal)

	params = testProposalParams()
	params.Targets = []string{""}
	_, err = engine.Propose(params)
	require.ErrorIs(t, err, ErrInvalidProposal)
}

func TestProposalLifecycle(t *testing.T) {
	engine, clock, gateway := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150, "bob": 40},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)

	state, err := engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StatePending, state)

	// Voting window opens at 1000 + 100
	clock.current = 1100
	weight, err := engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), weight)
	state, err = engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateActive, state)

	// Window closes at 1100 + 1000
	clock.current = 2101
	state, err = engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, state)

	require.NoError(t, engine.Queue(proposalID, "alice"))
	state, err = engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateQueued, state)

	// Timelock has not elapsed yet
	err = engine.Execute(context.Background(), proposalID, "alice")
	require.ErrorIs(t, err, ErrTimelockNotElapsed)
	assert.True(t, Temporal(err))

	clock.current = 2101 + 3600
	require.NoError(
		t,
		engine.Execute(context.Background(), proposalID, "alice"),
	)
	state, err = engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateExecuted, state)
	require.Len(t, gateway.invoked, 1)
	assert.Equal(t, "widget-service", gateway.invoked[0].Target)
	assert.Equal(t, []byte(`{"limit":100}`), gateway.invoked[0].Payload)

	// No double execution
	err = engine.Execute(context.Background(), proposalID, "alice")
	require.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestVoteWindowEnforcement(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)

	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.ErrorIs(t, err, ErrVotingNotStarted)
	require.ErrorIs(t, err, ErrVotingNotOpen)
	assert.True(t, Temporal(err))

	clock.current = 2101
	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.ErrorIs(t, err, ErrVotingClosed)
	require.ErrorIs(t, err, ErrVotingNotOpen)
	assert.False(t, Temporal(err))
}

func TestDoubleVoteRejected(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	// A different choice doesn't help
	_, err = engine.Vote(proposalID, "alice", ChoiceAgainst)
	require.ErrorIs(t, err, ErrAlreadyVoted)

	proposal, err := engine.Proposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), proposal.ForVotes)
	assert.Equal(t, uint64(0), proposal.AgainstVotes)
}

func TestVoteNoPower(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	_, err = engine.Vote(proposalID, "mallory", ChoiceFor)
	require.ErrorIs(t, err, ErrNoVotingPower)
}

func TestVotePowerSnapshot(t *testing.T) {
	// Power at the voting-start snapshot differs from power at vote time;
	// the snapshot value must win
	power := powerFunc(func(_ string, at uint64) (uint64, error) {
		if at == 1100 {
			return 150, nil
		}
		return 999, nil
	})
	engine, clock, _ := newTestEngine(t, defaultTestParams(), power)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1500
	weight, err := engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), weight)
}

func TestQuorumRequired(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"bob": 99},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	_, err = engine.Vote(proposalID, "bob", ChoiceFor)
	require.NoError(t, err)
	clock.current = 2101
	state, err := engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateDefeated, state)

	err = engine.Queue(proposalID, "bob")
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestSplitVoteWithAbstain(t *testing.T) {
	// 400 For, 400 Against, 300 Abstain with quorum 1000 and threshold 50:
	// abstentions carry the proposal over quorum but stay out of the
	// approval ratio, so the 50% threshold is met exactly
	params := defaultTestParams()
	params.Quorum = 1000
	engine, clock, _ := newTestEngine(
		t,
		params,
		staticPower{"alice": 400, "bob": 400, "carol": 300},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	for voter, choice := range map[string]VoteChoice{
		"alice": ChoiceFor,
		"bob":   ChoiceAgainst,
		"carol": ChoiceAbstain,
	} {
		_, err = engine.Vote(proposalID, voter, choice)
		require.NoError(t, err)
	}
	clock.current = 2101
	state, err := engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, state)
}

func TestSplitVoteAbstainInRatio(t *testing.T) {
	params := defaultTestParams()
	params.Quorum = 1000
	params.CountAbstainInRatio = true
	engine, clock, _ := newTestEngine(
		t,
		params,
		staticPower{"alice": 400, "bob": 400, "carol": 300},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	for voter, choice := range map[string]VoteChoice{
		"alice": ChoiceFor,
		"bob":   ChoiceAgainst,
		"carol": ChoiceAbstain,
	} {
		_, err = engine.Vote(proposalID, voter, choice)
		require.NoError(t, err)
	}
	clock.current = 2101
	state, err := engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateDefeated, state)
}

func TestDuplicateProposal(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)

	// Identical content is rejected while the first is pending, even from
	// a different proposer
	params := testProposalParams()
	params.Proposer = "bob"
	_, err = engine.Propose(params)
	require.ErrorIs(t, err, ErrDuplicateProposal)

	// Different content is fine
	params = testProposalParams()
	params.Description = "lower the widget limit"
	_, err = engine.Propose(params)
	require.NoError(t, err)

	// Once the first is defeated, resubmission is allowed
	clock.current = 2101
	state, err := engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateDefeated, state)
	_, err = engine.Propose(testProposalParams())
	require.NoError(t, err)
}

func TestCancel(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)

	err = engine.Cancel(proposalID, "mallory")
	require.ErrorIs(t, err, ErrNotAuthorized)

	require.NoError(t, engine.Cancel(proposalID, "alice"))
	state, err := engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateCancelled, state)

	// Cancelled proposals reject votes
	clock.current = 1100
	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.ErrorIs(t, err, ErrVotingClosed)
}

func TestCancelAfterSuccess(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	clock.current = 2101
	err = engine.Cancel(proposalID, "alice")
	require.ErrorIs(t, err, ErrIllegalTransition)
}

func TestExecutionFailureLeavesQueued(t *testing.T) {
	engine, clock, gateway := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	params := testProposalParams()
	params.Targets = []string{"svc-a", "svc-b"}
	params.Values = []uint64{0, 0}
	params.Payloads = [][]byte{[]byte("one"), []byte("two")}
	proposalID, err := engine.Propose(params)
	require.NoError(t, err)
	clock.current = 1100
	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	clock.current = 2101
	require.NoError(t, engine.Queue(proposalID, "alice"))
	clock.current = 2101 + 3600

	gateway.failAt = 1
	err = engine.Execute(context.Background(), proposalID, "alice")
	require.ErrorIs(t, err, ErrTargetCallFailed)
	var callErr *TargetCallError
	require.ErrorAs(t, err, &callErr)
	assert.Equal(t, 1, callErr.Index)
	assert.Equal(t, []byte("revert reason"), callErr.ReturnData)

	// Still queued, and retry succeeds once the target recovers
	state, err := engine.State(proposalID)
	require.NoError(t, err)
	assert.Equal(t, StateQueued, state)

	gateway.failAt = -1
	gateway.invoked = nil
	require.NoError(
		t,
		engine.Execute(context.Background(), proposalID, "alice"),
	)
	require.Len(t, gateway.invoked, 2)
	assert.Equal(t, "svc-a", gateway.invoked[0].Target)
	assert.Equal(t, "svc-b", gateway.invoked[1].Target)
}

func TestAuthorities(t *testing.T) {
	params := defaultTestParams()
	params.Authorities = []string{"council"}
	engine, clock, _ := newTestEngine(
		t,
		params,
		staticPower{"alice": 150},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)

	// Authorities can cancel proposals they didn't create
	otherParams := testProposalParams()
	otherParams.Description = "another change"
	otherID, err := engine.Propose(otherParams)
	require.NoError(t, err)
	require.NoError(t, engine.Cancel(otherID, "council"))

	clock.current = 1100
	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	clock.current = 2101

	err = engine.Queue(proposalID, "alice")
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.NoError(t, engine.Queue(proposalID, "council"))

	clock.current = 2101 + 3600
	err = engine.Execute(context.Background(), proposalID, "alice")
	require.ErrorIs(t, err, ErrNotAuthorized)
	require.NoError(
		t,
		engine.Execute(context.Background(), proposalID, "council"),
	)
}

func TestQuadraticWeighting(t *testing.T) {
	params := defaultTestParams()
	params.Quorum = 10
	params.Weighting = WeightingQuadratic
	engine, clock, _ := newTestEngine(
		t,
		params,
		staticPower{"whale": 10000, "minnow": 100},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	weight, err := engine.Vote(proposalID, "whale", ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), weight)
	weight, err = engine.Vote(proposalID, "minnow", ChoiceAgainst)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), weight)
}

func TestReputationWeighting(t *testing.T) {
	db, err := database.New(&database.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	clock := &fakeClock{current: 1000}
	params := defaultTestParams()
	params.Weighting = WeightingReputation
	engine, err := NewEngine(EngineConfig{
		Database:   db,
		Power:      staticPower{"alice": 100},
		Reputation: staticReputation{"alice": 50},
		Time:       clock,
		Params:     params,
	})
	require.NoError(t, err)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	weight, err := engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), weight)
}

func TestReceiptsAndTallyConsistency(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 100, "bob": 60, "carol": 40},
	)
	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	for voter, choice := range map[string]VoteChoice{
		"alice": ChoiceFor,
		"bob":   ChoiceAgainst,
		"carol": ChoiceAbstain,
	} {
		_, err = engine.Vote(proposalID, voter, choice)
		require.NoError(t, err)
	}
	receipts, err := engine.Receipts(proposalID)
	require.NoError(t, err)
	require.Len(t, receipts, 3)
	var sums [3]uint64
	for _, receipt := range receipts {
		sums[receipt.Choice] += receipt.Weight
	}
	proposal, err := engine.Proposal(proposalID)
	require.NoError(t, err)
	assert.Equal(t, sums[models.VoteAgainst], proposal.AgainstVotes)
	assert.Equal(t, sums[models.VoteFor], proposal.ForVotes)
	assert.Equal(t, sums[models.VoteAbstain], proposal.AbstainVotes)

	receipt, err := engine.Receipt(proposalID, "bob")
	require.NoError(t, err)
	assert.Equal(t, uint8(ChoiceAgainst), receipt.Choice)
	assert.Equal(t, uint64(60), receipt.Weight)

	_, err = engine.Receipt(proposalID, "mallory")
	require.ErrorIs(t, err, models.ErrVoteReceiptNotFound)
}

func TestActiveProposals(t *testing.T) {
	engine, clock, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	var ids []uint
	for i := range 3 {
		params := testProposalParams()
		params.Description = fmt.Sprintf("change number %d", i)
		proposalID, err := engine.Propose(params)
		require.NoError(t, err)
		ids = append(ids, proposalID)
	}
	require.NoError(t, engine.Cancel(ids[2], "alice"))

	active, err := engine.ActiveProposals()
	require.NoError(t, err)
	assert.Empty(t, active)

	clock.current = 1100
	active, err = engine.ActiveProposals()
	require.NoError(t, err)
	assert.Len(t, active, 2)

	cancelled, err := engine.ProposalsInState(StateCancelled)
	require.NoError(t, err)
	require.Len(t, cancelled, 1)
	assert.Equal(t, ids[2], cancelled[0].ID)
}

func TestEngineEvents(t *testing.T) {
	db, err := database.New(&database.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck
	bus := event.NewEventBus(nil, nil)
	defer bus.Stop()
	_, createdCh := bus.Subscribe(event.ProposalCreatedEventType)
	_, stateCh := bus.Subscribe(event.ProposalStateChangedEventType)
	clock := &fakeClock{current: 1000}
	engine, err := NewEngine(EngineConfig{
		Database: db,
		EventBus: bus,
		Power:    staticPower{"alice": 150},
		Time:     clock,
		Params:   defaultTestParams(),
	})
	require.NoError(t, err)

	proposalID, err := engine.Propose(testProposalParams())
	require.NoError(t, err)
	clock.current = 1100
	_, err = engine.Vote(proposalID, "alice", ChoiceFor)
	require.NoError(t, err)
	clock.current = 2101
	require.NoError(t, engine.Queue(proposalID, "alice"))
	clock.current = 2101 + 3600
	require.NoError(
		t,
		engine.Execute(context.Background(), proposalID, "alice"),
	)

	// Publishes happen synchronously, so the buffered channels already
	// hold everything emitted above
	created := (<-createdCh).Data.(event.ProposalCreatedEvent)
	assert.Equal(t, proposalID, created.ProposalId)
	assert.Equal(t, "alice", created.Proposer)
	assert.Equal(t, 1, created.ActionCount)
	queued := (<-stateCh).Data.(event.ProposalStateChangedEvent)
	assert.Equal(t, "Succeeded", queued.OldState)
	assert.Equal(t, "Queued", queued.NewState)
	executed := (<-stateCh).Data.(event.ProposalStateChangedEvent)
	assert.Equal(t, "Queued", executed.OldState)
	assert.Equal(t, "Executed", executed.NewState)
}

func TestActionsResolvePayloads(t *testing.T) {
	engine, _, _ := newTestEngine(
		t,
		defaultTestParams(),
		staticPower{"alice": 150},
	)
	params := testProposalParams()
	params.Targets = []string{"svc-a", "svc-b"}
	params.Values = []uint64{7, 0}
	params.Payloads = [][]byte{[]byte("one"), []byte("two")}
	proposalID, err := engine.Propose(params)
	require.NoError(t, err)

	actions, err := engine.Actions(proposalID)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "svc-a", actions[0].Target)
	assert.Equal(t, uint64(7), actions[0].Value)
	assert.Equal(t, []byte("one"), actions[0].Payload)
	assert.Equal(t, []byte("two"), actions[1].Payload)
}
