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
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/blinklabs-io/agora/event"
	"github.com/prometheus/client_golang/prometheus"
)

// PowerSource answers point-in-time voting power queries. The delegation
// registry satisfies this interface.
type PowerSource interface {
	PowerAt(account string, at uint64) (uint64, error)
}

// TimeSource provides the current time as unix seconds. Values must be
// non-decreasing across calls.
type TimeSource interface {
	Now() uint64
}

type wallClock struct{}

func (wallClock) Now() uint64 {
	return uint64(time.Now().Unix()) // #nosec G115
}

// Params holds the consensus parameters frozen into each new proposal
type Params struct {
	// Quorum is the minimum total weighted participation (For + Against +
	// Abstain) for a proposal to be eligible to pass
	Quorum uint64
	// ThresholdPercent is the minimum percentage of For votes over the
	// approval denominator, compared inclusively
	ThresholdPercent uint64
	// ExecutionDelay is the timelock in seconds between queueing and the
	// earliest allowed execution
	ExecutionDelay uint64
	// Weighting selects the vote weighting scheme
	Weighting VoteWeighting
	// CountAbstainInRatio includes Abstain weight in the approval
	// denominator. Abstain always counts toward quorum.
	CountAbstainInRatio bool
	// Authorities restricts Queue and Execute to the listed accounts and
	// extends Cancel to them. An empty list leaves Queue and Execute
	// permissionless.
	Authorities []string
}

// EngineConfig holds the configuration for a governance engine
type EngineConfig struct {
	Logger       *slog.Logger
	Database     *database.Database
	EventBus     *event.EventBus
	Power        PowerSource
	Reputation   ReputationSource
	Gateway      ExecutionGateway
	Time         TimeSource
	PromRegistry prometheus.Registerer
	Params       Params
}

// Engine drives the proposal lifecycle: creation, voting, queueing,
// execution, and cancellation. All mutations go through the engine, which
// serializes them per proposal, so derived state reads are consistent with
// the stored tallies.
type Engine struct {
	config    EngineConfig
	logger    *slog.Logger
	metrics   engineMetrics
	locks     sync.Map // proposal ID -> *sync.Mutex
	proposeMu sync.Mutex
	timeMu    sync.Mutex
	lastNow   uint64
}

// NewEngine creates a governance engine
func NewEngine(cfg EngineConfig) (*Engine, error) {
	if cfg.Database == nil {
		return nil, errors.New("no database provided")
	}
	if cfg.Power == nil {
		return nil, errors.New("no power source provided")
	}
	if cfg.Params.ThresholdPercent == 0 ||
		cfg.Params.ThresholdPercent > 100 {
		return nil, fmt.Errorf(
			"threshold percent must be in 1..100, got %d",
			cfg.Params.ThresholdPercent,
		)
	}
	if cfg.Params.Weighting > WeightingReputation {
		return nil, fmt.Errorf(
			"unknown weighting scheme: %d",
			cfg.Params.Weighting,
		)
	}
	if cfg.Params.Weighting == WeightingReputation && cfg.Reputation == nil {
		return nil, errors.New(
			"reputation weighting requires a reputation source",
		)
	}
	if cfg.Gateway == nil {
		cfg.Gateway = NoopGateway{}
	}
	if cfg.Time == nil {
		cfg.Time = wallClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	e := &Engine{
		config: cfg,
		logger: logger,
	}
	e.initMetrics(cfg.PromRegistry)
	return e, nil
}

// now reads the time source, clamped to be non-decreasing
func (e *Engine) now() uint64 {
	e.timeMu.Lock()
	defer e.timeMu.Unlock()
	now := e.config.Time.Now()
	if now < e.lastNow {
		now = e.lastNow
	}
	e.lastNow = now
	return now
}

// proposalLock returns the mutex serializing mutations of one proposal
func (e *Engine) proposalLock(id uint) *sync.Mutex {
	lock, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

func (e *Engine) isAuthority(account string) bool {
	return slices.Contains(e.config.Params.Authorities, account)
}

// canAdvance reports whether caller may queue or execute proposals. With no
// authorities configured these transitions are permissionless.
func (e *Engine) canAdvance(caller string) bool {
	if len(e.config.Params.Authorities) == 0 {
		return true
	}
	return e.isAuthority(caller)
}

// canCancel reports whether caller may cancel the proposal. The proposer
// can always cancel their own proposal; authorities can cancel any.
func (e *Engine) canCancel(p *models.Proposal, caller string) bool {
	return caller == p.Proposer || e.isAuthority(caller)
}

func (e *Engine) publishStateChange(id uint, oldState State, newState State) {
	if e.config.EventBus == nil {
		return
	}
	e.config.EventBus.Publish(
		event.ProposalStateChangedEventType,
		event.NewEvent(
			event.ProposalStateChangedEventType,
			event.ProposalStateChangedEvent{
				ProposalId: id,
				OldState:   oldState.String(),
				NewState:   newState.String(),
			},
		),
	)
}

// ProposalParams describes a new proposal. Targets, Values, and Payloads
// are parallel slices forming the proposal's action list.
type ProposalParams struct {
	Proposer    string
	Description string
	Targets     []string
	Values      []uint64
	Payloads    [][]byte
	// VotingDelay is the offset in seconds from creation to the opening of
	// the voting window
	VotingDelay uint64
	// VotingPeriod is the length of the voting window in seconds
	VotingPeriod uint64
}

// dedupHash produces the content hash used to detect duplicate proposals.
// Two proposals with the same actions and description collide regardless of
// proposer or timing.
func dedupHash(params ProposalParams) []byte {
	h := sha256.New()
	var buf [8]byte
	for i, target := range params.Targets {
		binary.BigEndian.PutUint64(buf[:], uint64(len(target)))
		h.Write(buf[:])
		h.Write([]byte(target))
		binary.BigEndian.PutUint64(buf[:], params.Values[i])
		h.Write(buf[:])
		payloadHash := database.HashPayload(params.Payloads[i])
		h.Write(payloadHash)
	}
	h.Write([]byte(params.Description))
	return h.Sum(nil)
}

// Propose creates a new proposal and returns its ID. The engine's current
// consensus parameters are frozen into the proposal; later configuration
// changes never affect proposals already created.
func (e *Engine) Propose(params ProposalParams) (uint, error) {
	if params.Proposer == "" {
		return 0, fmt.Errorf("%w: missing proposer", ErrInvalidProposal)
	}
	if params.Description == "" {
		return 0, fmt.Errorf("%w: missing description", ErrInvalidProposal)
	}
	if len(params.Targets) == 0 {
		return 0, fmt.Errorf("%w: no actions", ErrInvalidProposal)
	}
	if len(params.Values) != len(params.Targets) ||
		len(params.Payloads) != len(params.Targets) {
		return 0, fmt.Errorf(
			"%w: mismatched action lengths: %d targets, %d values, %d payloads",
			ErrInvalidProposal,
			len(params.Targets),
			len(params.Values),
			len(params.Payloads),
		)
	}
	for i, target := range params.Targets {
		if target == "" {
			return 0, fmt.Errorf(
				"%w: empty target at action %d",
				ErrInvalidProposal,
				i,
			)
		}
	}
	// Serialize proposal creation so concurrent duplicates cannot both pass
	// the dedup check
	e.proposeMu.Lock()
	defer e.proposeMu.Unlock()

	now := e.now()
	hash := dedupHash(params)
	existing, err := e.config.Database.GetProposalsByDedupHash(hash, nil)
	if err != nil {
		return 0, err
	}
	for _, prior := range existing {
		switch e.status(prior, now) {
		case StatePending, StateActive, StateSucceeded, StateQueued:
			return 0, fmt.Errorf(
				"%w: matches proposal %d",
				ErrDuplicateProposal,
				prior.ID,
			)
		}
	}
	// Payload bytes are content-addressed, so writing them outside the
	// metadata transaction is safe even if the transaction rolls back
	payloadHashes := make([][]byte, len(params.Payloads))
	for i, payload := range params.Payloads {
		payloadHash, err := e.config.Database.SetPayload(payload)
		if err != nil {
			return 0, fmt.Errorf("failed to store payload %d: %w", i, err)
		}
		payloadHashes[i] = payloadHash
	}
	proposal := &models.Proposal{
		DedupHash:        hash,
		Proposer:         params.Proposer,
		Description:      params.Description,
		VotingStart:      now + params.VotingDelay,
		VotingEnd:        now + params.VotingDelay + params.VotingPeriod,
		Quorum:           e.config.Params.Quorum,
		ThresholdPercent: e.config.Params.ThresholdPercent,
		ExecutionDelay:   e.config.Params.ExecutionDelay,
		Weighting:        uint8(e.config.Params.Weighting),
		CreatedAt:        now,
	}
	txn := e.config.Database.Transaction()
	defer txn.Rollback() //nolint:errcheck
	if err := e.config.Database.SetProposal(proposal, txn); err != nil {
		return 0, err
	}
	actions := make([]models.ProposalAction, len(params.Targets))
	for i := range params.Targets {
		actions[i] = models.ProposalAction{
			ProposalID:  proposal.ID,
			ActionIndex: uint32(i), // #nosec G115
			Target:      params.Targets[i],
			Value:       params.Values[i],
			PayloadHash: payloadHashes[i],
		}
	}
	if err := e.config.Database.SetProposalActions(actions, txn); err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit proposal: %w", err)
	}
	e.logger.Info(
		"proposal created",
		"component", "governance",
		"proposal_id", proposal.ID,
		"proposer", params.Proposer,
		"actions", len(actions),
		"voting_start", proposal.VotingStart,
		"voting_end", proposal.VotingEnd,
	)
	e.metrics.proposalsCreated.Inc()
	if e.config.EventBus != nil {
		e.config.EventBus.Publish(
			event.ProposalCreatedEventType,
			event.NewEvent(
				event.ProposalCreatedEventType,
				event.ProposalCreatedEvent{
					ProposalId:  proposal.ID,
					Proposer:    params.Proposer,
					VotingStart: proposal.VotingStart,
					VotingEnd:   proposal.VotingEnd,
					ActionCount: len(actions),
				},
			),
		)
	}
	return proposal.ID, nil
}

// VoteChoice is a voter's position on a proposal
type VoteChoice uint8

const (
	ChoiceAgainst VoteChoice = models.VoteAgainst
	ChoiceFor     VoteChoice = models.VoteFor
	ChoiceAbstain VoteChoice = models.VoteAbstain
)

func (c VoteChoice) String() string {
	switch c {
	case ChoiceAgainst:
		return "against"
	case ChoiceFor:
		return "for"
	case ChoiceAbstain:
		return "abstain"
	default:
		return "unknown"
	}
}

// Vote casts a vote on an active proposal and returns the weight applied
// to the tally. Voting power is read at the proposal's voting-start
// snapshot, so delegation changes after the window opened have no effect.
func (e *Engine) Vote(
	proposalID uint,
	voter string,
	choice VoteChoice,
) (uint64, error) {
	if voter == "" {
		return 0, errors.New("missing voter")
	}
	if choice > ChoiceAbstain {
		return 0, fmt.Errorf("invalid vote choice: %d", choice)
	}
	lock := e.proposalLock(proposalID)
	lock.Lock()
	defer lock.Unlock()

	now := e.now()
	txn := e.config.Database.Transaction()
	defer txn.Rollback() //nolint:errcheck
	proposal, err := e.config.Database.GetProposal(proposalID, txn)
	if err != nil {
		return 0, err
	}
	switch e.status(proposal, now) {
	case StateActive:
		// fall through to voting
	case StatePending:
		return 0, ErrVotingNotStarted
	default:
		return 0, ErrVotingClosed
	}
	_, err = e.config.Database.GetVoteReceipt(proposalID, voter, txn)
	if err == nil {
		return 0, ErrAlreadyVoted
	}
	if !errors.Is(err, models.ErrVoteReceiptNotFound) {
		return 0, err
	}
	rawPower, err := e.config.Power.PowerAt(voter, proposal.VotingStart)
	if err != nil {
		return 0, fmt.Errorf("failed to get voting power: %w", err)
	}
	if rawPower == 0 {
		return 0, ErrNoVotingPower
	}
	var reputation uint64
	scheme := VoteWeighting(proposal.Weighting)
	if scheme == WeightingReputation {
		if e.config.Reputation == nil {
			return 0, errors.New("no reputation source configured")
		}
		reputation, err = e.config.Reputation.GetReputation(
			voter,
			proposal.VotingStart,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to get reputation: %w", err)
		}
	}
	weight, err := applyWeighting(scheme, rawPower, reputation)
	if err != nil {
		return 0, err
	}
	receipt := &models.VoteReceipt{
		ProposalID: proposalID,
		Voter:      voter,
		Choice:     uint8(choice),
		Weight:     weight,
		CastAt:     now,
	}
	if err := e.config.Database.AddVoteReceipt(receipt, txn); err != nil {
		return 0, err
	}
	switch choice {
	case ChoiceFor:
		proposal.ForVotes += weight
	case ChoiceAgainst:
		proposal.AgainstVotes += weight
	case ChoiceAbstain:
		proposal.AbstainVotes += weight
	}
	if err := e.config.Database.SetProposal(proposal, txn); err != nil {
		return 0, err
	}
	if err := txn.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit vote: %w", err)
	}
	e.logger.Debug(
		"vote cast",
		"component", "governance",
		"proposal_id", proposalID,
		"voter", voter,
		"choice", choice.String(),
		"weight", weight,
	)
	e.metrics.votesCast.WithLabelValues(choice.String()).Inc()
	if e.config.EventBus != nil {
		e.config.EventBus.Publish(
			event.VoteCastEventType,
			event.NewEvent(
				event.VoteCastEventType,
				event.VoteCastEvent{
					ProposalId: proposalID,
					Voter:      voter,
					Choice:     uint8(choice),
					Weight:     weight,
				},
			),
		)
	}
	return weight, nil
}

// Queue moves a succeeded proposal into the execution timelock
func (e *Engine) Queue(proposalID uint, caller string) error {
	if !e.canAdvance(caller) {
		return ErrNotAuthorized
	}
	lock := e.proposalLock(proposalID)
	lock.Lock()
	defer lock.Unlock()

	now := e.now()
	txn := e.config.Database.Transaction()
	defer txn.Rollback() //nolint:errcheck
	proposal, err := e.config.Database.GetProposal(proposalID, txn)
	if err != nil {
		return err
	}
	if current := e.status(proposal, now); current != StateSucceeded {
		return fmt.Errorf(
			"%w: cannot queue proposal in state %s",
			ErrIllegalTransition,
			current,
		)
	}
	executeAfter := now + proposal.ExecutionDelay
	proposal.QueuedAt = &now
	proposal.ExecuteAfter = &executeAfter
	if err := e.config.Database.SetProposal(proposal, txn); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit queue: %w", err)
	}
	e.logger.Info(
		"proposal queued",
		"component", "governance",
		"proposal_id", proposalID,
		"execute_after", executeAfter,
	)
	e.metrics.proposalsQueued.Inc()
	if e.config.EventBus != nil {
		e.config.EventBus.Publish(
			event.ProposalQueuedEventType,
			event.NewEvent(
				event.ProposalQueuedEventType,
				event.ProposalQueuedEvent{
					ProposalId:   proposalID,
					QueuedAt:     now,
					ExecuteAfter: executeAfter,
				},
			),
		)
	}
	e.publishStateChange(proposalID, StateSucceeded, StateQueued)
	return nil
}

// Execute runs a queued proposal's actions after its timelock has elapsed.
// Actions run in order; the first failure aborts without marking the
// proposal executed, leaving it queued for retry.
func (e *Engine) Execute(
	ctx context.Context,
	proposalID uint,
	caller string,
) error {
	if !e.canAdvance(caller) {
		return ErrNotAuthorized
	}
	lock := e.proposalLock(proposalID)
	lock.Lock()
	defer lock.Unlock()

	now := e.now()
	proposal, err := e.config.Database.GetProposal(proposalID, nil)
	if err != nil {
		return err
	}
	switch current := e.status(proposal, now); current {
	case StateQueued:
		// fall through to execution
	case StateExecuted:
		return ErrAlreadyExecuted
	default:
		return fmt.Errorf(
			"%w: cannot execute proposal in state %s",
			ErrIllegalTransition,
			current,
		)
	}
	if proposal.ExecuteAfter == nil || now < *proposal.ExecuteAfter {
		return ErrTimelockNotElapsed
	}
	actions, err := e.config.Database.GetProposalActions(proposalID, nil)
	if err != nil {
		return err
	}
	for _, action := range actions {
		payload, err := e.config.Database.GetPayload(action.PayloadHash)
		if err != nil {
			return fmt.Errorf(
				"failed to load payload for action %d: %w",
				action.ActionIndex,
				err,
			)
		}
		returnData, err := e.config.Gateway.Invoke(ctx, Action{
			Target:  action.Target,
			Value:   action.Value,
			Payload: payload,
		})
		if err != nil {
			e.logger.Warn(
				"proposal execution failed",
				"component", "governance",
				"proposal_id", proposalID,
				"action_index", action.ActionIndex,
				"target", action.Target,
				"error", err,
			)
			e.metrics.executionFailures.Inc()
			return &TargetCallError{
				Index:      int(action.ActionIndex),
				ReturnData: returnData,
				Err:        err,
			}
		}
	}
	proposal.Executed = true
	if err := e.config.Database.SetProposal(proposal, nil); err != nil {
		return err
	}
	e.logger.Info(
		"proposal executed",
		"component", "governance",
		"proposal_id", proposalID,
		"executor", caller,
		"actions", len(actions),
	)
	e.metrics.proposalsExecuted.Inc()
	if e.config.EventBus != nil {
		e.config.EventBus.Publish(
			event.ProposalExecutedEventType,
			event.NewEvent(
				event.ProposalExecutedEventType,
				event.ProposalExecutedEvent{
					ProposalId: proposalID,
					Executor:   caller,
				},
			),
		)
	}
	e.publishStateChange(proposalID, StateQueued, StateExecuted)
	return nil
}

// Cancel withdraws a proposal before it has succeeded. Only the proposer
// or a configured authority may cancel, and only while the proposal is
// Pending or Active.
func (e *Engine) Cancel(proposalID uint, caller string) error {
	lock := e.proposalLock(proposalID)
	lock.Lock()
	defer lock.Unlock()

	now := e.now()
	txn := e.config.Database.Transaction()
	defer txn.Rollback() //nolint:errcheck
	proposal, err := e.config.Database.GetProposal(proposalID, txn)
	if err != nil {
		return err
	}
	if !e.canCancel(proposal, caller) {
		return ErrNotAuthorized
	}
	current := e.status(proposal, now)
	if current != StatePending && current != StateActive {
		return fmt.Errorf(
			"%w: cannot cancel proposal in state %s",
			ErrIllegalTransition,
			current,
		)
	}
	proposal.Cancelled = true
	if err := e.config.Database.SetProposal(proposal, txn); err != nil {
		return err
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancel: %w", err)
	}
	e.logger.Info(
		"proposal cancelled",
		"component", "governance",
		"proposal_id", proposalID,
		"canceller", caller,
	)
	e.metrics.proposalsCancelled.Inc()
	if e.config.EventBus != nil {
		e.config.EventBus.Publish(
			event.ProposalCancelledEventType,
			event.NewEvent(
				event.ProposalCancelledEventType,
				event.ProposalCancelledEvent{
					ProposalId: proposalID,
					Canceller:  caller,
				},
			),
		)
	}
	e.publishStateChange(proposalID, current, StateCancelled)
	return nil
}

func (e *Engine) status(p *models.Proposal, now uint64) State {
	return statusOf(p, e.config.Params.CountAbstainInRatio, now)
}

// State returns the current lifecycle state of a proposal
func (e *Engine) State(proposalID uint) (State, error) {
	proposal, err := e.config.Database.GetProposal(proposalID, nil)
	if err != nil {
		return 0, err
	}
	return e.status(proposal, e.now()), nil
}

// Proposal returns a proposal by ID
func (e *Engine) Proposal(proposalID uint) (*models.Proposal, error) {
	return e.config.Database.GetProposal(proposalID, nil)
}

// Actions returns a proposal's actions with payloads resolved from the
// blob store
func (e *Engine) Actions(proposalID uint) ([]Action, error) {
	stored, err := e.config.Database.GetProposalActions(proposalID, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]Action, len(stored))
	for i, action := range stored {
		payload, err := e.config.Database.GetPayload(action.PayloadHash)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to load payload for action %d: %w",
				action.ActionIndex,
				err,
			)
		}
		ret[i] = Action{
			Target:  action.Target,
			Value:   action.Value,
			Payload: payload,
		}
	}
	return ret, nil
}

// Receipt returns the vote receipt for a (proposal, voter) pair
func (e *Engine) Receipt(
	proposalID uint,
	voter string,
) (*models.VoteReceipt, error) {
	return e.config.Database.GetVoteReceipt(proposalID, voter, nil)
}

// Receipts returns all vote receipts for a proposal
func (e *Engine) Receipts(proposalID uint) ([]*models.VoteReceipt, error) {
	return e.config.Database.GetVoteReceipts(proposalID, nil)
}

// ProposalsInState returns all proposals currently in any of the given
// states
func (e *Engine) ProposalsInState(states ...State) ([]*models.Proposal, error) {
	proposals, err := e.config.Database.GetProposals(nil)
	if err != nil {
		return nil, err
	}
	now := e.now()
	var ret []*models.Proposal
	for _, proposal := range proposals {
		if slices.Contains(states, e.status(proposal, now)) {
			ret = append(ret, proposal)
		}
	}
	return ret, nil
}

// ActiveProposals returns all proposals currently open for voting
func (e *Engine) ActiveProposals() ([]*models.Proposal, error) {
	return e.ProposalsInState(StateActive)
}
