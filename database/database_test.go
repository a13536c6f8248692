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

package database_test

import (
	"testing"

	"github.com/blinklabs-io/agora/database"
	"github.com/blinklabs-io/agora/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDatabase(t *testing.T) *database.Database {
	t.Helper()
	db, err := database.New(&database.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Close() //nolint:errcheck
	})
	return db
}

func TestProposalRoundTrip(t *testing.T) {
	db := setupTestDatabase(t)

	// Absent proposal
	_, err := db.GetProposal(12345, nil)
	require.ErrorIs(t, err, models.ErrProposalNotFound)

	proposal := &models.Proposal{
		DedupHash:        []byte("dedup-hash-000000000000000000001"),
		Proposer:         "alice",
		Description:      "raise the quorum",
		VotingStart:      1000,
		VotingEnd:        2000,
		Quorum:           500,
		ThresholdPercent: 50,
		ExecutionDelay:   100,
		CreatedAt:        900,
	}
	require.NoError(t, db.SetProposal(proposal, nil))
	require.NotZero(t, proposal.ID)

	got, err := db.GetProposal(proposal.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Proposer)
	assert.Equal(t, uint64(1000), got.VotingStart)
	assert.Equal(t, uint64(2000), got.VotingEnd)
	assert.False(t, got.Executed)
	assert.False(t, got.Cancelled)

	// Dedup hash lookup
	matches, err := db.GetProposalsByDedupHash(proposal.DedupHash, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, proposal.ID, matches[0].ID)

	// Tally update persists
	got.ForVotes = 800
	require.NoError(t, db.SetProposal(got, nil))
	got2, err := db.GetProposal(proposal.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(800), got2.ForVotes)
}

func TestProposalActionsOrdered(t *testing.T) {
	db := setupTestDatabase(t)

	proposal := &models.Proposal{
		DedupHash:   []byte("dedup-hash-000000000000000000002"),
		Proposer:    "alice",
		Description: "two actions",
	}
	require.NoError(t, db.SetProposal(proposal, nil))

	actions := []models.ProposalAction{
		{
			ProposalID:  proposal.ID,
			ActionIndex: 1,
			Target:      "treasury",
			Value:       7,
			PayloadHash: database.HashPayload([]byte("second")),
		},
		{
			ProposalID:  proposal.ID,
			ActionIndex: 0,
			Target:      "registry",
			Value:       0,
			PayloadHash: database.HashPayload([]byte("first")),
		},
	}
	require.NoError(t, db.SetProposalActions(actions, nil))

	got, err := db.GetProposalActions(proposal.ID, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Execution order, not insertion order
	assert.Equal(t, "registry", got[0].Target)
	assert.Equal(t, "treasury", got[1].Target)
}

func TestVoteReceiptUnique(t *testing.T) {
	db := setupTestDatabase(t)

	receipt := &models.VoteReceipt{
		ProposalID: 1,
		Voter:      "bob",
		Choice:     models.VoteFor,
		Weight:     400,
		CastAt:     1500,
	}
	require.NoError(t, db.AddVoteReceipt(receipt, nil))

	// Second insert for the same (proposal, voter) must fail on the
	// unique index
	dup := &models.VoteReceipt{
		ProposalID: 1,
		Voter:      "bob",
		Choice:     models.VoteAgainst,
		Weight:     400,
		CastAt:     1600,
	}
	require.Error(t, db.AddVoteReceipt(dup, nil))

	// Original receipt unchanged
	got, err := db.GetVoteReceipt(1, "bob", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(models.VoteFor), got.Choice)
	assert.Equal(t, uint64(1500), got.CastAt)

	// Same voter on a different proposal is fine
	other := &models.VoteReceipt{
		ProposalID: 2,
		Voter:      "bob",
		Choice:     models.VoteAbstain,
		Weight:     400,
		CastAt:     1700,
	}
	require.NoError(t, db.AddVoteReceipt(other, nil))
}

func TestDelegationCheckpointAt(t *testing.T) {
	db := setupTestDatabase(t)

	// No activity yet
	checkpoint, err := db.GetDelegationCheckpointAt("carol", 5000, nil)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)

	for _, cp := range []models.DelegationCheckpoint{
		{Account: "carol", At: 1000, DelegatedIn: 100, DelegatedOut: 0},
		{Account: "carol", At: 2000, DelegatedIn: 250, DelegatedOut: 0},
		{Account: "carol", At: 3000, DelegatedIn: 250, DelegatedOut: 50},
	} {
		require.NoError(t, db.AddDelegationCheckpoint(&cp, nil))
	}

	// Point-in-time queries pick the latest checkpoint at or before the
	// requested time
	checkpoint, err = db.GetDelegationCheckpointAt("carol", 1999, nil)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint64(100), checkpoint.DelegatedIn)

	checkpoint, err = db.GetDelegationCheckpointAt("carol", 2000, nil)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint64(250), checkpoint.DelegatedIn)

	checkpoint, err = db.GetDelegationCheckpointAt("carol", 9999, nil)
	require.NoError(t, err)
	require.NotNil(t, checkpoint)
	assert.Equal(t, uint64(50), checkpoint.DelegatedOut)

	// Before any activity
	checkpoint, err = db.GetDelegationCheckpointAt("carol", 999, nil)
	require.NoError(t, err)
	assert.Nil(t, checkpoint)
}

func TestDelegationEdges(t *testing.T) {
	db := setupTestDatabase(t)

	_, err := db.GetDelegationEdge("alice", "bob", nil)
	require.ErrorIs(t, err, models.ErrDelegationEdgeNotFound)

	edge := &models.DelegationEdge{
		Delegator: "alice",
		Delegate:  "bob",
		Amount:    100,
		UpdatedAt: 1000,
	}
	require.NoError(t, db.SetDelegationEdge(edge, nil))

	got, err := db.GetDelegationEdge("alice", "bob", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), got.Amount)

	edges, err := db.GetDelegationEdgesTo("bob", nil)
	require.NoError(t, err)
	require.Len(t, edges, 1)

	require.NoError(t, db.DeleteDelegationEdge(got, nil))
	_, err = db.GetDelegationEdge("alice", "bob", nil)
	require.ErrorIs(t, err, models.ErrDelegationEdgeNotFound)
}

func TestPayloadRoundTrip(t *testing.T) {
	db := setupTestDatabase(t)

	payload := []byte("upgrade calldata")
	hash, err := db.SetPayload(payload)
	require.NoError(t, err)
	require.Len(t, hash, 32)

	got, err := db.GetPayload(hash)
	require.NoError(t, err)
	assert.Equal(t, payload, got)

	// Content addressing is deterministic
	assert.Equal(t, hash, database.HashPayload(payload))

	// Empty payloads round-trip too
	emptyHash, err := db.SetPayload([]byte{})
	require.NoError(t, err)
	got, err = db.GetPayload(emptyHash)
	require.NoError(t, err)
	assert.Empty(t, got)
}
