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
	"errors"
	"fmt"
)

// Validation errors
var (
	ErrInvalidProposal   = errors.New("invalid proposal")
	ErrDuplicateProposal = errors.New("duplicate proposal")
)

// Authorization errors
var (
	ErrNotAuthorized = errors.New("caller is not authorized")
)

// Temporal errors
var (
	ErrVotingNotOpen      = errors.New("voting is not open")
	ErrVotingNotStarted   = fmt.Errorf("%w: voting has not started", ErrVotingNotOpen)
	ErrVotingClosed       = fmt.Errorf("%w: voting period has closed", ErrVotingNotOpen)
	ErrTimelockNotElapsed = errors.New("execution timelock has not elapsed")
)

// State errors
var (
	ErrIllegalTransition = errors.New("illegal state transition")
	ErrAlreadyVoted      = errors.New("voter has already voted on this proposal")
	ErrAlreadyExecuted   = errors.New("proposal already executed")
	ErrNoVotingPower     = errors.New("no voting power at snapshot")
)

// ErrTargetCallFailed is the sentinel matched by errors.Is for any
// TargetCallError
var ErrTargetCallFailed = errors.New("target call failed")

// TargetCallError reports an execution failure, carrying the index of the
// failing action and any data it returned. The proposal remains Queued and
// execution may be retried.
type TargetCallError struct {
	Err        error
	ReturnData []byte
	Index      int
}

func (e *TargetCallError) Error() string {
	return fmt.Sprintf(
		"target call failed at action %d: %s",
		e.Index,
		e.Err,
	)
}

func (e *TargetCallError) Unwrap() []error {
	return []error{ErrTargetCallFailed, e.Err}
}

// Temporal returns true for errors that may resolve on their own with the
// passage of time. Callers can use this to distinguish "try again later"
// from failures that will never succeed.
func Temporal(err error) bool {
	return errors.Is(err, ErrVotingNotStarted) ||
		errors.Is(err, ErrTimelockNotElapsed)
}
