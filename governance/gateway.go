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
)

// Action is a single call carried by a proposal, dispatched through the
// execution gateway when the proposal executes.
type Action struct {
	Target  string
	Payload []byte
	Value   uint64
}

// ExecutionGateway dispatches proposal actions to their targets. An error
// return aborts execution of the remaining actions and leaves the proposal
// queued; any data returned alongside the error is surfaced in the
// resulting TargetCallError.
type ExecutionGateway interface {
	Invoke(ctx context.Context, action Action) ([]byte, error)
}

// NoopGateway accepts every action without doing anything. It's the
// default gateway, useful for deployments where execution is recorded but
// effects are applied out of band.
type NoopGateway struct{}

func (NoopGateway) Invoke(
	_ context.Context,
	_ Action,
) ([]byte, error) {
	return nil, nil
}
