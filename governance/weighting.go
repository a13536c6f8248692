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
	"fmt"
	"math"

	"github.com/blinklabs-io/agora/database/models"
)

// VoteWeighting selects how raw voting power is converted into vote weight.
// The scheme is frozen into each proposal at creation.
type VoteWeighting uint8

const (
	WeightingLinear     VoteWeighting = models.WeightingLinear
	WeightingQuadratic  VoteWeighting = models.WeightingQuadratic
	WeightingReputation VoteWeighting = models.WeightingReputation
)

func (w VoteWeighting) String() string {
	switch w {
	case WeightingLinear:
		return "linear"
	case WeightingQuadratic:
		return "quadratic"
	case WeightingReputation:
		return "reputation"
	default:
		return "unknown"
	}
}

// ReputationSource provides per-account reputation scores for the
// reputation weighting scheme. Scores are read as of the proposal's voting
// power snapshot.
type ReputationSource interface {
	GetReputation(account string, at uint64) (uint64, error)
}

// applyWeighting converts raw voting power into vote weight under the
// given scheme. Reputation scores act as a percentage bonus on top of raw
// power, floored by integer division.
func applyWeighting(
	scheme VoteWeighting,
	rawPower uint64,
	reputation uint64,
) (uint64, error) {
	switch scheme {
	case WeightingLinear:
		return rawPower, nil
	case WeightingQuadratic:
		return isqrt(rawPower), nil
	case WeightingReputation:
		return rawPower * (100 + reputation) / 100, nil
	default:
		return 0, fmt.Errorf("unknown weighting scheme: %d", scheme)
	}
}

// isqrt returns the integer square root of n, the largest x such that
// x*x <= n. The float seed is exact for most inputs; the correction loops
// handle rounding at the top of the uint64 range.
func isqrt(n uint64) uint64 {
	if n == 0 {
		return 0
	}
	x := uint64(math.Sqrt(float64(n)))
	for x > 0 && x > n/x {
		x--
	}
	for (x+1) <= n/(x+1) {
		x++
	}
	return x
}
