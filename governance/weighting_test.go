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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsqrt(t *testing.T) {
	testDefs := []struct {
		n        uint64
		expected uint64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{8, 2},
		{9, 3},
		{10, 3},
		{99, 9},
		{100, 10},
		{1_000_000_000_000, 1_000_000},
		{math.MaxUint64, 4294967295},
	}
	for _, testDef := range testDefs {
		result := isqrt(testDef.n)
		assert.Equal(t, testDef.expected, result, "isqrt(%d)", testDef.n)
		// Verify the defining property directly
		assert.LessOrEqual(t, result, testDef.n/max(result, 1))
	}
}

func TestApplyWeighting(t *testing.T) {
	weight, err := applyWeighting(WeightingLinear, 12345, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(12345), weight)

	weight, err = applyWeighting(WeightingQuadratic, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(10), weight)

	weight, err = applyWeighting(WeightingReputation, 100, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), weight)

	// Zero reputation leaves raw power unchanged
	weight, err = applyWeighting(WeightingReputation, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), weight)

	// Integer division floors
	weight, err = applyWeighting(WeightingReputation, 99, 50)
	require.NoError(t, err)
	assert.Equal(t, uint64(148), weight)

	_, err = applyWeighting(VoteWeighting(99), 100, 0)
	require.Error(t, err)
}
