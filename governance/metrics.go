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
	"github.com/prometheus/client_golang/prometheus"
)

type engineMetrics struct {
	proposalsCreated   prometheus.Counter
	votesCast          *prometheus.CounterVec
	proposalsQueued    prometheus.Counter
	proposalsExecuted  prometheus.Counter
	proposalsCancelled prometheus.Counter
	executionFailures  prometheus.Counter
}

func (e *Engine) initMetrics(registry prometheus.Registerer) {
	e.metrics.proposalsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_proposals_created_total",
			Help: "total number of proposals created",
		},
	)
	e.metrics.votesCast = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agora_governance_votes_cast_total",
			Help: "total number of votes cast by choice",
		},
		[]string{"choice"},
	)
	e.metrics.proposalsQueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_proposals_queued_total",
			Help: "total number of proposals queued for execution",
		},
	)
	e.metrics.proposalsExecuted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_proposals_executed_total",
			Help: "total number of proposals executed",
		},
	)
	e.metrics.proposalsCancelled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_proposals_cancelled_total",
			Help: "total number of proposals cancelled",
		},
	)
	e.metrics.executionFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "agora_governance_execution_failures_total",
			Help: "total number of failed proposal executions",
		},
	)
	if registry != nil {
		registry.MustRegister(
			e.metrics.proposalsCreated,
			e.metrics.votesCast,
			e.metrics.proposalsQueued,
			e.metrics.proposalsExecuted,
			e.metrics.proposalsCancelled,
			e.metrics.executionFailures,
		)
	}
}
