// Copyright 2016 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package oracle

import "github.com/prometheus/client_golang/prometheus"

var (
	allocatedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "tso",
			Subsystem: "oracle",
			Name:      "timestamps_allocated",
			Help:      "Counter of allocated timestamps.",
		})

	ceilingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tso",
			Subsystem: "oracle",
			Name:      "persisted_ceiling",
			Help:      "Persisted upper bound of allocatable timestamps.",
		})
)

func init() {
	prometheus.MustRegister(allocatedCounter)
	prometheus.MustRegister(ceilingGauge)
}
