// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// captureNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	captureNamespace = "capture"

	serializerSubsystem = "serializer"

	reasonLabelName = "reason"
	formatLabelName = "format"
)

// 截断原因。
const (
	TruncateReasonDepth   = "depth"
	TruncateReasonBreadth = "breadth"
	TruncateReasonString  = "string"
	TruncateReasonSize    = "size"
)

// 降级原因。
const (
	FallbackReasonHookPanic = "hook_panic"
	FallbackReasonReprPanic = "repr_panic"
	FallbackReasonWalkPanic = "walk_panic"
)

var (
	// buckets 为耗时直方图的桶划分，单位为毫秒。
	// [0.0625 0.125 0.25 0.5 1 2 4 8 16 32 64 128 256 512 1024]
	buckets = prometheus.ExponentialBuckets(0.0625, 2, 15)

	// sizeBuckets 为编码后数据大小的桶划分，单位为字节。
	sizeBuckets = prometheus.ExponentialBuckets(64, 4, 10)

	SerializeTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: captureNamespace,
			Subsystem: serializerSubsystem,
			Name:      "serialize_total",
			Help:      "number of top-level normalizations",
		})

	SerializeLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: captureNamespace,
			Subsystem: serializerSubsystem,
			Name:      "serialize_latency",
			Help:      "latency of one top-level normalization in milliseconds",
			Buckets:   buckets,
		})

	TruncationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: captureNamespace,
			Subsystem: serializerSubsystem,
			Name:      "truncations_total",
			Help:      "values truncated by a depth, breadth, string length or size bound",
		}, []string{reasonLabelName})

	CyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: captureNamespace,
			Subsystem: serializerSubsystem,
			Name:      "cycles_total",
			Help:      "reference cycles replaced by the cycle marker",
		})

	FallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: captureNamespace,
			Subsystem: serializerSubsystem,
			Name:      "fallbacks_total",
			Help:      "values that failed to normalize and degraded to a placeholder",
		}, []string{reasonLabelName})

	EncodedBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: captureNamespace,
			Subsystem: serializerSubsystem,
			Name:      "encoded_bytes",
			Help:      "size of encoded normalized payloads in bytes",
			Buckets:   sizeBuckets,
		}, []string{formatLabelName})

	registerOnce     sync.Once
	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，只有第一次调用生效。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(SerializeTotal)
		r.MustRegister(SerializeLatency)
		r.MustRegister(TruncationsTotal)
		r.MustRegister(CyclesTotal)
		r.MustRegister(FallbacksTotal)
		r.MustRegister(EncodedBytes)
		metricRegisterer = r
	})
}
