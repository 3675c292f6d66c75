package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder 兌換引擎的 Prometheus 指標
type Recorder struct {
	redeemDuration *prometheus.HistogramVec
	redeemTotal    *prometheus.CounterVec
	allocations    *prometheus.CounterVec
	retries        prometheus.Counter
}

// NewRecorder 在 reg 上註冊所有指標（正式環境傳 prometheus.DefaultRegisterer）
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		redeemDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "reward_redeem_duration_seconds",
				Help: "Duration of code redemption requests in seconds",
				Buckets: []float64{
					0.001, // 1ms
					0.005, // 5ms
					0.01,  // 10ms
					0.025, // 25ms
					0.05,  // 50ms
					0.1,   // 100ms
					0.25,  // 250ms
					0.5,   // 500ms
					1.0,   // 1s
					2.5,   // 2.5s
					5.0,   // 5s
				},
			},
			[]string{"outcome"}, // success 或錯誤代碼
		),
		redeemTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_redeem_total",
				Help: "Code redemption attempts by outcome",
			},
			[]string{"outcome"},
		),
		allocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reward_tier_allocations_total",
				Help: "Committed tier allocations by distribution policy and reward type",
			},
			[]string{"distribution", "reward_type"},
		),
		retries: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "reward_redeem_contention_retries_total",
				Help: "Redemption flows re-run after a retryable contention error",
			},
		),
	}
}

// ObserveRedemption 記錄一次兌換請求的結果與耗時
func (r *Recorder) ObserveRedemption(outcome string, duration time.Duration) {
	r.redeemDuration.WithLabelValues(outcome).Observe(duration.Seconds())
	r.redeemTotal.WithLabelValues(outcome).Inc()
}

// CountAllocation 記錄一次已提交的獎項分配
func (r *Recorder) CountAllocation(distribution, rewardType string) {
	r.allocations.WithLabelValues(distribution, rewardType).Inc()
}

// CountRetry 記錄一次競爭重試
func (r *Recorder) CountRetry() {
	r.retries.Inc()
}
