package redemption

import "time"

// Recorder 兌換流程的指標輸出（由 infrastructure/metrics 實作）
type Recorder interface {
	ObserveRedemption(outcome string, duration time.Duration)
	CountAllocation(distribution, rewardType string)
	CountRetry()
}

// OutcomeSuccess 成功兌換的 outcome 標籤；失敗使用錯誤代碼
const OutcomeSuccess = "success"

type nopRecorder struct{}

func (nopRecorder) ObserveRedemption(string, time.Duration) {}
func (nopRecorder) CountAllocation(string, string)          {}
func (nopRecorder) CountRetry()                             {}
