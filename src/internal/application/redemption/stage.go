package redemption

import (
	"fmt"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
)

// ===========================
// 兌換流程狀態機
// ===========================

// Stage 單次兌換嘗試所在的階段
//
//	Validating → Locking → Allocating → Persisting → Committed
//	                 └──────(未綁定活動)──────┘
//	任何階段 → Aborted
type Stage string

const (
	StageValidating Stage = "validating"
	StageLocking    Stage = "locking"
	StageAllocating Stage = "allocating"
	StagePersisting Stage = "persisting"
	StageCommitted  Stage = "committed"
	StageAborted    Stage = "aborted"
)

var stageTransitions = map[Stage][]Stage{
	StageValidating: {StageLocking, StageAborted},
	StageLocking:    {StageAllocating, StagePersisting, StageAborted},
	StageAllocating: {StagePersisting, StageAborted},
	StagePersisting: {StageCommitted, StageAborted},
}

func (s Stage) canAdvanceTo(next Stage) bool {
	for _, allowed := range stageTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AbortError 兌換嘗試在某個階段中止
//
// Err 是實際原因（通常是 *reward.DomainError），errors.Is / errors.As 會穿透到它。
type AbortError struct {
	Stage Stage
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("redemption aborted at %s: %v", e.Stage, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

// redemptionRun 追蹤一次嘗試的階段
type redemptionRun struct {
	code    string
	user    reward.UserID
	attempt int
	stage   Stage
	failed  Stage // 中止前所在的階段
}

func newRedemptionRun(code string, user reward.UserID, attempt int) *redemptionRun {
	return &redemptionRun{code: code, user: user, attempt: attempt, stage: StageValidating}
}

// advance 非法轉換代表流程程式錯誤
func (r *redemptionRun) advance(next Stage) {
	if !r.stage.canAdvanceTo(next) {
		panic(fmt.Sprintf("redemption: illegal stage transition %s -> %s", r.stage, next))
	}
	r.stage = next
}

func (r *redemptionRun) abort(err error) error {
	if r.stage == StageAborted {
		return err
	}
	r.failed = r.stage
	r.advance(StageAborted)
	return &AbortError{Stage: r.failed, Err: err}
}
