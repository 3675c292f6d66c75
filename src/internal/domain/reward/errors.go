package reward

import (
	"errors"
	"fmt"
)

// ===========================
// 錯誤代碼定義
// ===========================

// ErrorCode 錯誤代碼類型（對外穩定，HTTP 層直接回傳給客戶端）
type ErrorCode string

// 兌換流程錯誤代碼
const (
	ErrCodeCouponInvalid     ErrorCode = "COUPON_INVALID"
	ErrCodeCouponUsed        ErrorCode = "COUPON_USED"
	ErrCodeCouponExpired     ErrorCode = "COUPON_EXPIRED"
	ErrCodeCampaignInactive  ErrorCode = "CAMPAIGN_INACTIVE"
	ErrCodeNoCampaign        ErrorCode = "NO_CAMPAIGN"
	ErrCodeAllRewardsClaimed ErrorCode = "ALL_REWARDS_CLAIMED"
	ErrCodeTierLimitReached  ErrorCode = "TIER_LIMIT_REACHED"
	ErrCodeConflict          ErrorCode = "CONFLICT"
)

// 分配策略內部錯誤代碼
const (
	ErrCodeNoTierAvailable ErrorCode = "NO_TIER_AVAILABLE"
)

// 建構與驗證錯誤代碼
const (
	ErrCodeInvalidCampaignID   ErrorCode = "CAMPAIGN_ID_INVALID"
	ErrCodeInvalidTierID       ErrorCode = "TIER_ID_INVALID"
	ErrCodeInvalidCodeID       ErrorCode = "CODE_ID_INVALID"
	ErrCodeInvalidRedemptionID ErrorCode = "REDEMPTION_ID_INVALID"
	ErrCodeInvalidUserID       ErrorCode = "USER_ID_INVALID"

	ErrCodeInvalidCodeValue    ErrorCode = "CODE_VALUE_INVALID"
	ErrCodeInvalidCampaign     ErrorCode = "CAMPAIGN_INVALID"
	ErrCodeInvalidTier         ErrorCode = "TIER_INVALID"
	ErrCodeInvalidReward       ErrorCode = "REWARD_INVALID"
	ErrCodeInvalidDistribution ErrorCode = "DISTRIBUTION_INVALID"
	ErrCodeInvalidPagination   ErrorCode = "PAGINATION_INVALID"
	ErrCodeInvariantViolation  ErrorCode = "INVARIANT_VIOLATION"
)

// Repository 錯誤代碼
const (
	ErrCodeCodeNotFound      ErrorCode = "CODE_NOT_FOUND"
	ErrCodeCodeAlreadyUsed   ErrorCode = "CODE_ALREADY_USED"
	ErrCodeCodeAlreadyIssued ErrorCode = "CODE_ALREADY_ISSUED"
	ErrCodeCampaignNotFound  ErrorCode = "CAMPAIGN_NOT_FOUND"
	ErrCodeTierNotFound      ErrorCode = "TIER_NOT_FOUND"
	ErrCodeRepositoryFailure ErrorCode = "REPOSITORY_FAILURE"
)

// ===========================
// 錯誤分類
// ===========================

// ErrorKind 錯誤分類，決定重試策略與 HTTP 狀態碼
type ErrorKind int

const (
	// KindClientInput 客戶端輸入錯誤（兌換碼不存在）
	KindClientInput ErrorKind = iota + 1
	// KindTerminal 業務上的終止狀態，重試也不會成功（已使用、已過期、活動未開始、獎品已兌完）
	KindTerminal
	// KindContention 並發競爭，可以重試
	KindContention
	// KindValidation 建構或輸入驗證失敗
	KindValidation
	// KindNotFound 查詢目標不存在
	KindNotFound
	// KindInfrastructure 基礎設施錯誤（資料庫不可用、資料損壞）
	KindInfrastructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindClientInput:
		return "client_input"
	case KindTerminal:
		return "terminal"
	case KindContention:
		return "contention"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInfrastructure:
		return "infrastructure"
	default:
		return "unknown"
	}
}

// ===========================
// DomainError 結構
// ===========================

// DomainError 領域錯誤
//
// Code 是穩定的機器可讀代碼；Kind 決定是否可以重試；
// Context 只用於日誌與除錯，不回傳給客戶端。
type DomainError struct {
	Code    ErrorCode
	Kind    ErrorKind
	Message string
	Context map[string]interface{}
}

// Error 實現 error 接口
func (e *DomainError) Error() string {
	if len(e.Context) == 0 {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s (context: %+v)", e.Code, e.Message, e.Context)
}

// WithContext 添加上下文信息（返回新的錯誤實例，原錯誤不變）
func (e *DomainError) WithContext(keyValues ...interface{}) error {
	if len(keyValues)%2 != 0 {
		panic("WithContext requires even number of arguments (key-value pairs)")
	}

	ctx := make(map[string]interface{}, len(e.Context)+len(keyValues)/2)
	for k, v := range e.Context {
		ctx[k] = v
	}
	for i := 0; i < len(keyValues); i += 2 {
		key, ok := keyValues[i].(string)
		if !ok {
			panic(fmt.Sprintf("context key must be string, got %T", keyValues[i]))
		}
		ctx[key] = keyValues[i+1]
	}

	return &DomainError{
		Code:    e.Code,
		Kind:    e.Kind,
		Message: e.Message,
		Context: ctx,
	}
}

// Is 實現 errors.Is 接口（以錯誤代碼判斷）
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Retryable 是否可以在新的事務中重試
func (e *DomainError) Retryable() bool {
	return e.Kind == KindContention
}

// AsDomainError 從錯誤鏈取出 DomainError
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// IsRetryable 錯誤鏈中是否包含可重試的 DomainError
func IsRetryable(err error) bool {
	domainErr, ok := AsDomainError(err)
	return ok && domainErr.Retryable()
}

// ===========================
// 預定義錯誤
// ===========================

// 兌換流程錯誤
var (
	ErrCouponInvalid = &DomainError{
		Code:    ErrCodeCouponInvalid,
		Kind:    KindClientInput,
		Message: "兌換碼無效",
	}

	ErrCouponUsed = &DomainError{
		Code:    ErrCodeCouponUsed,
		Kind:    KindTerminal,
		Message: "兌換碼已被使用",
	}

	ErrCouponExpired = &DomainError{
		Code:    ErrCodeCouponExpired,
		Kind:    KindTerminal,
		Message: "兌換碼已過期",
	}

	ErrCampaignInactive = &DomainError{
		Code:    ErrCodeCampaignInactive,
		Kind:    KindTerminal,
		Message: "活動未開始或已結束",
	}

	ErrNoCampaign = &DomainError{
		Code:    ErrCodeNoCampaign,
		Kind:    KindTerminal,
		Message: "兌換碼未綁定任何活動",
	}

	ErrAllRewardsClaimed = &DomainError{
		Code:    ErrCodeAllRewardsClaimed,
		Kind:    KindTerminal,
		Message: "獎品已全部兌換完畢",
	}

	ErrTierLimitReached = &DomainError{
		Code:    ErrCodeTierLimitReached,
		Kind:    KindContention,
		Message: "獎項名額已滿，請再試一次",
	}

	ErrConflict = &DomainError{
		Code:    ErrCodeConflict,
		Kind:    KindContention,
		Message: "系統忙碌中，請再試一次",
	}
)

// ErrNoTierAvailable 分配策略找不到任何可用獎項（由協調器轉換為 ErrAllRewardsClaimed）
var ErrNoTierAvailable = &DomainError{
	Code:    ErrCodeNoTierAvailable,
	Kind:    KindTerminal,
	Message: "沒有可分配的獎項",
}

// ID 解析錯誤
var (
	ErrInvalidCampaignID = &DomainError{
		Code:    ErrCodeInvalidCampaignID,
		Kind:    KindValidation,
		Message: "無效的活動 ID",
	}

	ErrInvalidTierID = &DomainError{
		Code:    ErrCodeInvalidTierID,
		Kind:    KindValidation,
		Message: "無效的獎項 ID",
	}

	ErrInvalidCodeID = &DomainError{
		Code:    ErrCodeInvalidCodeID,
		Kind:    KindValidation,
		Message: "無效的兌換碼 ID",
	}

	ErrInvalidRedemptionID = &DomainError{
		Code:    ErrCodeInvalidRedemptionID,
		Kind:    KindValidation,
		Message: "無效的兌換紀錄 ID",
	}

	ErrInvalidUserID = &DomainError{
		Code:    ErrCodeInvalidUserID,
		Kind:    KindValidation,
		Message: "無效的用戶 ID",
	}
)

// 建構驗證錯誤
var (
	ErrInvalidCodeValue = &DomainError{
		Code:    ErrCodeInvalidCodeValue,
		Kind:    KindValidation,
		Message: "兌換碼格式錯誤",
	}

	ErrInvalidCampaign = &DomainError{
		Code:    ErrCodeInvalidCampaign,
		Kind:    KindValidation,
		Message: "活動設定無效",
	}

	ErrInvalidTier = &DomainError{
		Code:    ErrCodeInvalidTier,
		Kind:    KindValidation,
		Message: "獎項設定無效",
	}

	ErrInvalidReward = &DomainError{
		Code:    ErrCodeInvalidReward,
		Kind:    KindValidation,
		Message: "獎品設定無效",
	}

	ErrInvalidDistribution = &DomainError{
		Code:    ErrCodeInvalidDistribution,
		Kind:    KindValidation,
		Message: "不支援的分配方式",
	}

	ErrInvalidPagination = &DomainError{
		Code:    ErrCodeInvalidPagination,
		Kind:    KindValidation,
		Message: "分頁參數無效",
	}

	// ErrInvariantViolation 從資料庫重建時發現資料違反不變性
	ErrInvariantViolation = &DomainError{
		Code:    ErrCodeInvariantViolation,
		Kind:    KindInfrastructure,
		Message: "資料違反業務不變性",
	}
)

// Repository 錯誤
var (
	ErrUnknownCode = &DomainError{
		Code:    ErrCodeCodeNotFound,
		Kind:    KindNotFound,
		Message: "兌換碼不存在",
	}

	// ErrStaleCodeStatus 條件更新沒有影響任何列（兌換碼已不是 UNUSED）
	ErrStaleCodeStatus = &DomainError{
		Code:    ErrCodeCodeAlreadyUsed,
		Kind:    KindTerminal,
		Message: "兌換碼狀態已改變",
	}

	ErrDuplicateCode = &DomainError{
		Code:    ErrCodeCodeAlreadyIssued,
		Kind:    KindValidation,
		Message: "兌換碼已存在",
	}

	ErrCampaignNotFound = &DomainError{
		Code:    ErrCodeCampaignNotFound,
		Kind:    KindNotFound,
		Message: "活動不存在",
	}

	ErrTierNotFound = &DomainError{
		Code:    ErrCodeTierNotFound,
		Kind:    KindNotFound,
		Message: "獎項不存在",
	}

	ErrRepositoryFailure = &DomainError{
		Code:    ErrCodeRepositoryFailure,
		Kind:    KindInfrastructure,
		Message: "資料存取失敗",
	}
)
