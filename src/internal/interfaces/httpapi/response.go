package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jackyeh168/scan_rewards/src/internal/domain/reward"
	"go.uber.org/zap"
)

// envelope 統一回應格式：{success, data} 或 {success:false, error{code,message}}
type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	codeInternal     = "INTERNAL_ERROR"
	codeBadRequest   = "VALIDATION_ERROR"
	codeUnauthorized = "UNAUTHORIZED"
	codeForbidden    = "FORBIDDEN"
	codeRateLimited  = "RATE_LIMITED"
	codeNotFound     = "NOT_FOUND"
)

const (
	messageInternal   = "系統忙碌中，請稍後再試"
	messageBadBody    = "請求格式錯誤"
	messageNoUser     = "缺少用戶身分"
	messageForbidden  = "無權查看其他用戶的紀錄"
	messageNotAdmin   = "需要管理員權限"
	messageRateLimit  = "請求過於頻繁，請稍後再試"
	messageNoEndpoint = "找不到此路徑"
)

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: message}})
}

// writeError 依錯誤分類決定 HTTP 狀態碼；非領域錯誤一律 500 且不外洩細節
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	domainErr, ok := reward.AsDomainError(err)
	if !ok || domainErr.Kind == reward.KindInfrastructure {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeFailure(w, http.StatusInternalServerError, codeInternal, messageInternal)
		return
	}

	status := statusFor(domainErr.Kind)
	if domainErr.Kind == reward.KindContention {
		w.Header().Set("Retry-After", "1")
	}
	writeFailure(w, status, string(domainErr.Code), domainErr.Message)
}

func statusFor(kind reward.ErrorKind) int {
	switch kind {
	case reward.KindClientInput, reward.KindValidation, reward.KindTerminal:
		return http.StatusBadRequest
	case reward.KindContention:
		return http.StatusConflict
	case reward.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON 解析請求內容，拒絕未知欄位
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return errors.Join(errMalformedBody, err)
	}
	return nil
}

var errMalformedBody = errors.New("malformed request body")
