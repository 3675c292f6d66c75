package shared

import "context"

// TransactionContext 事務上下文介面
//
// 這是一個標記介面，不暴露任何方法；具體實作（GORM）由 Infrastructure Layer 提供。
//
// Repository 約定：
//   - ctx != nil: 在調用者的事務中執行，鎖與寫入都屬於同一個工作單元
//   - ctx == nil: auto-commit，只適用於事務外的預檢查讀取
//
// 兌換流程的寫入（標記兌換碼、增加獎項計數、寫入兌換紀錄）一律必須傳入 non-nil ctx：
//
//	txManager.InTransaction(ctx, func(tx TransactionContext) error {
//	    code, err := codeRepo.FindByCodeForUpdate(tx, value) // 鎖定兌換碼
//	    ...
//	    return redemptionRepo.Save(tx, redemption)
//	})
type TransactionContext interface {
	// 標記介面
}

// TransactionManager 事務管理器介面
//
// InTransaction 在單一事務中執行 fn：fn 返回 nil 則提交，返回錯誤或 panic 則回滾。
// ctx 控制整個工作單元的期限；取得鎖逾時由實作轉換成可重試的衝突錯誤。
type TransactionManager interface {
	InTransaction(ctx context.Context, fn func(tx TransactionContext) error) error
}
