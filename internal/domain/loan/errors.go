package loan

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 借阅领域错误定义
var (
	// ErrLoanNotFound 借阅记录不存在
	ErrLoanNotFound = apperrors.New(apperrors.ErrCodeLoanNotFound, "借阅记录不存在")

	// ErrLoanAlreadyClosed 借阅记录已关闭(已归还/已结案)
	ErrLoanAlreadyClosed = apperrors.New(apperrors.ErrCodeLoanClosed, "借阅记录已关闭")

	// ErrLoanOverdue 借阅已逾期,须先归还并结清罚款
	ErrLoanOverdue = apperrors.New(apperrors.ErrCodeLoanOverdue, "借阅已逾期,请先归还")

	// ErrRenewalLimitExceeded 续借次数已达上限
	ErrRenewalLimitExceeded = apperrors.New(apperrors.ErrCodeRenewalLimit, "续借次数已达上限")

	// ErrReservationConflict 他人排队预约中,续借被阻止(先到先得)
	ErrReservationConflict = apperrors.New(apperrors.ErrCodeReservationQueued, "已有其他读者预约此书,无法续借")

	// ErrInvalidStatusTransition 非法的状态转换
	ErrInvalidStatusTransition = apperrors.New(apperrors.ErrCodeInvalidTransition, "借阅状态不允许此操作")

	// ErrInvalidFineAmount 罚款金额不合法
	ErrInvalidFineAmount = apperrors.New(apperrors.ErrCodeInvalidParams, "罚款金额必须大于0")
)
