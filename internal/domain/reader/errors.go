package reader

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 读者领域错误定义
var (
	// ErrReaderNotFound 读者不存在
	ErrReaderNotFound = apperrors.New(apperrors.ErrCodeReaderNotFound, "读者不存在")

	// ErrCardNumberDuplicate 借书证号已存在
	ErrCardNumberDuplicate = apperrors.New(apperrors.ErrCodeConflict, "借书证号已存在")

	// ErrReaderNotActive 读者状态不允许借阅/预约
	ErrReaderNotActive = apperrors.New(apperrors.ErrCodeReaderNotActive, "读者状态异常(暂停或证件过期)")

	// ErrBorrowLimitReached 已达借阅上限
	ErrBorrowLimitReached = apperrors.New(apperrors.ErrCodeBorrowLimit, "已达最大可借数量")
)
