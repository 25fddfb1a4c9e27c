package book

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrISBNDuplicate ISBN已存在
	ErrISBNDuplicate = apperrors.New(apperrors.ErrCodeConflict, "ISBN号已存在")

	// ErrBookUnavailable 图书当前不可借(已借出/丢失/损毁/他人保留中)
	ErrBookUnavailable = apperrors.New(apperrors.ErrCodeBookUnavailable, "图书当前不可借")

	// ErrBookAvailable 图书在架,应直接借阅而非预约
	ErrBookAvailable = apperrors.New(apperrors.ErrCodeBookAvailable, "图书在架可借,请直接办理借阅")
)
