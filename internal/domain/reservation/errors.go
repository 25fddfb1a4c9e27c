package reservation

import (
	apperrors "github.com/xiebiao/library/pkg/errors"
)

// 预约领域错误定义
var (
	// ErrReservationNotFound 预约不存在
	ErrReservationNotFound = apperrors.New(apperrors.ErrCodeReservationNotFound, "预约不存在")

	// ErrReservationAlreadyExists 同一读者对同一图书已有排队中的预约
	ErrReservationAlreadyExists = apperrors.New(apperrors.ErrCodeReservationExists, "已预约此书,请勿重复预约")

	// ErrReservationCeiling 在借+预约总量已达策略上限
	ErrReservationCeiling = apperrors.New(apperrors.ErrCodeReservationCeiling, "借阅与预约总量已达上限")

	// ErrReservationClosed 预约已结束(非active/已领取),不可再操作
	ErrReservationClosed = apperrors.New(apperrors.ErrCodeReservationClosed, "预约已结束")

	// ErrReservationNotOwn 只能操作本人的预约
	ErrReservationNotOwn = apperrors.New(apperrors.ErrCodeReservationNotOwn, "只能操作本人的预约")
)
