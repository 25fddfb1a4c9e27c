package errors

import (
	"errors"
	"fmt"
)

// AppError 自定义应用错误
// 设计说明：
// 1. Code用于调用方判断错误类型（借阅引擎的错误分类见错误码表）
// 2. Message是操作员友好的提示信息
// 3. Err是内部错误，仅记录到日志，不返回给调用方（防止泄露存储层细节）
type AppError struct {
	Code    int    `json:"code"`    // 业务错误码
	Message string `json:"message"` // 用户友好的错误提示
	Err     error  `json:"-"`       // 内部错误（不序列化）
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap 支持errors.Is和errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// New 创建新的AppError
func New(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap 包装系统错误（如数据库错误、MQ错误）
// 用途：将存储层错误转换为StorageError，隐藏实现细节
// 约定：被Wrap的操作视为未生效（整个事务已回滚，无部分状态）
func Wrap(err error, message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrapf 格式化包装错误
func Wrapf(err error, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// =========================================
// 错误码定义
// =========================================
// 规范：
// - 40000-40099: 可用性冲突（图书不可借、记录已关闭、预约已存在）
// - 40100-40199: 读者资格（状态非active、超出借阅上限）
// - 40400-40499: 资源不存在
// - 40900-40999: 策略上限与参数错误（续借上限、预约总量上限）
// - 5xxxx: 存储层错误（数据库、Redis、MQ），操作整体未生效

const (
	// 系统级错误码（50000-50099）
	ErrCodeInternal      = 50000 // 内部错误
	ErrCodeDatabaseError = 50001 // 数据库错误
	ErrCodeRedisError    = 50002 // Redis错误
	ErrCodeMQError       = 50003 // 消息队列错误

	// 可用性冲突（40000-40099）
	ErrCodeConflict          = 40000 // 冲突(通用)
	ErrCodeBookUnavailable   = 40001 // 图书不可借
	ErrCodeLoanClosed        = 40002 // 借阅记录已关闭
	ErrCodeLoanOverdue       = 40003 // 借阅已逾期
	ErrCodeReservationExists = 40004 // 预约已存在
	ErrCodeBookAvailable     = 40005 // 图书在架（应直接借阅）
	ErrCodeInvalidTransition = 40006 // 非法状态转换
	ErrCodeReservationClosed = 40007 // 预约已结束
	ErrCodeReservationNotOwn = 40008 // 非本人预约

	// 读者资格（40100-40199）
	ErrCodeIneligible      = 40100 // 读者资格不符(通用)
	ErrCodeReaderNotActive = 40101 // 读者状态异常
	ErrCodeBorrowLimit     = 40102 // 超出借阅上限

	// 资源不存在（40400-40499）
	ErrCodeNotFound            = 40400 // 资源不存在(通用)
	ErrCodeReaderNotFound      = 40401 // 读者不存在
	ErrCodeBookNotFound        = 40402 // 图书不存在
	ErrCodeLoanNotFound        = 40403 // 借阅记录不存在
	ErrCodeReservationNotFound = 40404 // 预约不存在

	// 策略上限与参数（40900-40999）
	ErrCodeInvalidParams      = 40900 // 参数错误
	ErrCodeRenewalLimit       = 40901 // 续借次数已达上限
	ErrCodeReservationCeiling = 40902 // 借阅+预约总量已达上限
	ErrCodeReservationQueued  = 40903 // 他人排队预约中（续借被阻止）
)

// =========================================
// 预定义错误（避免每次都New）
// =========================================

var (
	// 系统错误
	ErrInternal      = New(ErrCodeInternal, "系统内部错误")
	ErrDatabaseError = New(ErrCodeDatabaseError, "数据库错误")
	ErrRedisError    = New(ErrCodeRedisError, "缓存服务错误")
	ErrMQError       = New(ErrCodeMQError, "消息队列错误")

	// 资源不存在
	ErrReaderNotFound      = New(ErrCodeReaderNotFound, "读者不存在")
	ErrBookNotFound        = New(ErrCodeBookNotFound, "图书不存在")
	ErrLoanNotFound        = New(ErrCodeLoanNotFound, "借阅记录不存在")
	ErrReservationNotFound = New(ErrCodeReservationNotFound, "预约不存在")

	// 参数错误
	ErrInvalidParams = New(ErrCodeInvalidParams, "参数错误")
)

// =========================================
// 辅助函数
// =========================================

// IsAppError 判断是否为AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError 提取AppError（如果不是AppError则包装成Internal错误）
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, "系统内部错误")
}

// CodeOf 提取错误码（非AppError返回ErrCodeInternal）
// 用途：清扫任务按错误码分类统计跳过的记录
func CodeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
