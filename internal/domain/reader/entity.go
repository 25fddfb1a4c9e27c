package reader

import (
	"time"
)

// Status 读者状态
type Status string

const (
	StatusActive    Status = "active"    // 正常
	StatusSuspended Status = "suspended" // 暂停(违规/欠费)
	StatusExpired   Status = "expired"   // 证件过期
)

// Reader 读者实体(聚合根)
// 设计说明:
// 1. CardNumber是借书证号,业务唯一标识(数据库层保证唯一性)
// 2. MaxBorrowCount是借阅上限(默认5),读者的"在借数量"是派生状态,
//    借阅时在事务内对borrows台账COUNT校验,不在读者表上冗余计数
type Reader struct {
	ID             uint
	CardNumber     string // 借书证号
	Name           string // 姓名
	Gender         string // 性别
	Phone          string // 联系电话
	Email          string // 邮箱
	Address        string // 地址
	Status         Status // 读者状态
	MaxBorrowCount int    // 最大可借数量
	RegisterDate   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DefaultMaxBorrowCount 默认借阅上限
const DefaultMaxBorrowCount = 5

// NewReader 创建新读者(工厂方法)
// 初始状态为active,借阅上限取默认值
func NewReader(cardNumber, name, gender, phone, email, address string) *Reader {
	now := time.Now()
	return &Reader{
		CardNumber:     cardNumber,
		Name:           name,
		Gender:         gender,
		Phone:          phone,
		Email:          email,
		Address:        address,
		Status:         StatusActive,
		MaxBorrowCount: DefaultMaxBorrowCount,
		RegisterDate:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// CanBorrow 读者资格检查
// 业务规则:仅active状态可借阅;suspended/expired读者须先恢复资格
func (r *Reader) CanBorrow() bool {
	return r.Status == StatusActive
}
