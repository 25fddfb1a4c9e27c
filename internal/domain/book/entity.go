package book

import (
	"time"
)

// Status 图书状态
// 设计说明:
// 1. 沿用馆藏系统的字符串枚举(available/borrowed/damaged/lost)
// 2. 图书状态是派生状态:必须与borrows台账的"在借记录"对账,
//    每个生命周期操作在同一事务内读台账校验,不单独信任此字段
type Status string

const (
	StatusAvailable Status = "available" // 在架可借
	StatusBorrowed  Status = "borrowed"  // 已借出
	StatusDamaged   Status = "damaged"   // 损毁
	StatusLost      Status = "lost"      // 丢失
)

// Lendable 图书当前状态是否允许外借
// 注意:available只是必要条件,是否有他人的保留(hold)由借阅引擎
// 在事务内结合预约队列判断
func (s Status) Lendable() bool {
	return s == StatusAvailable
}

// Reservable 图书当前状态是否允许预约
// 业务规则:只有已借出的图书才有预约的意义,在架图书应直接借阅,
// 丢失/损毁图书不开放预约
func (s Status) Reservable() bool {
	return s == StatusBorrowed
}

// Book 图书实体(聚合根)
// 设计说明:
// 1. ISBN作为业务唯一标识(数据库层保证唯一性)
// 2. 价格使用int64存储"分"为单位(避免浮点数精度问题),
//    同时充当丢失赔偿与逾期罚款的默认封顶值
// 3. CategoryID仅保留外键,分类体系本身由外部CRUD维护
type Book struct {
	ID          uint
	ISBN        string     // ISBN号(国际标准书号)
	Title       string     // 书名
	Author      string     // 作者
	Publisher   string     // 出版社
	CategoryID  uint       // 分类ID(外部维护)
	PublishDate *time.Time // 出版日期
	Price       int64      // 价格(单位:分)
	Location    string     // 馆藏位置(如"A区3排")
	Description string     // 图书描述
	Status      Status     // 当前状态(派生自borrows台账)
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewBook 创建新图书(工厂方法)
// 初始状态为available
func NewBook(isbn, title, author, publisher string, categoryID uint, price int64, location, description string) *Book {
	now := time.Now()
	return &Book{
		ISBN:        isbn,
		Title:       title,
		Author:      author,
		Publisher:   publisher,
		CategoryID:  categoryID,
		Price:       price,
		Location:    location,
		Description: description,
		Status:      StatusAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
