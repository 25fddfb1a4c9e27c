package mysql

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 设计说明:连接池参数从配置读取,GORM日志级别跟随运行模式
func NewDB(cfg *config.Config) (*gorm.DB, error) {
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	db, err := gorm.Open(mysql.Open(cfg.Database.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接失败: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Printf("数据库连接成功: %s:%d/%s", cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)
	return db, nil
}

// AutoMigrate 自动建表
// 注意:生产环境建议使用SQL迁移脚本,AutoMigrate仅用于开发环境
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&CategoryModel{},
		&BookModel{},
		&ReaderModel{},
		&BorrowModel{},
		&ReservationModel{},
		&SystemLogModel{},
	)
}

// CategoryModel 图书分类表
// 分类体系由馆员后台维护,借阅引擎只引用外键
type CategoryModel struct {
	ID        uint   `gorm:"primaryKey"`
	Name      string `gorm:"size:64;not null;uniqueIndex"`
	ParentID  uint   `gorm:"default:0;index"`
	SortOrder int    `gorm:"default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (CategoryModel) TableName() string {
	return "categories"
}

// BookModel 图书表
type BookModel struct {
	ID          uint       `gorm:"primaryKey"`
	ISBN        string     `gorm:"column:isbn;size:32;not null;uniqueIndex"`
	Title       string     `gorm:"size:255;not null;index"`
	Author      string     `gorm:"size:128;not null"`
	Publisher   string     `gorm:"size:128"`
	CategoryID  uint       `gorm:"index"`
	PublishDate *time.Time `gorm:"type:date"`
	Price       int64      `gorm:"not null;default:0;comment:价格(分)"`
	Location    string     `gorm:"size:64"`
	Description string     `gorm:"type:text"`
	Status      string     `gorm:"size:16;not null;default:'available';index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (BookModel) TableName() string {
	return "books"
}

// ReaderModel 读者表
type ReaderModel struct {
	ID             uint   `gorm:"primaryKey"`
	CardNumber     string `gorm:"size:32;not null;uniqueIndex"`
	Name           string `gorm:"size:64;not null"`
	Gender         string `gorm:"size:8"`
	Phone          string `gorm:"size:32"`
	Email          string `gorm:"size:128"`
	Address        string `gorm:"size:255"`
	Status         string `gorm:"size:16;not null;default:'active';index"`
	MaxBorrowCount int    `gorm:"not null;default:5"`
	RegisterDate   time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (ReaderModel) TableName() string {
	return "readers"
}

// BorrowModel 借阅记录表(台账)
// 复合索引(book_id, status)支撑"图书在借记录"探测,
// (reader_id, status)支撑在借数量统计
type BorrowModel struct {
	ID         uint       `gorm:"primaryKey"`
	ReaderID   uint       `gorm:"not null;index:idx_reader_status,priority:1"`
	BookID     uint       `gorm:"not null;index:idx_book_status,priority:1"`
	BorrowDate time.Time  `gorm:"type:date;not null"`
	DueDate    time.Time  `gorm:"type:date;not null;index"`
	ReturnDate *time.Time `gorm:"type:date"`
	RenewCount int        `gorm:"not null;default:0"`
	FineAmount int64      `gorm:"not null;default:0;comment:罚款金额(分)"`
	Status     string     `gorm:"size:16;not null;default:'borrowed';index:idx_reader_status,priority:2;index:idx_book_status,priority:2"`
	Notes      string     `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (BorrowModel) TableName() string {
	return "borrows"
}

// ReservationModel 预约表
type ReservationModel struct {
	ID              uint       `gorm:"primaryKey"`
	ReaderID        uint       `gorm:"not null;index:idx_rsv_reader_status,priority:1"`
	BookID          uint       `gorm:"not null;index:idx_rsv_book_status,priority:1"`
	ReservationDate time.Time  `gorm:"type:date;not null"`
	ExpiryDate      time.Time  `gorm:"type:date;not null;index"`
	ClaimedDate     *time.Time `gorm:"type:date"`
	Status          string     `gorm:"size:16;not null;default:'active';index:idx_rsv_reader_status,priority:2;index:idx_rsv_book_status,priority:2"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (ReservationModel) TableName() string {
	return "reservations"
}

// SystemLogModel 系统操作日志表(审计落盘)
type SystemLogModel struct {
	ID          uint   `gorm:"primaryKey"`
	UserType    string `gorm:"size:16;not null;index"`
	UserID      uint   `gorm:"not null;default:0"`
	Action      string `gorm:"size:32;not null;index"`
	TargetType  string `gorm:"size:16;not null"`
	TargetID    uint   `gorm:"not null;default:0;index"`
	Description string `gorm:"size:512"`
	IPAddress   string `gorm:"size:45"`
	CreatedAt   time.Time
}

func (SystemLogModel) TableName() string {
	return "system_logs"
}
