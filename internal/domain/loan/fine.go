package loan

import (
	"time"
)

// FineCalculator 逾期罚款计算器
// 设计说明:
// 1. 纯函数:同样的(应还日,归还日,封顶)必然得到同样的金额,
//    无任何副作用,可独立单元测试
// 2. 清扫任务只做逾期标记不算钱;罚款在归还时一次算清,
//    检测频率与计费精度解耦
type FineCalculator struct {
	PerDayRate int64 // 日罚款率(分/天)
	DefaultCap int64 // 默认封顶(分);0表示无默认封顶
}

// NewFineCalculator 创建罚款计算器
func NewFineCalculator(perDayRate, defaultCap int64) FineCalculator {
	return FineCalculator{
		PerDayRate: perDayRate,
		DefaultCap: defaultCap,
	}
}

// Calculate 计算逾期罚款
// 规则:
// - 按自然日计逾期天数,应还当天(或之前)归还罚款为0
// - 金额 = 逾期天数 × 日罚款率
// - cap>0时以cap封顶(通常传书价,即"罚款不超过书价");
//   cap<=0时退回DefaultCap,仍无封顶则按天数计满
func (c FineCalculator) Calculate(dueDate, returnDate time.Time, cap int64) int64 {
	days := OverdueDays(dueDate, returnDate)
	if days <= 0 {
		return 0
	}

	amount := int64(days) * c.PerDayRate

	if cap <= 0 {
		cap = c.DefaultCap
	}
	if cap > 0 && amount > cap {
		amount = cap
	}
	return amount
}

// OverdueDays 自然日口径的逾期天数
// 例:应还1月30日,2月4日归还 → 5天
// 换算到UTC再相减:夏令时切换所在的自然日不足(或超过)24小时,
// 直接对本地时间做小时差会少算或多算一天
func OverdueDays(dueDate, returnDate time.Time) int {
	due := Day(dueDate)
	ret := Day(returnDate)
	if !ret.After(due) {
		return 0
	}
	dueUTC := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	retUTC := time.Date(ret.Year(), ret.Month(), ret.Day(), 0, 0, 0, 0, time.UTC)
	return int(retUTC.Sub(dueUTC).Hours() / 24)
}
