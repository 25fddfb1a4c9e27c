package loan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

func TestFineCalculator_Calculate(t *testing.T) {
	calc := NewFineCalculator(100, 0) // 1元/天,无默认封顶

	tests := []struct {
		name       string
		dueDate    time.Time
		returnDate time.Time
		cap        int64
		want       int64
	}{
		{
			name:       "按期归还无罚款",
			dueDate:    day(2026, 3, 10),
			returnDate: day(2026, 3, 5),
			cap:        5000,
			want:       0,
		},
		{
			name:       "应还当天归还无罚款",
			dueDate:    day(2026, 3, 10),
			returnDate: day(2026, 3, 10),
			cap:        5000,
			want:       0,
		},
		{
			name:       "逾期5天罚5元",
			dueDate:    day(2026, 1, 30),
			returnDate: day(2026, 2, 4),
			cap:        5000,
			want:       500,
		},
		{
			name:       "罚款以书价封顶",
			dueDate:    day(2026, 1, 1),
			returnDate: day(2026, 3, 1),
			cap:        2500, // 书价25元,逾期60天本应罚60元
			want:       2500,
		},
		{
			name:       "无封顶时按天计满",
			dueDate:    day(2026, 1, 1),
			returnDate: day(2026, 1, 31),
			cap:        0,
			want:       3000,
		},
		{
			name:       "归还时刻不影响按日计费",
			dueDate:    day(2026, 3, 10),
			returnDate: time.Date(2026, 3, 11, 23, 59, 0, 0, time.Local),
			cap:        5000,
			want:       100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc.Calculate(tt.dueDate, tt.returnDate, tt.cap)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFineCalculator_DefaultCap(t *testing.T) {
	calc := NewFineCalculator(100, 1000) // 默认封顶10元

	// 未传封顶时退回默认封顶
	got := calc.Calculate(day(2026, 1, 1), day(2026, 2, 1), 0)
	assert.Equal(t, int64(1000), got)

	// 显式封顶优先于默认封顶
	got = calc.Calculate(day(2026, 1, 1), day(2026, 2, 1), 800)
	assert.Equal(t, int64(800), got)
}

// 夏令时切换日只有23小时,逾期天数仍按自然日计
func TestOverdueDays_AcrossDSTTransition(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("时区数据不可用")
	}

	// 2026年3月8日进入夏令时,3月6日至3月11日实际只有119小时
	due := time.Date(2026, 3, 6, 0, 0, 0, 0, loc)
	ret := time.Date(2026, 3, 11, 0, 0, 0, 0, loc)
	assert.Equal(t, 5, OverdueDays(due, ret))

	calc := NewFineCalculator(100, 0)
	assert.Equal(t, int64(500), calc.Calculate(due, ret, 5000))

	// 秋季回拨方向(25小时日)同样按自然日计
	fallDue := time.Date(2026, 10, 30, 0, 0, 0, 0, loc)
	fallRet := time.Date(2026, 11, 4, 0, 0, 0, 0, loc)
	assert.Equal(t, 5, OverdueDays(fallDue, fallRet))
}

func TestOverdueDays(t *testing.T) {
	assert.Equal(t, 0, OverdueDays(day(2026, 3, 10), day(2026, 3, 10)))
	assert.Equal(t, 0, OverdueDays(day(2026, 3, 10), day(2026, 3, 1)))
	assert.Equal(t, 5, OverdueDays(day(2026, 1, 30), day(2026, 2, 4)))
	assert.Equal(t, 1, OverdueDays(day(2026, 3, 10), time.Date(2026, 3, 11, 0, 30, 0, 0, time.Local)))
}
