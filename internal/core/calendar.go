package core

import (
	"fmt"
	"time"
)

// DefaultFiscalStartMonth is July: the financial year runs July to June.
const DefaultFiscalStartMonth = 7

type (
	// MonthBucket is a calendar month the project spans.
	MonthBucket struct {
		Year  int
		Month int // 1-12
	}

	// EntryKey indexes a matrix cell by calendar month and category.
	EntryKey string

	// FiscalCalendar converts between calendar and financial periods.
	// A financial year is named after the calendar year it ends in.
	FiscalCalendar struct {
		StartMonth int
	}
)

// NewFiscalCalendar returns a calendar whose financial year starts in startMonth.
func NewFiscalCalendar(startMonth int) (FiscalCalendar, error) {
	if startMonth < 1 || startMonth > 12 {
		return FiscalCalendar{}, fmt.Errorf("%w: fiscal start month %d", ErrInvalidMonth, startMonth)
	}
	return FiscalCalendar{StartMonth: startMonth}, nil
}

// DefaultFiscalCalendar starts the financial year in July.
func DefaultFiscalCalendar() FiscalCalendar {
	return FiscalCalendar{StartMonth: DefaultFiscalStartMonth}
}

func (fc FiscalCalendar) start() int {
	if fc.StartMonth < 1 || fc.StartMonth > 12 {
		return DefaultFiscalStartMonth
	}
	return fc.StartMonth
}

// ToFinancial converts a calendar month to financial year and month.
func (fc FiscalCalendar) ToFinancial(b MonthBucket) (year, month int) {
	start := fc.start()
	month = (b.Month-start+12)%12 + 1
	year = b.Year
	if start != 1 && b.Month >= start {
		year++
	}
	return year, month
}

// ToCalendar converts a financial year and month back to a calendar month.
func (fc FiscalCalendar) ToCalendar(financialYear, financialMonth int) MonthBucket {
	start := fc.start()
	month := (financialMonth-1+start-1)%12 + 1
	year := financialYear
	if start != 1 && month >= start {
		year--
	}
	return MonthBucket{Year: year, Month: month}
}

// FinancialYear returns the financial year a date falls in.
func (fc FiscalCalendar) FinancialYear(t time.Time) int {
	y, _ := fc.ToFinancial(BucketOf(t))
	return y
}

// BucketOf returns the calendar month containing t.
func BucketOf(t time.Time) MonthBucket {
	return MonthBucket{Year: t.Year(), Month: int(t.Month())}
}

// Months enumerates the calendar months from start to end, both inclusive.
// It returns nil when end falls in a month before start.
func Months(start, end time.Time) []MonthBucket {
	first, last := BucketOf(start), BucketOf(end)
	if last.Before(first) {
		return nil
	}
	var out []MonthBucket
	for b := first; !last.Before(b); b = b.Next() {
		out = append(out, b)
	}
	return out
}

// Next returns the following calendar month.
func (b MonthBucket) Next() MonthBucket {
	if b.Month == 12 {
		return MonthBucket{Year: b.Year + 1, Month: 1}
	}
	return MonthBucket{Year: b.Year, Month: b.Month + 1}
}

// Before reports whether b is an earlier month than o.
func (b MonthBucket) Before(o MonthBucket) bool {
	if b.Year != o.Year {
		return b.Year < o.Year
	}
	return b.Month < o.Month
}

func (b MonthBucket) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Key returns the matrix key of category c in this month.
func (b MonthBucket) Key(c Category) EntryKey {
	return EntryKey(fmt.Sprintf("%04d.%02d.%s", b.Year, b.Month, c))
}

// Label formats the bucket as "Jan 2018".
func (b MonthBucket) Label() string {
	return time.Month(b.Month).String()[:3] + " " + fmt.Sprint(b.Year)
}

func (b MonthBucket) String() string {
	return fmt.Sprintf("%04d-%02d", b.Year, b.Month)
}
