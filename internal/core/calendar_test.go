package core

import (
	"reflect"
	"testing"
)

func TestMonthsSameMonth(t *testing.T) {
	got := Months(NewDate(2018, 3, 2).Time, NewDate(2018, 3, 28).Time)
	if len(got) != 1 || got[0] != (MonthBucket{Year: 2018, Month: 3}) {
		t.Fatalf("expected one bucket, got %v", got)
	}
}

func TestMonthsAcrossYearBoundary(t *testing.T) {
	got := Months(NewDate(2018, 11, 15).Time, NewDate(2019, 2, 10).Time)
	want := []MonthBucket{{2018, 11}, {2018, 12}, {2019, 1}, {2019, 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestMonthsEndDayBeforeStartDay(t *testing.T) {
	// The end month is included even when its day is earlier than the start day.
	got := Months(NewDate(2018, 1, 31).Time, NewDate(2018, 2, 1).Time)
	if len(got) != 2 {
		t.Fatalf("expected 2 buckets, got %v", got)
	}
}

func TestMonthsEndBeforeStart(t *testing.T) {
	if got := Months(NewDate(2019, 1, 1).Time, NewDate(2018, 12, 31).Time); got != nil {
		t.Fatalf("expected no buckets, got %v", got)
	}
}

func TestFiscalCalendarJuly(t *testing.T) {
	fc := DefaultFiscalCalendar()
	cases := []struct {
		b      MonthBucket
		fy, fm int
	}{
		{MonthBucket{2018, 7}, 2019, 1},
		{MonthBucket{2018, 12}, 2019, 6},
		{MonthBucket{2019, 1}, 2019, 7},
		{MonthBucket{2019, 6}, 2019, 12},
	}
	for _, tc := range cases {
		fy, fm := fc.ToFinancial(tc.b)
		if fy != tc.fy || fm != tc.fm {
			t.Fatalf("%v: expected FY%d/%d, got FY%d/%d", tc.b, tc.fy, tc.fm, fy, fm)
		}
		if back := fc.ToCalendar(fy, fm); back != tc.b {
			t.Fatalf("FY%d/%d: expected %v, got %v", fy, fm, tc.b, back)
		}
	}
}

func TestFiscalCalendarRoundTrip(t *testing.T) {
	for start := 1; start <= 12; start++ {
		fc, err := NewFiscalCalendar(start)
		if err != nil {
			t.Fatalf("start %d: %v", start, err)
		}
		for b := (MonthBucket{2017, 1}); b.Before(MonthBucket{2020, 1}); b = b.Next() {
			fy, fm := fc.ToFinancial(b)
			if fm < 1 || fm > 12 {
				t.Fatalf("start %d %v: financial month %d out of range", start, b, fm)
			}
			if back := fc.ToCalendar(fy, fm); back != b {
				t.Fatalf("start %d: %v -> FY%d/%d -> %v", start, b, fy, fm, back)
			}
		}
	}
	if _, err := NewFiscalCalendar(0); err == nil {
		t.Fatalf("expected error for start month 0")
	}
}

func TestCalendarYearFiscal(t *testing.T) {
	fc, _ := NewFiscalCalendar(1)
	fy, fm := fc.ToFinancial(MonthBucket{2018, 3})
	if fy != 2018 || fm != 3 {
		t.Fatalf("expected FY2018/3, got FY%d/%d", fy, fm)
	}
}

func TestEntryKey(t *testing.T) {
	b := MonthBucket{Year: 2018, Month: 1}
	if got := b.Key(CostFromRoster); got != "2018.01.Cost from Roster" {
		t.Fatalf("unexpected key %q", got)
	}
	if b.Key(Revenue) == b.Key(PlannedCost) {
		t.Fatalf("keys must differ per category")
	}
	if b.Label() != "Jan 2018" {
		t.Fatalf("unexpected label %q", b.Label())
	}
}
