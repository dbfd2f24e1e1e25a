package model

import (
	"errors"
	"testing"
	"time"
)

func TestRecurrenceDailyInterval(t *testing.T) {
	rule := Recurrence{Type: RecurrenceDaily, Interval: 2}
	anchor := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	from := time.Date(2026, 2, 5, 9, 0, 0, 0, time.UTC)

	next, ok := rule.NextAfter(anchor, from)
	if !ok {
		t.Fatal("expected next occurrence")
	}
	if next.Format("2006-01-02 15:04") != "2026-02-07 08:00" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestRecurrenceWeeklyWithoutDays(t *testing.T) {
	rule := Recurrence{Type: RecurrenceWeekly, Interval: 2}
	anchor := time.Date(2026, 2, 2, 10, 30, 0, 0, time.UTC)
	from := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)

	next, ok := rule.NextAfter(anchor, from)
	if !ok {
		t.Fatal("expected next occurrence")
	}
	if next.Format("2006-01-02 15:04") != "2026-02-16 10:30" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.RFC3339))
	}
}

func TestRecurrenceWeeklyDaysOfWeek(t *testing.T) {
	anchor := time.Date(2026, 2, 9, 9, 0, 0, 0, time.UTC) // Monday

	tests := []struct {
		name string
		rule Recurrence
		from time.Time
		want string
	}{
		{
			name: "skips weekend",
			rule: Recurrence{Type: RecurrenceWeekly, Interval: 1, DaysOfWeek: []int{1, 3}},
			from: time.Date(2026, 2, 13, 10, 0, 0, 0, time.UTC),
			want: "2026-02-16 09:00",
		},
		{
			name: "same day later slot",
			rule: Recurrence{Type: RecurrenceWeekly, Interval: 1, DaysOfWeek: []int{3}},
			from: time.Date(2026, 2, 11, 8, 0, 0, 0, time.UTC),
			want: "2026-02-11 09:00",
		},
		{
			name: "every other week",
			rule: Recurrence{Type: RecurrenceCustom, Interval: 2, DaysOfWeek: []int{1}},
			from: time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC),
			want: "2026-02-23 09:00",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, ok := tc.rule.NextAfter(anchor, tc.from)
			if !ok {
				t.Fatal("expected next occurrence")
			}
			if got := next.Format("2006-01-02 15:04"); got != tc.want {
				t.Fatalf("next = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestRecurrenceMonthlyClampsToMonthEnd(t *testing.T) {
	rule := Recurrence{Type: RecurrenceMonthly, Interval: 1}
	anchor := time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC)

	got := rule.Preview(anchor, anchor, 3)
	want := []string{"2026-02-28", "2026-03-31", "2026-04-30"}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].Format(time.DateOnly) != want[i] {
			t.Fatalf("occurrence %d = %s, want %s", i, got[i].Format(time.DateOnly), want[i])
		}
	}
}

func TestRecurrenceYearlyLeapDay(t *testing.T) {
	rule := Recurrence{Type: RecurrenceYearly, Interval: 1}
	anchor := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	next, ok := rule.NextAfter(anchor, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	if !ok {
		t.Fatal("expected next occurrence")
	}
	if next.Format(time.DateOnly) != "2025-02-28" {
		t.Fatalf("unexpected next occurrence: %s", next.Format(time.DateOnly))
	}
}

func TestRecurrenceStopsAtEndDate(t *testing.T) {
	end := time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)
	rule := Recurrence{Type: RecurrenceDaily, Interval: 1, EndDate: &end}
	anchor := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	got := rule.Preview(anchor, anchor, 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 occurrences before end date, got %d", len(got))
	}
	if !got[1].Equal(end) {
		t.Fatalf("last occurrence = %s, want %s", got[1], end)
	}
}

func TestRecurrenceBeforeAnchorReturnsAnchor(t *testing.T) {
	rule := Recurrence{Type: RecurrenceDaily, Interval: 3}
	anchor := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	next, ok := rule.NextAfter(anchor, anchor.Add(-48*time.Hour))
	if !ok || !next.Equal(anchor) {
		t.Fatalf("expected anchor, got %s ok=%v", next, ok)
	}
}

func TestRecurrenceValidate(t *testing.T) {
	if err := (Recurrence{Type: RecurrenceDaily, Interval: 0}).Validate(); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("expected ErrInvalidInterval, got %v", err)
	}
	if err := (Recurrence{Type: "hourly", Interval: 1}).Validate(); !errors.Is(err, ErrInvalidRecurrenceType) {
		t.Fatalf("expected ErrInvalidRecurrenceType, got %v", err)
	}
	err := (Recurrence{Type: RecurrenceWeekly, Interval: 1, DaysOfWeek: []int{1, 1}}).Validate()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for duplicate weekday, got %v", err)
	}
	if _, ok := (Recurrence{Type: RecurrenceWeekly, Interval: 1, DaysOfWeek: []int{7}}).NextAfter(time.Now(), time.Now()); ok {
		t.Fatal("invalid rule must not produce occurrences")
	}
}
