package aggregation

import (
	"testing"
	"time"
)

func TestParseTimestamp_Layouts(t *testing.T) {
	cases := []string{
		"2024-03-05T10:30:00Z",
		"2024-03-05T10:30:00.123456789Z",
		"2024-03-05 10:30:00",
		"2024-03-05",
	}
	for _, s := range cases {
		ts, err := ParseTimestamp(s)
		if err != nil {
			t.Errorf("ParseTimestamp(%q): %v", s, err)
			continue
		}
		if ts.Year() != 2024 || ts.Month() != time.March || ts.Day() != 5 {
			t.Errorf("ParseTimestamp(%q) = %v, wrong date", s, ts)
		}
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}

func TestParseEvents_DropsMalformed(t *testing.T) {
	raw := []RawEvent{
		{Timestamp: "2024-03-05T10:30:00Z", EntityID: "u1"},
		{Timestamp: "not-a-time", EntityID: "u1"},
		{Timestamp: "2024-03-05T11:00:00Z", EntityID: ""},
		{Timestamp: "2024-03-06", EntityID: "u2"},
	}

	events, dropped := ParseEvents(raw)
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
	if len(events) != 2 {
		t.Fatalf("kept %d events, want 2", len(events))
	}
	if events[0].EntityID != "u1" || events[1].EntityID != "u2" {
		t.Errorf("unexpected surviving events: %+v", events)
	}
}

func TestPartition_PreservesFirstSeenOrder(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Time: base, EntityID: "b"},
		{Time: base, EntityID: "a"},
		{Time: base, EntityID: "b"},
		{Time: base, EntityID: "c"},
		{Time: base, EntityID: "a"},
	}

	order, byEntity := Partition(events)
	if len(order) != 3 || order[0] != "b" || order[1] != "a" || order[2] != "c" {
		t.Errorf("order = %v, want [b a c]", order)
	}
	if len(byEntity["b"]) != 2 || len(byEntity["a"]) != 2 || len(byEntity["c"]) != 1 {
		t.Errorf("partition sizes wrong: %v", byEntity)
	}
}

func TestDaily_CountsPerCalendarDay(t *testing.T) {
	events := []Event{
		{Time: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC), EntityID: "u1"},
		{Time: time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC), EntityID: "u1"},
		{Time: time.Date(2024, 3, 2, 0, 1, 0, 0, time.UTC), EntityID: "u1"},
	}

	series := Daily("u1", events)
	if len(series) != 2 {
		t.Fatalf("expected 2 days, got %d", len(series))
	}
	if series[0].Count != 2 || series[1].Count != 1 {
		t.Errorf("counts = [%d %d], want [2 1]", series[0].Count, series[1].Count)
	}
}

func TestDaily_FillsGapsWithZeroDays(t *testing.T) {
	// Events on day 1 and day 5: the three days between must appear with
	// count zero rather than being omitted.
	events := []Event{
		{Time: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), EntityID: "u1"},
		{Time: time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), EntityID: "u1"},
	}

	series := Daily("u1", events)
	if len(series) != 5 {
		t.Fatalf("expected 5 contiguous days, got %d", len(series))
	}
	wantCounts := []int{1, 0, 0, 0, 1}
	for i, dc := range series {
		if dc.Count != wantCounts[i] {
			t.Errorf("day %d count = %d, want %d", i, dc.Count, wantCounts[i])
		}
		want := time.Date(2024, 3, 1+i, 0, 0, 0, 0, time.UTC)
		if !dc.Date.Equal(want) {
			t.Errorf("day %d date = %v, want %v", i, dc.Date, want)
		}
	}
	if err := ValidateSeries(series); err != nil {
		t.Errorf("Daily output failed its own invariant: %v", err)
	}
}

func TestDaily_UnorderedInput(t *testing.T) {
	events := []Event{
		{Time: time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC), EntityID: "u1"},
		{Time: time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC), EntityID: "u1"},
		{Time: time.Date(2024, 3, 2, 8, 0, 0, 0, time.UTC), EntityID: "u1"},
	}

	series := Daily("u1", events)
	if len(series) != 3 {
		t.Fatalf("expected 3 days, got %d", len(series))
	}
	for i := 1; i < len(series); i++ {
		if !series[i].Date.After(series[i-1].Date) {
			t.Error("series not in ascending date order")
		}
	}
}

func TestDaily_EmptyInput(t *testing.T) {
	if series := Daily("u1", nil); len(series) != 0 {
		t.Errorf("expected empty series, got %d rows", len(series))
	}
}

func TestValidateSeries(t *testing.T) {
	d := func(dayOfMonth int) time.Time {
		return time.Date(2024, 3, dayOfMonth, 0, 0, 0, 0, time.UTC)
	}

	good := []DailyCount{
		{Date: d(1), EntityID: "u1", Count: 3},
		{Date: d(2), EntityID: "u1", Count: 0},
		{Date: d(3), EntityID: "u1", Count: 7},
	}
	if err := ValidateSeries(good); err != nil {
		t.Errorf("valid series rejected: %v", err)
	}

	gap := []DailyCount{
		{Date: d(1), EntityID: "u1", Count: 3},
		{Date: d(3), EntityID: "u1", Count: 7},
	}
	if err := ValidateSeries(gap); err == nil {
		t.Error("series with a missing day accepted")
	}

	negative := []DailyCount{{Date: d(1), EntityID: "u1", Count: -2}}
	if err := ValidateSeries(negative); err == nil {
		t.Error("negative count accepted")
	}
}
