package calendar

import (
	"encoding/json"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParseAndString(t *testing.T) {
	d, err := Parse("2025-01-06")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if d.Weekday() != time.Monday {
		t.Fatalf("Weekday = %v, want Monday", d.Weekday())
	}
	if d.String() != "2025-01-06" {
		t.Fatalf("String = %s", d.String())
	}
	if _, err := Parse("06/01/2025"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestFromTimeUsesLocation(t *testing.T) {
	// 23:30 UTC on Jan 5 is already Jan 6 in Tokyo.
	ts := time.Date(2025, 1, 5, 23, 30, 0, 0, time.UTC)
	tokyo := time.FixedZone("JST", 9*3600)
	if got := FromTime(ts, tokyo); got != New(2025, 1, 6) {
		t.Fatalf("FromTime(tokyo) = %s", got)
	}
	if got := FromTime(ts, nil); got != New(2025, 1, 5) {
		t.Fatalf("FromTime(nil) = %s", got)
	}
}

func TestArithmeticAcrossMonthAndYear(t *testing.T) {
	d := New(2024, 12, 30)
	if got := d.AddDays(3); got != New(2025, 1, 2) {
		t.Fatalf("AddDays = %s", got)
	}
	if n := DaysBetween(New(2025, 2, 27), New(2025, 3, 2)); n != 3 {
		t.Fatalf("DaysBetween = %d, want 3", n)
	}
	if !New(2025, 1, 1).Before(New(2025, 1, 2)) || New(2025, 1, 2).Before(New(2025, 1, 2)) {
		t.Fatal("Before ordering is wrong")
	}
}

func TestIsPreferredWeekday(t *testing.T) {
	mwf := []int{1, 3, 5}
	tests := []struct {
		date string
		want bool
	}{
		{"2025-01-05", false}, // Sunday
		{"2025-01-06", true},
		{"2025-01-07", false},
		{"2025-01-08", true},
		{"2025-01-10", true},
		{"2025-01-11", false},
	}
	for _, tt := range tests {
		if got := IsPreferredWeekday(MustParse(tt.date), mwf); got != tt.want {
			t.Errorf("IsPreferredWeekday(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestNextAvailableDate(t *testing.T) {
	mwf := []int{1, 3, 5}
	occupied := NewDateSet(MustParse("2025-01-06"), MustParse("2025-01-08"))

	got, ok := NextAvailableDate(MustParse("2025-01-05"), mwf, occupied, 14)
	if !ok || got != MustParse("2025-01-10") {
		t.Fatalf("NextAvailableDate = %s, %v; want 2025-01-10", got, ok)
	}

	// The start date itself is never a candidate.
	got, ok = NextAvailableDate(MustParse("2025-01-10"), mwf, NewDateSet(), 14)
	if !ok || got != MustParse("2025-01-13") {
		t.Fatalf("NextAvailableDate exclusive start = %s, %v", got, ok)
	}

	if _, ok := NextAvailableDate(MustParse("2025-01-05"), mwf, occupied, 4); ok {
		t.Fatal("expected window to be exhausted")
	}
}

func TestRangeAndWindow(t *testing.T) {
	r := Range(MustParse("2025-01-30"), MustParse("2025-02-02"))
	if len(r) != 4 || r[3] != MustParse("2025-02-02") {
		t.Fatalf("Range = %v", r)
	}
	if Range(MustParse("2025-02-02"), MustParse("2025-01-30")) != nil {
		t.Fatal("Range with end before start should be empty")
	}
	w := Window(MustParse("2025-01-05"), 7)
	if len(w) != 7 || w[0] != MustParse("2025-01-06") || w[6] != MustParse("2025-01-12") {
		t.Fatalf("Window = %v", w)
	}
	avail := AvailableDates(MustParse("2025-01-05"), 7, []int{1, 3, 5}, NewDateSet(MustParse("2025-01-08")))
	if len(avail) != 2 || avail[0] != MustParse("2025-01-06") || avail[1] != MustParse("2025-01-10") {
		t.Fatalf("AvailableDates = %v", avail)
	}
}

func TestJSONEncoding(t *testing.T) {
	type payload struct {
		When  Date  `json:"when"`
		Maybe *Date `json:"maybe"`
	}
	in := payload{When: New(2025, 3, 9)}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(b) != `{"when":"2025-03-09","maybe":null}` {
		t.Fatalf("Marshal = %s", b)
	}
	var out payload
	if err := json.Unmarshal([]byte(`{"when":"2025-03-09","maybe":"2025-04-01"}`), &out); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if out.When != in.When || out.Maybe == nil || *out.Maybe != New(2025, 4, 1) {
		t.Fatalf("Unmarshal = %+v", out)
	}
}

func TestBSONStoresPlainDateString(t *testing.T) {
	doc := struct {
		Scheduled Date `bson:"scheduledDate"`
	}{Scheduled: New(2025, 1, 10)}
	raw, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal error: %v", err)
	}
	val := bson.Raw(raw).Lookup("scheduledDate")
	if s, ok := val.StringValueOK(); !ok || s != "2025-01-10" {
		t.Fatalf("stored value = %v", val)
	}

	var back struct {
		Scheduled Date `bson:"scheduledDate"`
	}
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("bson.Unmarshal error: %v", err)
	}
	if back.Scheduled != doc.Scheduled {
		t.Fatalf("round trip = %s", back.Scheduled)
	}
}
