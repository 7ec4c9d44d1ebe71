package clock

import (
	"testing"
	"time"
)

func TestRealClock_Now(t *testing.T) {
	c := New()
	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("Now() = %v, expected between %v and %v", got, before, after)
	}
}

func TestRealClock_NowUTC(t *testing.T) {
	c := New()
	got := c.NowUTC()
	if got.Location() != time.UTC {
		t.Errorf("NowUTC() location = %v, expected UTC", got.Location())
	}
}

func TestMock_SetAndNow(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMock(base)

	if got := m.Now(); !got.Equal(base) {
		t.Errorf("Now() = %v, expected %v", got, base)
	}

	later := base.Add(3 * time.Hour)
	m.Set(later)
	if got := m.Now(); !got.Equal(later) {
		t.Errorf("Now() after Set = %v, expected %v", got, later)
	}
}

func TestMock_Advance(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMock(base)

	m.Advance(90 * time.Minute)
	expected := base.Add(90 * time.Minute)
	if got := m.Now(); !got.Equal(expected) {
		t.Errorf("Now() after Advance = %v, expected %v", got, expected)
	}
}

func TestMock_Since(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m := NewMock(base)
	m.Advance(10 * time.Minute)

	if got := m.Since(base); got != 10*time.Minute {
		t.Errorf("Since() = %v, expected 10m", got)
	}
}

func TestMock_AfterDoesNotBlock(t *testing.T) {
	m := NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	select {
	case <-m.After(24 * time.Hour):
	case <-time.After(time.Second):
		t.Fatal("Mock After blocked")
	}
}

func TestMock_NowUTC(t *testing.T) {
	loc := time.FixedZone("TEST", 3600)
	m := NewMock(time.Date(2025, 6, 1, 12, 0, 0, 0, loc))

	got := m.NowUTC()
	if got.Location() != time.UTC {
		t.Errorf("NowUTC() location = %v, expected UTC", got.Location())
	}
	if got.Hour() != 11 {
		t.Errorf("NowUTC() hour = %d, expected 11", got.Hour())
	}
}
