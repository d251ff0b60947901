package usecase

import (
	"testing"
	"time"
)

func TestCooldownExpires(t *testing.T) {
	st := NewScanState()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	st.MarkEmitted("BTCUSDT", "default", now, 5*time.Minute)
	if !st.OnCooldown("BTCUSDT", now.Add(4*time.Minute)) {
		t.Error("symbol should still be cooling down at +4m")
	}
	if st.OnCooldown("BTCUSDT", now.Add(5*time.Minute)) {
		t.Error("cooldown should expire at +5m")
	}
	if st.OnCooldown("ETHUSDT", now) {
		t.Error("other symbols are unaffected")
	}
}

func TestBudgetsAccumulate(t *testing.T) {
	st := NewScanState()
	now := time.Now().UTC()

	if !st.DailyBudgetLeft(2) {
		t.Fatal("fresh state should have budget")
	}
	st.MarkEmitted("AUSDT", "meme", now, time.Minute)
	st.MarkEmitted("BUSDT", "meme", now, time.Minute)
	if st.DailyBudgetLeft(2) {
		t.Error("daily budget of 2 should be exhausted")
	}
	if st.CategoryBudgetLeft("meme", 2) {
		t.Error("meme cap of 2 should be exhausted")
	}
	if !st.CategoryBudgetLeft("defi", 2) {
		t.Error("other categories keep their own budget")
	}
	if st.SignalsToday() != 2 {
		t.Errorf("signals today = %d", st.SignalsToday())
	}
	if got := st.CategoryCounts()["meme"]; got != 2 {
		t.Errorf("meme count = %d", got)
	}
}

func TestResetIfNewDayClearsBudgetsNotCooldowns(t *testing.T) {
	st := NewScanState()
	day1 := time.Date(2024, 3, 1, 23, 50, 0, 0, time.UTC)
	st.MarkEmitted("AUSDT", "meme", day1, time.Hour)

	// Same UTC day: nothing resets.
	st.ResetIfNewDay(day1.Add(5 * time.Minute))
	if st.SignalsToday() != 1 {
		t.Fatal("counters must survive within the same day")
	}

	// Past midnight UTC: budgets reset, the running cooldown does not.
	day2 := day1.Add(15 * time.Minute)
	st.ResetIfNewDay(day2)
	if st.SignalsToday() != 0 {
		t.Errorf("signals today = %d, want 0 after midnight", st.SignalsToday())
	}
	if len(st.CategoryCounts()) != 0 {
		t.Errorf("category counts = %v, want empty", st.CategoryCounts())
	}
	if !st.OnCooldown("AUSDT", day2) {
		t.Error("cooldown windows span the day boundary")
	}
}

func TestActiveCooldownsDropsExpired(t *testing.T) {
	st := NewScanState()
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	st.MarkEmitted("AUSDT", "default", now, time.Minute)
	st.MarkEmitted("BUSDT", "default", now, 10*time.Minute)

	if got := st.ActiveCooldowns(now.Add(30 * time.Second)); got != 2 {
		t.Errorf("active = %d, want 2", got)
	}
	if got := st.ActiveCooldowns(now.Add(5 * time.Minute)); got != 1 {
		t.Errorf("active = %d, want 1 after the first expires", got)
	}
	if st.OnCooldown("AUSDT", now.Add(5*time.Minute)) {
		t.Error("expired entry should be gone")
	}
}
