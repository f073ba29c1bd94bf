package projection

import (
	"testing"
	"time"

	"github.com/chiptspb/biohacker-nexus/internal/model"
)

func TestHistoryNewestFirstAndWindowed(t *testing.T) {
	logs := []model.DoseLog{
		{ID: "old", Date: "2025-05-01", Time: "08:00"},
		{ID: "mid-am", Date: "2025-06-09", Time: "08:00"},
		{ID: "mid-pm", Date: "2025-06-09", Time: "20:00"},
		{ID: "new", Date: "2025-06-10", Time: "07:30"},
		{ID: "bad", Date: "June 10", Time: "07:30"},
	}
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local)

	got := History(logs, since)
	want := []string{"new", "mid-pm", "mid-am"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("got[%d] = %s, want %s", i, got[i].ID, id)
		}
	}

	if all := History(logs, time.Time{}); len(all) != 4 {
		t.Fatalf("unbounded history len = %d, want 4", len(all))
	}
}

func TestDailyCounts(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.Local)
	logs := []model.DoseLog{
		{Date: "2025-06-10"},
		{Date: "2025-06-10"},
		{Date: "2025-06-08"},
		{Date: "2025-05-01"},
	}

	got := DailyCounts(logs, now, 3)
	want := []float64{1, 0, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("counts = %v, want %v", got, want)
		}
	}
	if DailyCounts(logs, now, 0) != nil {
		t.Fatal("zero days should return nil")
	}
}
