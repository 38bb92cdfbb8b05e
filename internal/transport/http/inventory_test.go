package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/app"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/clock"
)

type stubReporter struct {
	snapshots []app.Snapshot
	err       error
	weekStart time.Time
}

func (s *stubReporter) WeeklySnapshot(_ context.Context, weekStart time.Time) ([]app.Snapshot, error) {
	s.weekStart = weekStart
	return s.snapshots, s.err
}

func TestHandleInventory(t *testing.T) {
	t.Run("returns snapshot rows", func(t *testing.T) {
		windowStart := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
		svc := &stubReporter{snapshots: []app.Snapshot{{
			MenuItemID:        1,
			CapacityPerWindow: 10,
			Reserved:          4,
			Remaining:         6,
			WeeklyReserved:    9,
			OrderedQuantity:   2,
			Notes:             "steak",
			WindowStart:       windowStart,
			WindowEnd:         windowStart.Add(24 * time.Hour),
			ReservedByDate:    map[string]int{"2025-03-05": 4},
		}}}

		req := httptest.NewRequest(http.MethodGet, "/inventory?week_start=2025-03-03", nil)
		rec := httptest.NewRecorder()
		HandleInventory(svc, clock.NewFixed(windowStart))(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}

		wantWeekStart := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
		if !svc.weekStart.Equal(wantWeekStart) {
			t.Fatalf("expected week start %v, got %v", wantWeekStart, svc.weekStart)
		}

		var resp []map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if len(resp) != 1 {
			t.Fatalf("expected 1 row, got %d", len(resp))
		}
		row := resp[0]
		if row["menu_item_id"].(float64) != 1 {
			t.Fatalf("unexpected menu_item_id: %v", row["menu_item_id"])
		}
		if row["remaining"].(float64) != 6 {
			t.Fatalf("unexpected remaining: %v", row["remaining"])
		}
		if row["week_start"].(string) != "2025-03-03" {
			t.Fatalf("unexpected week_start: %v", row["week_start"])
		}
		byDate := row["reserved_by_date"].(map[string]any)
		if byDate["2025-03-05"].(float64) != 4 {
			t.Fatalf("unexpected reserved_by_date: %v", byDate)
		}
	})

	t.Run("week_start defaults to the current week's monday", func(t *testing.T) {
		svc := &stubReporter{}
		now := time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC) // a Wednesday

		req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
		rec := httptest.NewRecorder()
		HandleInventory(svc, clock.NewFixed(now))(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		wantWeekStart := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
		if !svc.weekStart.Equal(wantWeekStart) {
			t.Fatalf("expected default week start %v, got %v", wantWeekStart, svc.weekStart)
		}
	})

	t.Run("bad week_start", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/inventory?week_start=03-03-2025", nil)
		rec := httptest.NewRecorder()
		HandleInventory(&stubReporter{}, clock.NewSystem())(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, rec, codeInvalidWeekStart)
	})

	t.Run("service failure", func(t *testing.T) {
		svc := &stubReporter{err: errors.New("db down")}
		req := httptest.NewRequest(http.MethodGet, "/inventory", nil)
		rec := httptest.NewRecorder()
		HandleInventory(svc, clock.NewSystem())(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/inventory", nil)
		rec := httptest.NewRecorder()
		HandleInventory(&stubReporter{}, clock.NewSystem())(rec, req)

		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("expected 405, got %d", rec.Code)
		}
	})
}

func TestMondayOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			name: "wednesday",
			in:   time.Date(2025, 3, 5, 15, 30, 0, 0, time.UTC),
			want: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "monday stays",
			in:   time.Date(2025, 3, 3, 1, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday maps back six days",
			in:   time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC),
			want: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mondayOf(tt.in); !got.Equal(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if resp.Code != want {
		t.Fatalf("expected code %q, got %q", want, resp.Code)
	}
}
