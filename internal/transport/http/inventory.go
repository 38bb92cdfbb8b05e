package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/app"
	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/clock"
)

// InventoryReporter is the minimal interface needed for the dashboard query.
type InventoryReporter interface {
	WeeklySnapshot(ctx context.Context, weekStart time.Time) ([]app.Snapshot, error)
}

// HandleInventory returns an HTTP handler for the weekly inventory snapshot.
// week_start defaults to the Monday of the current week.
func HandleInventory(svc InventoryReporter, clk clock.Clock) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		weekStart := mondayOf(clk.Now())
		if raw := r.URL.Query().Get("week_start"); raw != "" {
			parsed, err := time.Parse("2006-01-02", raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, codeInvalidWeekStart, "week_start must be YYYY-MM-DD")
				return
			}
			weekStart = parsed
		}

		snapshots, err := svc.WeeklySnapshot(r.Context(), weekStart)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := make([]inventorySnapshotResponse, 0, len(snapshots))
		for _, s := range snapshots {
			resp = append(resp, inventorySnapshotResponse{
				MenuItemID:        s.MenuItemID,
				CapacityPerWindow: s.CapacityPerWindow,
				Reserved:          s.Reserved,
				Remaining:         s.Remaining,
				WeeklyReserved:    s.WeeklyReserved,
				OrderedQuantity:   s.OrderedQuantity,
				Notes:             s.Notes,
				LastRestockedAt:   s.LastRestockedAt,
				WindowStart:       s.WindowStart,
				WindowEnd:         s.WindowEnd,
				ReservedByDate:    s.ReservedByDate,
				WeekStart:         weekStart.Format("2006-01-02"),
			})
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func mondayOf(t time.Time) time.Time {
	day := t.Truncate(24 * time.Hour)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

type inventorySnapshotResponse struct {
	MenuItemID        int64          `json:"menu_item_id"`
	CapacityPerWindow int            `json:"capacity_per_window"`
	Reserved          int            `json:"reserved"`
	Remaining         int            `json:"remaining"`
	WeeklyReserved    int            `json:"weekly_reserved"`
	OrderedQuantity   int            `json:"ordered_quantity"`
	Notes             string         `json:"notes"`
	LastRestockedAt   *time.Time     `json:"last_restocked_at,omitempty"`
	WindowStart       time.Time      `json:"window_start"`
	WindowEnd         time.Time      `json:"window_end"`
	ReservedByDate    map[string]int `json:"reserved_by_date"`
	WeekStart         string         `json:"week_start"`
}
