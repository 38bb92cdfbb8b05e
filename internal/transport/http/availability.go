package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// AvailabilityChecker is the minimal interface needed for the probe endpoint.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context, menuItemIDs []int64, deliveryTime time.Time) (map[int64]bool, error)
}

// HandleAvailability returns an HTTP handler for the dry-run availability
// probe. It never creates reservations.
func HandleAvailability(svc AvailabilityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		ids, ok := parseMenuItemIDs(r.URL.Query().Get("menu_item_ids"))
		if !ok {
			writeError(w, http.StatusBadRequest, codeInvalidMenuItemID, "menu_item_ids must be comma-separated integers")
			return
		}

		deliveryTime, err := time.Parse(time.RFC3339, r.URL.Query().Get("delivery_time"))
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidDeliveryTime, "delivery_time must be RFC3339")
			return
		}

		availability, err := svc.CheckAvailability(r.Context(), ids, deliveryTime)
		if err != nil {
			writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			return
		}

		resp := make(map[string]bool, len(availability))
		for id, available := range availability {
			resp[strconv.FormatInt(id, 10)] = available
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func parseMenuItemIDs(raw string) ([]int64, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	parts := strings.Split(raw, ",")
	ids := make([]int64, 0, len(parts))
	for _, part := range parts {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id <= 0 {
			return nil, false
		}
		ids = append(ids, id)
	}
	return ids, true
}
