package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sogong-Phy-Com/MrdaebakDinnerService/internal/domain"
)

// SupplyCommander is the minimal interface needed for the operator commands.
type SupplyCommander interface {
	Restock(ctx context.Context, menuItemID int64, capacityPerWindow int, notes string) (domain.MenuItemCapacity, error)
	SetOrderedQuantity(ctx context.Context, menuItemID int64, quantity int) (domain.MenuItemCapacity, error)
	ReceiveOrderedInventory(ctx context.Context, menuItemID int64) (domain.MenuItemCapacity, error)
}

// HandleSupply routes POST /inventory/{menuItemID}/{restock|order|receive}.
func HandleSupply(svc SupplyCommander) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		menuItemID, action, ok := parseSupplyPath(r.URL.Path)
		if !ok {
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
			return
		}

		switch action {
		case "restock":
			handleRestock(w, r, svc, menuItemID)
		case "order":
			handleOrder(w, r, svc, menuItemID)
		case "receive":
			capacity, err := svc.ReceiveOrderedInventory(r.Context(), menuItemID)
			if err != nil {
				writeSupplyError(w, err)
				return
			}
			writeCapacity(w, capacity)
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleRestock(w http.ResponseWriter, r *http.Request, svc SupplyCommander, menuItemID int64) {
	var req restockRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.CapacityPerWindow == nil {
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, "capacity_per_window is required")
		return
	}

	capacity, err := svc.Restock(r.Context(), menuItemID, *req.CapacityPerWindow, req.Notes)
	if err != nil {
		writeSupplyError(w, err)
		return
	}
	writeCapacity(w, capacity)
}

func handleOrder(w http.ResponseWriter, r *http.Request, svc SupplyCommander, menuItemID int64) {
	var req orderInventoryRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
		return
	}
	if req.OrderedQuantity == nil {
		writeError(w, http.StatusBadRequest, codeInvalidOrderedQuantity, "ordered_quantity is required")
		return
	}

	capacity, err := svc.SetOrderedQuantity(r.Context(), menuItemID, *req.OrderedQuantity)
	if err != nil {
		writeSupplyError(w, err)
		return
	}
	writeCapacity(w, capacity)
}

func writeSupplyError(w http.ResponseWriter, err error) {
	switch err {
	case domain.ErrInvalidCapacity:
		writeError(w, http.StatusBadRequest, codeInvalidCapacity, err.Error())
	case domain.ErrInvalidOrderedQuantity:
		writeError(w, http.StatusBadRequest, codeInvalidOrderedQuantity, err.Error())
	case domain.ErrMenuItemNotFound:
		writeError(w, http.StatusNotFound, codeMenuItemNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func parseSupplyPath(path string) (int64, string, bool) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 3 || parts[0] != "inventory" {
		return 0, "", false
	}
	menuItemID, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || menuItemID <= 0 {
		return 0, "", false
	}
	return menuItemID, parts[2], true
}

func writeCapacity(w http.ResponseWriter, capacity domain.MenuItemCapacity) {
	resp := capacityResponse{
		MenuItemID:        capacity.MenuItemID,
		CapacityPerWindow: capacity.CapacityPerWindow,
		OrderedQuantity:   capacity.OrderedQuantity,
		Notes:             capacity.Notes,
		LastRestockedAt:   capacity.LastRestockedAt,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type restockRequest struct {
	CapacityPerWindow *int   `json:"capacity_per_window"`
	Notes             string `json:"notes"`
}

type orderInventoryRequest struct {
	OrderedQuantity *int `json:"ordered_quantity"`
}

type capacityResponse struct {
	MenuItemID        int64      `json:"menu_item_id"`
	CapacityPerWindow int        `json:"capacity_per_window"`
	OrderedQuantity   int        `json:"ordered_quantity"`
	Notes             string     `json:"notes"`
	LastRestockedAt   *time.Time `json:"last_restocked_at,omitempty"`
}
