package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed       = "method_not_allowed"
	codeNotFound               = "not_found"
	codeInvalidRequestBody     = "invalid_request_body"
	codeInvalidMenuItemID      = "invalid_menu_item_id"
	codeInvalidCapacity        = "invalid_capacity"
	codeInvalidOrderedQuantity = "invalid_ordered_quantity"
	codeInvalidDeliveryTime    = "invalid_delivery_time"
	codeInvalidWeekStart       = "invalid_week_start"
	codeMenuItemNotFound       = "menu_item_not_found"
	codeForbidden              = "forbidden"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}
