package domain

import "errors"

var (
	ErrMenuItemNotFound       = errors.New("menu item not found")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrInvalidQuantity        = errors.New("invalid quantity")
	ErrInvalidWindow          = errors.New("invalid delivery window")
	ErrInvalidCapacity        = errors.New("invalid capacity")
	ErrInvalidOrderedQuantity = errors.New("invalid ordered quantity")
	ErrInvalidDeliveryTime    = errors.New("invalid delivery time")
	ErrReservationNotFound    = errors.New("reservation not found")
	ErrEmptyOrder             = errors.New("order has no line items")
	ErrBusy                   = errors.New("capacity record busy")
)
