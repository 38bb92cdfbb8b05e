package app

import "github.com/google/uuid"

func newReservationID() string {
	return uuid.NewString()
}
