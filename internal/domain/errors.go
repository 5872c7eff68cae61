package domain

import "errors"

var (
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrDuplicateConnection = errors.New("duplicate connection id")
	ErrDeliveryFailed      = errors.New("delivery failed")
)
