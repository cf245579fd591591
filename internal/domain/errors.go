package domain

import "errors"

var (
	// ErrAddressNotFound is returned when the geocoder has no match for an address
	ErrAddressNotFound = errors.New("address not found by geocoder")

	// ErrGeocoderUnavailable is returned when the geocoder request fails or its response cannot be parsed
	ErrGeocoderUnavailable = errors.New("geocoder request failed")

	// ErrDuplicateAddress is returned by a location store when a concurrent insert won the race
	ErrDuplicateAddress = errors.New("location for address already exists")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStoreUnavailable is returned when the order, catalog or location store cannot be read
	ErrStoreUnavailable = errors.New("store unavailable")
)
