package services

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrInvalidSignature = errors.New("invalid transaction signature")
	ErrPaymentGateway   = errors.New("payment gateway unavailable")
)

var (
	ErrInvalidCredentials    = &DomainError{Kind: ErrUnauthorized, Message: "Invalid email or password"}
	ErrEmailTaken            = &DomainError{Kind: ErrConflict, Message: "User with this email already exists"}
	ErrUserNotFound          = &DomainError{Kind: ErrNotFound, Message: "User not found"}
	ErrClassNotFound         = &DomainError{Kind: ErrNotFound, Message: "Class not found"}
	ErrBookingNotFound       = &DomainError{Kind: ErrNotFound, Message: "Booking not found"}
	ErrTrainerNotFound       = &DomainError{Kind: ErrNotFound, Message: "Trainer not found"}
	ErrAlreadyBooked         = &DomainError{Kind: ErrConflict, Message: "You have already booked this class"}
	ErrBookingConfirmed      = &DomainError{Kind: ErrConflict, Message: "Booking is already confirmed"}
	ErrPaymentRecorded       = &DomainError{Kind: ErrConflict, Message: "Payment has already been recorded"}
	ErrClassHasBookings      = &DomainError{Kind: ErrConflict, Message: "Class has confirmed bookings"}
	ErrTrainerProfileMissing = &DomainError{Kind: ErrInvalidInput, Message: "Trainer profile not found"}
	ErrPaymentNotCaptured    = &DomainError{Kind: ErrInvalidInput, Message: "Payment has not been captured"}
)

// DomainError pairs a failure kind with the message shown to clients.
type DomainError struct {
	Kind    error
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Kind
}

func invalidInput(message string) error {
	return &DomainError{Kind: ErrInvalidInput, Message: message}
}

// PublicMessage returns the client-facing text for a service error.
func PublicMessage(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
