package handlers

const (
	ErrUnauthorized        = "unauthorized"
	ErrTooManyRequests     = "too many requests, please try again later"
	ErrInternalServerError = "internal server error"

	// IdempotencyKeyHeader lets clients retry an XP grant safely
	IdempotencyKeyHeader = "Idempotency-Key"
)
