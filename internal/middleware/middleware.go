package middleware

// HTTP header constants.
const (
	// HeaderContentType is the Content-Type header name.
	HeaderContentType = "Content-Type"

	// HeaderRetryAfter is the Retry-After header name.
	HeaderRetryAfter = "Retry-After"

	// HeaderXRequestID is the X-Request-ID header name.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXForwardedFor is the X-Forwarded-For header name.
	HeaderXForwardedFor = "X-Forwarded-For"

	// HeaderOrigin is the Origin header name.
	HeaderOrigin = "Origin"
)

// ContentTypeJSON is the JSON content type value.
const ContentTypeJSON = "application/json"

// Canned JSON error bodies.
const (
	ErrInternalServer        = `{"error":"internal server error"}`
	ErrRateLimitExceeded     = `{"error":"rate limit exceeded"}`
	ErrRequestEntityTooLarge = `{"error":"request body too large"}`
)
