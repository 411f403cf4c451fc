package constants

type ENV string

const (
	Dev  ENV = "development"
	Prod ENV = "production"
)

// for api
type ContextKey string

const (
	RequestIDKey ContextKey = "request_id"
)

const (
	RequestIDHeader = "X-Request-ID"
	APIPrefix       = "/api/v1"
)
