package objects

// ErrorResponse is the error envelope returned by every endpoint.
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// Error codes used in the envelope.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeInvalidToken = "invalid_token"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeSlugConflict = "slug_conflict"
	ErrCodeConflict     = "conflict"
	ErrCodeServerError  = "server_error"
)
