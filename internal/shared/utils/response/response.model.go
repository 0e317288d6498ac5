package response

// ErrorResponse is the wire shape for every failure: a single
// human-readable detail string.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
