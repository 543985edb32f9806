package dto

// ErrorResponse is the uniform error body returned by all endpoints.
type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

// Ack is returned by endpoints that have no meaningful body.
type Ack struct {
	OK bool `json:"ok"`
}
