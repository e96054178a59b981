package model

// SuccessResponse is the envelope for every successful reply. Results is set
// on list responses, Token on responses that issue a session token.
type SuccessResponse struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ErrorResponse is the envelope for every failed reply. Status is "fail" for
// client errors and "error" otherwise. Detail and Stack are only populated in
// the diagnostic posture.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"error,omitempty"`
	Stack   string `json:"stack,omitempty"`
}
