package model

// ErrorResponse is the consistent JSON structure for all API error responses.
// Action tells the user what to do next: "retry", "re-enter", "restart" or "contact_support".
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code,omitempty"`
	Action string `json:"action,omitempty"`
}
