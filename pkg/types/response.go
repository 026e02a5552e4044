package types

// Result wraps every successful storefront response body.
type Result struct {
	Data any `json:"data"`
}

// ErrorPayload carries a stable machine code, the user-facing message, and
// optional field-level details. Only codes whose metadata allows details
// ever populate them.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorResult wraps every failed storefront response body.
type ErrorResult struct {
	Error ErrorPayload `json:"error"`
}
