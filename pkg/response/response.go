// Package response defines the wire envelope used by cross-cutting
// middleware. Handlers shape their own bodies in internal/dto; this
// envelope only wraps responses produced outside a handler.
package response

type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorData  `json:"error,omitempty"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
