package dto

// Response statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every response body.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorData is the data payload of an error envelope.
type ErrorData struct {
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// Success builds a success envelope.
func Success(message string, data any) Envelope {
	return Envelope{Status: StatusSuccess, Message: message, Data: data}
}

// Error builds an error envelope.
func Error(code, message string, details map[string]any) Envelope {
	return Envelope{Status: StatusError, Message: message, Data: ErrorData{Code: code, Details: details}}
}
