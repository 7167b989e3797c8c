package httpx

import (
	"encoding/json"
	"net/http"
)

// Envelope is the standard response body: status is "success" for 2xx,
// "fail" for 4xx and "error" for 5xx.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"status":"error","message":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

// Success writes a 2xx envelope with the given data payload.
func Success(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Envelope{Status: "success", Data: data})
}

// Error writes a 4xx/5xx envelope with a message.
func Error(w http.ResponseWriter, status int, msg string) {
	s := "error"
	if status >= 400 && status < 500 {
		s = "fail"
	}
	JSON(w, status, Envelope{Status: s, Message: msg})
}

// ErrorDetails writes a 4xx/5xx envelope carrying a per-field details map,
// used for validation failures.
func ErrorDetails(w http.ResponseWriter, status int, msg string, details any) {
	s := "error"
	if status >= 400 && status < 500 {
		s = "fail"
	}
	JSON(w, status, Envelope{Status: s, Message: msg, Details: details})
}
