package apperr

import (
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Payload is the uniform error body returned by both HTTP surfaces.
type Payload struct {
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Now is the clock used for payload timestamps.
var Now = time.Now

// NewPayload builds a payload stamped with the current time in milliseconds.
func NewPayload(message string) Payload {
	return Payload{Message: message, Timestamp: Now().UnixMilli()}
}

// Write translates err to its status code and writes the JSON payload.
// Unclassified errors are logged and reported as 500 without leaking details.
func Write(w http.ResponseWriter, err error) {
	appErr, ok := As(err)
	if !ok {
		appErr = Internal(err)
	}
	if appErr.Kind == KindInternal {
		log.Printf("internal error: %v", err)
	}
	WriteStatus(w, appErr.Kind.Status(), appErr.Message)
}

// WriteStatus writes a payload with an explicit status code.
func WriteStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(NewPayload(message)); err != nil {
		log.Printf("encode error payload: %v", err)
	}
}
