package model

import "time"

// LogEntry is an immutable record of one decision: the request that arrived,
// the response produced, and the mode the service was in when it was decided.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Service   string                 `json:"service"`
	Request   map[string]interface{} `json:"request"`
	Response  map[string]interface{} `json:"response"`
	Mode      ServiceMode            `json:"mode"`
	Status    string                 `json:"status"`
}
