package http

import "encoding/json"

type PublishRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Exclude []string        `json:"exclude,omitempty"` // connection IDs to skip
}

type PublishResponse struct {
	Delivered int               `json:"delivered"`
	Failed    map[string]string `json:"failed,omitempty"`
}

type StatsResponse struct {
	Connections int `json:"connections"`
	Rooms       int `json:"rooms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
