package queue

import "encoding/json"

// MessageVersion is the current cleanup message schema version.
const MessageVersion = 1

// Message asks a cleanup worker to remove an orphaned blob.
type Message struct {
	Handle        string `json:"handle"`
	Provider      string `json:"provider"`
	CertificateID string `json:"certificateId"`
	RequestID     string `json:"requestId"`
	EnqueuedAt    string `json:"enqueuedAt"`
	Version       int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}
