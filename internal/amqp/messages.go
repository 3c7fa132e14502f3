package amqp

import (
	"encoding/json"
	"time"
)

// DocumentChangedMessage announces that a document was written. It carries
// only the document address; consumers fetch the current state from the
// store themselves.
type DocumentChangedMessage struct {
	Collection string    `json:"collection"`
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewDocumentChangedMessage creates a change message for one document
func NewDocumentChangedMessage(collection, id string) *DocumentChangedMessage {
	return &DocumentChangedMessage{
		Collection: collection,
		ID:         id,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DocumentChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DocumentChangedMessageFromJSON creates a message from JSON bytes
func DocumentChangedMessageFromJSON(data []byte) (*DocumentChangedMessage, error) {
	var msg DocumentChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Collection == "" || msg.ID == "" {
		return nil, errEmptyAddress
	}
	return &msg, nil
}
