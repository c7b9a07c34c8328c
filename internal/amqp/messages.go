package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SavedEntry is one persisted forecast amount carried by ForecastSavedMessage.
type SavedEntry struct {
	FinancialYear  int    `json:"financialYear"`
	FinancialMonth int    `json:"financialMonth"`
	Type           string `json:"type"`   // forecast type code
	Amount         string `json:"amount"` // decimal string
}

// ForecastSavedMessage announces that a project forecast was saved. The
// worker reloads the project from storage, the entries are informational.
type ForecastSavedMessage struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectId"`
	SavedBy   string       `json:"savedBy"`
	Entries   []SavedEntry `json:"entries"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewForecastSavedMessage(projectID, savedBy string, entries []SavedEntry) *ForecastSavedMessage {
	return &ForecastSavedMessage{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		SavedBy:   savedBy,
		Entries:   entries,
		Timestamp: time.Now().UTC(),
	}
}

func (m *ForecastSavedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ForecastSavedMessageFromJSON decodes a message and rejects one without a project.
func ForecastSavedMessageFromJSON(data []byte) (*ForecastSavedMessage, error) {
	var msg ForecastSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ProjectID == "" {
		return nil, errors.New("message has no projectId")
	}
	return &msg, nil
}
