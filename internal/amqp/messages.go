package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"pesalens/internal/core"
)

// AnalysisJobMessage asks the worker to analyze one stored statement. It
// carries only the ID and period; the worker loads the statement text from
// the database.
type AnalysisJobMessage struct {
	StatementID int64       `json:"statementId"`
	Period      core.Period `json:"period"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewAnalysisJobMessage stamps a job for the given statement and period.
func NewAnalysisJobMessage(statementID int64, period core.Period) *AnalysisJobMessage {
	return &AnalysisJobMessage{
		StatementID: statementID,
		Period:      period,
		Timestamp:   time.Now(),
	}
}

// Encode renders the message as a JSON body for publishing.
func (m *AnalysisJobMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeAnalysisJob parses a delivery body back into a job message.
func DecodeAnalysisJob(body []byte) (*AnalysisJobMessage, error) {
	var msg AnalysisJobMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("decode analysis job: %w", err)
	}
	return &msg, nil
}
