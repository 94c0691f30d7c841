package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finplan/internal/core"
)

// ErrMalformedMessage marks deliveries that can never be processed.
var ErrMalformedMessage = errors.New("malformed message")

// ProjectionRequestMessage asks a worker to project a household.
// Adjustments are optional what-if overrides; without them the run is persisted.
type ProjectionRequestMessage struct {
	HouseholdID int64             `json:"householdId"`
	Adjustments *core.InputsPatch `json:"adjustments,omitempty"`
	Timestamp   time.Time         `json:"timestamp"`
}

func NewProjectionRequestMessage(householdID int64, adjustments *core.InputsPatch) *ProjectionRequestMessage {
	if adjustments != nil && adjustments.IsEmpty() {
		adjustments = nil
	}
	return &ProjectionRequestMessage{
		HouseholdID: householdID,
		Adjustments: adjustments,
		Timestamp:   time.Now(),
	}
}

func (m *ProjectionRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *ProjectionRequestMessage) Validate() error {
	if m.HouseholdID <= 0 {
		return fmt.Errorf("%w: household id %d", ErrMalformedMessage, m.HouseholdID)
	}
	return nil
}

// ProjectionRequestMessageFromJSON decodes and validates a request body.
func ProjectionRequestMessageFromJSON(data []byte) (*ProjectionRequestMessage, error) {
	var msg ProjectionRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ProjectionGeneratedMessage announces a persisted projection run
type ProjectionGeneratedMessage struct {
	HouseholdID   int64                      `json:"householdId"`
	RunID         int64                      `json:"runId"`
	StartNetWorth float64                    `json:"startNetWorth"`
	EndNetWorth   float64                    `json:"endNetWorth"`
	Milestones    []core.ProjectionMilestone `json:"milestones"`
	Timestamp     time.Time                  `json:"timestamp"`
}

func NewProjectionGeneratedMessage(run core.ProjectionRun) *ProjectionGeneratedMessage {
	return &ProjectionGeneratedMessage{
		HouseholdID:   run.HouseholdID,
		RunID:         run.ID,
		StartNetWorth: run.StartNetWorth,
		EndNetWorth:   run.EndNetWorth,
		Milestones:    run.Projection.Milestones,
		Timestamp:     time.Now(),
	}
}

func (m *ProjectionGeneratedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ProjectionGeneratedMessageFromJSON(data []byte) (*ProjectionGeneratedMessage, error) {
	var msg ProjectionGeneratedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return &msg, nil
}
