package service

import (
	"context"
	"encoding/json"
	"time"

	"Neighbor_Board/internal/model"
	"Neighbor_Board/internal/repository"

	"github.com/google/uuid"
)

// Event 投递到 Kafka 的消息体
type Event struct {
	EventID     string    `json:"event_id"`
	Type        string    `json:"type"`
	CommunityID uint64    `json:"community_id"`
	UserID      uint64    `json:"user_id"`
	SubjectID   uint64    `json:"subject_id,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Data        any       `json:"data,omitempty"`
}

// emit 与业务写入在同一事务内落 outbox
func emit(ctx context.Context, r *repository.Repos, eventType string, communityID, userID, subjectID uint64, data any) error {
	ev := Event{
		EventID:     uuid.NewString(),
		Type:        eventType,
		CommunityID: communityID,
		UserID:      userID,
		SubjectID:   subjectID,
		OccurredAt:  time.Now().UTC(),
		Data:        data,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.Outbox.Insert(ctx, &model.EventOutbox{
		EventID:     ev.EventID,
		EventType:   eventType,
		CommunityID: communityID,
		UserID:      userID,
		SubjectID:   subjectID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	})
}
