package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vo "github.com/ignatzorin/dispute-backend/internal/domain/valueobject"
)

func TestEncode_KeyedByCaseNumber(t *testing.T) {
	actor := uuid.New()
	at := time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	event := DisputeEvent{
		DisputeID:  12,
		CaseNumber: "DIS-2025-00012",
		Type:       vo.ActivityResolved,
		Status:     vo.DisputeStatusResolvedPartial,
		Priority:   vo.PriorityHigh,
		ActorID:    &actor,
		OccurredAt: at,
	}

	msg, err := encode(event)
	require.NoError(t, err)
	assert.Equal(t, "DIS-2025-00012", string(msg.Key))
	assert.Equal(t, at, msg.Time)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "resolved", decoded["type"])
	assert.Equal(t, "resolved_partial", decoded["status"])
	assert.Equal(t, actor.String(), decoded["actor_id"])
}

func TestEncode_SystemActorOmitted(t *testing.T) {
	msg, err := encode(DisputeEvent{DisputeID: 1, CaseNumber: "DIS-2025-00001", Type: vo.ActivitySLABreached})
	require.NoError(t, err)
	assert.NotContains(t, string(msg.Value), "actor_id")
}

func TestNew_WithoutBrokersIsNop(t *testing.T) {
	p := New(nil, "disputes")
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), DisputeEvent{DisputeID: 1}))
	assert.NoError(t, p.Close())

	assert.IsType(t, NopPublisher{}, New([]string{"localhost:9092"}, ""))
	assert.IsType(t, &KafkaPublisher{}, New([]string{"localhost:9092"}, "disputes"))
}
