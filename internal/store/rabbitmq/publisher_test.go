package rabbitmq

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	msg, err := encodeEvent(LessonEvent{LessonID: "L1", RunID: "R1", State: "summarized", At: at})
	require.NoError(t, err)

	require.Equal(t, "application/json", msg.ContentType)
	require.Equal(t, amqp.Persistent, msg.DeliveryMode)
	require.Equal(t, "R1:summarized", msg.MessageId)
	require.Equal(t, "lesson.summarized", msg.Type)
	require.Equal(t, at, msg.Timestamp)
	require.JSONEq(t, `{"lesson_id":"L1","run_id":"R1","state":"summarized","at":"2025-06-02T10:00:00Z"}`, string(msg.Body))
}

func TestEncodeEvent_DefaultsTimestamp(t *testing.T) {
	msg, err := encodeEvent(LessonEvent{LessonID: "L1", RunID: "R1", State: "transcript_stored"})
	require.NoError(t, err)
	require.False(t, msg.Timestamp.IsZero())

	var ev LessonEvent
	require.NoError(t, json.Unmarshal(msg.Body, &ev))
	require.Equal(t, msg.Timestamp.Unix(), ev.At.Unix())
}

func TestNoop(t *testing.T) {
	require.NoError(t, Noop{}.PublishLessonEvent(context.Background(), LessonEvent{}))
}
