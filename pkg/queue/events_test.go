package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventRoundTripThroughMessage(t *testing.T) {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	event, err := NewEvent(EventFollowCreated, at, FollowEventData{FollowerID: "a", FollowingID: "b"})
	require.NoError(t, err)

	body, err := json.Marshal(event)
	require.NoError(t, err)

	decoded, err := DecodeEvent(Message{Key: "a", Value: body})
	require.NoError(t, err)
	assert.Equal(t, EventFollowCreated, decoded.Type)
	assert.True(t, decoded.Timestamp.Equal(at))

	var data FollowEventData
	require.NoError(t, decoded.DecodeData(&data))
	assert.Equal(t, "b", data.FollowingID)
}

func TestDecodeEventRejectsGarbage(t *testing.T) {
	_, err := DecodeEvent(Message{Value: []byte("not json")})
	assert.Error(t, err)
}
