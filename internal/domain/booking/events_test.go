package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingJSONPublisher struct {
	keys []string
	err  error
}

func (r *recordingJSONPublisher) PublishJSON(_ context.Context, key string, _ any) error {
	r.keys = append(r.keys, key)
	return r.err
}

func TestPublishers_FanOutJoinsErrors(t *testing.T) {
	ok := new(MockPublisher)
	ok.On("Publish", mock.Anything, eventOf(EventCreated)).Return(nil)
	failing := new(MockPublisher)
	failing.On("Publish", mock.Anything, eventOf(EventCreated)).Return(errors.New("broker down"))

	err := Publishers{ok, nil, failing}.Publish(context.Background(), Event{Type: EventCreated})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
	ok.AssertExpectations(t)
	failing.AssertExpectations(t)
}

func TestBrokerPublisher_RoutesByEventType(t *testing.T) {
	rec := &recordingJSONPublisher{}
	pub := NewBrokerPublisher(rec)

	require.NoError(t, pub.Publish(context.Background(), Event{Type: EventCancelled}))
	require.NoError(t, pub.Publish(context.Background(), Event{Type: EventDeleted}))
	assert.Equal(t, []string{"booking.cancelled", "booking.deleted"}, rec.keys)

	rec.err = errors.New("closed")
	assert.Error(t, pub.Publish(context.Background(), Event{Type: EventUpdated}))
}
