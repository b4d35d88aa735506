package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"task-tracker.com/task-tracker/internal/constants"
	model "task-tracker.com/task-tracker/internal/models"
)

// RedisPublisher fans events out over Redis pub/sub: the topic channel, the
// task room and, for user-scoped events, the user room.
type RedisPublisher struct {
	client rueidis.Client
	prefix string
}

func NewRedisPublisher(client rueidis.Client, channelPrefix string) *RedisPublisher {
	return &RedisPublisher{
		client: client,
		prefix: channelPrefix,
	}
}

func (r *RedisPublisher) Publish(ctx context.Context, event *model.OutboxEvent) error {
	body, err := json.Marshal(NewEnvelope(event))
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}

	cmds := make(rueidis.Commands, 0, 3)
	for _, channel := range r.Channels(event) {
		cmds = append(cmds, r.client.B().Publish().Channel(channel).Message(string(body)).Build())
	}

	for _, res := range r.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return err
		}
	}

	return nil
}

func (r *RedisPublisher) Channels(event *model.OutboxEvent) []string {
	channels := []string{
		fmt.Sprintf("%s:%s", r.prefix, event.Topic),
	}

	// Nobody can have joined the room of a task that did not exist yet.
	if event.Topic != constants.TopicTaskCreated {
		channels = append(channels, fmt.Sprintf("%s:task:%s", r.prefix, event.AggregateID))
	}

	if event.UserID != nil && *event.UserID != "" {
		channels = append(channels, fmt.Sprintf("%s:user:%s", r.prefix, *event.UserID))
	}

	return channels
}
