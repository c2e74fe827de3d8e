package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sfxdeve/padel-fantasy/services"
)

// CascadeChannel is the redis pub/sub channel carrying committed cascade
// results between the API process and every websocket-serving process.
const CascadeChannel = "cascade.results"

// RedisNotifier publishes cascade results to redis. It implements
// services.CascadeNotifier; publish failure is logged, never propagated.
type RedisNotifier struct {
	client *redis.Client
	logger *slog.Logger
}

func NewRedisNotifier(client *redis.Client, logger *slog.Logger) *RedisNotifier {
	return &RedisNotifier{client: client, logger: logger}
}

func (n *RedisNotifier) NotifyCascadeResult(ctx context.Context, result *services.CascadeResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		n.logger.Error("failed to marshal cascade result", slog.String("error", err.Error()))
		return
	}
	if err := n.client.Publish(ctx, CascadeChannel, payload).Err(); err != nil {
		n.logger.Error("failed to publish cascade result",
			slog.String("run_id", result.RunID),
			slog.String("error", err.Error()),
		)
	}
}

// Subscriber bridges the redis channel into hub league rooms.
type Subscriber struct {
	client *redis.Client
	hub    *Hub
	logger *slog.Logger
}

func NewSubscriber(client *redis.Client, hub *Hub, logger *slog.Logger) *Subscriber {
	return &Subscriber{client: client, hub: hub, logger: logger}
}

// Run consumes the cascade channel until the context is cancelled, fanning
// each result out to the rooms of the leagues it touched.
func (s *Subscriber) Run(ctx context.Context) {
	sub := s.client.Subscribe(ctx, CascadeChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var result services.CascadeResult
			if err := json.Unmarshal([]byte(msg.Payload), &result); err != nil {
				s.logger.Warn("dropping malformed cascade message", slog.String("error", err.Error()))
				continue
			}
			for _, leagueID := range result.LeagueIDs {
				room := LeagueRoom(leagueID)
				s.hub.BroadcastToRoom(room, Event{
					Type:    EventCascadeResult,
					Payload: &result,
					RoomID:  room,
				})
			}
		}
	}
}
