package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/darts-backend/internal/entity"
)

const (
	ListingKey     = "rooms:listing"
	UpdatesChannel = "rooms:updates"

	roomKeyPrefix = "room:"
)

// RoomMirror publishes room listings and snapshots for outside observers. It is
// write-only from the server's point of view and never used to restore state.
type RoomMirror interface {
	PublishListing(ctx context.Context, listing []entity.ListingEntry) error
	SaveRoom(ctx context.Context, state entity.RoomState) error
	DeleteRoom(ctx context.Context, id string) error
}

type RedisRoomMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRoomMirror(client *redis.Client, ttl time.Duration) *RedisRoomMirror {
	return &RedisRoomMirror{
		client: client,
		ttl:    ttl,
	}
}

func (that *RedisRoomMirror) PublishListing(ctx context.Context, listing []entity.ListingEntry) error {
	if listing == nil {
		listing = []entity.ListingEntry{}
	}

	listingJSON, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("could not marshal listing: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, ListingKey, listingJSON, 0)
		pipe.Publish(ctx, UpdatesChannel, listingJSON)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to publish listing: %w", err)
	}

	return nil
}

func (that *RedisRoomMirror) SaveRoom(ctx context.Context, state entity.RoomState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	if err = that.client.Set(ctx, roomKeyPrefix+state.ID, stateJSON, that.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	return nil
}

func (that *RedisRoomMirror) DeleteRoom(ctx context.Context, id string) error {
	if err := that.client.Del(ctx, roomKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete room by ID: %w", err)
	}

	return nil
}

// NopRoomMirror is used when no Redis is configured.
type NopRoomMirror struct{}

func (NopRoomMirror) PublishListing(context.Context, []entity.ListingEntry) error { return nil }
func (NopRoomMirror) SaveRoom(context.Context, entity.RoomState) error           { return nil }
func (NopRoomMirror) DeleteRoom(context.Context, string) error                   { return nil }
