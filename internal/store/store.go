package store

import (
	"context"

	"github.com/cwrk-planet/voice-service/internal/domain"
)

// Store — единственный источник правды по живым комнатам.
// Мутации синхронно доезжают до носителя до возврата из вызова.
type Store interface {
	Get(ctx context.Context, roomID string) (*domain.RoomRecord, error)
	Put(ctx context.Context, rec *domain.RoomRecord) error
	Remove(ctx context.Context, roomID string) error
	ListByZone(ctx context.Context, zoneID string) ([]domain.RoomRecord, error)
	ListAll(ctx context.Context) ([]domain.RoomRecord, error)
}
