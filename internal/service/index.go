package service

import (
	"context"
	"log/slog"

	"github.com/cwrk-planet/voice-service/internal/platform"
	"github.com/cwrk-planet/voice-service/internal/store"
)

// IndexAllocator — следующий отображаемый номер комнаты в зоне:
// (число живых комнат) + 1. Номера переиспользуются намеренно — людям
// удобнее маленькие числа, а имя комнаты не идентификатор.
// Побочный эффект: записи про исчезнувшие комнаты вычищаются из стора.
type IndexAllocator struct {
	store    store.Store
	platform platform.Client
}

func NewIndexAllocator(st store.Store, pc platform.Client) *IndexAllocator {
	return &IndexAllocator{store: st, platform: pc}
}

func (a *IndexAllocator) NextIndex(ctx context.Context, zoneID string) (int, error) {
	recs, err := a.store.ListByZone(ctx, zoneID)
	if err != nil {
		return 0, err
	}

	live := 0
	for _, rec := range recs {
		exists, err := a.platform.RoomExists(ctx, rec.RoomID)
		if err != nil {
			return 0, err
		}
		if !exists {
			if err := a.store.Remove(ctx, rec.RoomID); err != nil {
				slog.Warn("prune stale record failed", "room", rec.RoomID, "err", err)
			}
			continue
		}
		live++
	}
	return live + 1, nil
}
