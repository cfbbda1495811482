package service

import (
	"context"
	"log/slog"

	"github.com/cwrk-planet/voice-service/internal/domain"
	"github.com/cwrk-planet/voice-service/internal/ownership"
	"github.com/cwrk-planet/voice-service/internal/platform"
)

// Административные операции: тонкие обёртки «авторизация + одна команда
// платформе». Правило везде одно — текущий владелец или модератор.

func (s *LifecycleService) Rename(ctx context.Context, actorID, roomID, name string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	return s.platform.EditRoom(ctx, roomID, platform.Edit{Name: &name})
}

func (s *LifecycleService) SetLimit(ctx context.Context, actorID, roomID string, limit int) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	return s.platform.EditRoom(ctx, roomID, platform.Edit{Capacity: &limit})
}

func (s *LifecycleService) LockRoom(ctx context.Context, actorID, roomID string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	deny := false
	return s.platform.EditRoom(ctx, roomID, platform.Edit{
		Overrides: map[string]platform.Override{
			platform.EveryoneTarget: {Connect: &deny},
		},
	})
}

func (s *LifecycleService) UnlockRoom(ctx context.Context, actorID, roomID string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	// nil-поля сбрасывают явный override
	return s.platform.EditRoom(ctx, roomID, platform.Edit{
		Overrides: map[string]platform.Override{
			platform.EveryoneTarget: {},
		},
	})
}

func (s *LifecycleService) HideRoom(ctx context.Context, actorID, roomID string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	deny := false
	return s.platform.EditRoom(ctx, roomID, platform.Edit{
		Overrides: map[string]platform.Override{
			platform.EveryoneTarget: {Connect: &deny, View: &deny},
		},
	})
}

func (s *LifecycleService) RevealRoom(ctx context.Context, actorID, roomID string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	return s.platform.EditRoom(ctx, roomID, platform.Edit{
		Overrides: map[string]platform.Override{
			platform.EveryoneTarget: {},
		},
	})
}

func (s *LifecycleService) Kick(ctx context.Context, actorID, roomID, targetID string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	present, err := s.isOccupant(ctx, roomID, targetID)
	if err != nil {
		return err
	}
	if !present {
		return domain.ErrNotInRoom
	}
	return s.platform.MoveUser(ctx, targetID, "")
}

func (s *LifecycleService) Ban(ctx context.Context, actorID, roomID, targetID string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	deny := false
	if err := s.platform.EditRoom(ctx, roomID, platform.Edit{
		Overrides: map[string]platform.Override{
			targetID: {Connect: &deny, View: &deny},
		},
	}); err != nil {
		return err
	}
	present, err := s.isOccupant(ctx, roomID, targetID)
	if err == nil && present {
		if err := s.platform.MoveUser(ctx, targetID, ""); err != nil {
			slog.Warn("move banned user out failed", "room", roomID, "user", targetID, "err", err)
		}
	}
	return nil
}

func (s *LifecycleService) Unban(ctx context.Context, actorID, roomID, targetID string) error {
	if _, err := s.requireOwnerOrMod(ctx, actorID, roomID); err != nil {
		return err
	}
	return s.platform.EditRoom(ctx, roomID, platform.Edit{
		Overrides: map[string]platform.Override{
			targetID: {Remove: true},
		},
	})
}

func (s *LifecycleService) Transfer(ctx context.Context, actorID, roomID, newOwnerID string) error {
	rec, err := s.requireOwnerOrMod(ctx, actorID, roomID)
	if err != nil {
		return err
	}
	present, err := s.isOccupant(ctx, roomID, newOwnerID)
	if err != nil {
		return err
	}
	if !present {
		return domain.ErrNotInRoom
	}
	next := ownership.Transfer(*rec, newOwnerID)
	if err := s.store.Put(ctx, &next); err != nil {
		slog.Error("persist transfer failed", "room", roomID, "err", err)
	}
	return nil
}

// Owner — текущий владелец ("" — без владельца).
func (s *LifecycleService) Owner(ctx context.Context, roomID string) (string, error) {
	rec, err := s.store.Get(ctx, roomID)
	if err != nil {
		return "", err
	}
	return rec.OwnerID, nil
}

// Claim — забрать комнату без владельца после истечения candado.
// Авторизация здесь только присутствием в комнате и состоянием замка.
func (s *LifecycleService) Claim(ctx context.Context, actorID, roomID string) error {
	rec, err := s.store.Get(ctx, roomID)
	if err != nil {
		return err
	}
	present, err := s.isOccupant(ctx, roomID, actorID)
	if err != nil {
		return err
	}
	if !present {
		return domain.ErrNotInRoom
	}
	if rec.Owned() {
		return domain.ErrAlreadyOwned
	}
	if !ownership.CanClaim(*rec, s.now(), s.settings.OwnershipLock) {
		return domain.ErrClaimLocked
	}
	next := ownership.Claim(*rec, actorID)
	if err := s.store.Put(ctx, &next); err != nil {
		slog.Error("persist claim failed", "room", roomID, "err", err)
	}
	return nil
}

// Clean — удалить все пустые отслеживаемые комнаты. Только модератор.
func (s *LifecycleService) Clean(ctx context.Context, actorID string) (int, error) {
	if err := s.requireMod(ctx, actorID); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, rec := range recs {
		occ, err := s.platform.CurrentOccupants(ctx, rec.RoomID)
		if err != nil || len(occ) > 0 {
			continue
		}
		s.sched.Cancel(rec.RoomID)
		if s.deleteRoom(ctx, rec.RoomID) == nil {
			deleted++
		}
	}
	return deleted, nil
}

// ListRooms — все отслеживаемые записи. Только модератор.
func (s *LifecycleService) ListRooms(ctx context.Context, actorID string) ([]domain.RoomRecord, error) {
	if err := s.requireMod(ctx, actorID); err != nil {
		return nil, err
	}
	return s.store.ListAll(ctx)
}

func (s *LifecycleService) requireOwnerOrMod(ctx context.Context, actorID, roomID string) (*domain.RoomRecord, error) {
	rec, err := s.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID == actorID {
		return rec, nil
	}
	member, err := s.platform.GetMember(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if member.CanManage {
		return rec, nil
	}
	return nil, domain.ErrNotOwner
}

func (s *LifecycleService) requireMod(ctx context.Context, actorID string) error {
	member, err := s.platform.GetMember(ctx, actorID)
	if err != nil {
		return err
	}
	if !member.CanManage {
		return domain.ErrNotOwner
	}
	return nil
}

func (s *LifecycleService) isOccupant(ctx context.Context, roomID, userID string) (bool, error) {
	occ, err := s.platform.CurrentOccupants(ctx, roomID)
	if err != nil {
		return false, err
	}
	for _, u := range occ {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}
