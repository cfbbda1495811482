package ownership

import (
	"time"

	"github.com/cwrk-planet/voice-service/internal/domain"
)

// Чистые переходы владения. Никакого I/O и чтения часов —
// время всегда передаётся аргументом, чтобы тесты не зависели от clock.

// OnOwnerDeparture — владелец вышел из комнаты. Персональные комнаты
// сохраняют владельца; общие теряют его и запоминают момент выхода.
func OnOwnerDeparture(rec domain.RoomRecord, now time.Time) domain.RoomRecord {
	if rec.IsPersonal {
		return rec
	}
	left := now
	rec.OwnerID = ""
	rec.OwnerLeftAt = &left
	return rec
}

// CanClaim — можно ли забрать комнату: владельца нет и candado истёк.
// Комната, у которой владельца не было вовсе, доступна сразу.
func CanClaim(rec domain.RoomRecord, now time.Time, lockWindow time.Duration) bool {
	if rec.Owned() {
		return false
	}
	if rec.OwnerLeftAt == nil {
		return true
	}
	return !now.Before(rec.OwnerLeftAt.Add(lockWindow))
}

// Claim — назначает нового владельца. Проверку CanClaim делает вызывающий:
// здесь только механизм, политика остаётся снаружи.
func Claim(rec domain.RoomRecord, claimantID string) domain.RoomRecord {
	rec.OwnerID = claimantID
	rec.OwnerLeftAt = nil
	return rec
}

// Transfer — безусловная передача владения. Авторизацию (владелец или
// модератор, присутствие нового владельца) проверяет контроллер.
func Transfer(rec domain.RoomRecord, newOwnerID string) domain.RoomRecord {
	rec.OwnerID = newOwnerID
	rec.OwnerLeftAt = nil
	return rec
}
