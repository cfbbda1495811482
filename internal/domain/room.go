package domain

import "time"

// RoomRecord — учётная запись живой временной комнаты.
// OwnerID == "" означает «без владельца».
type RoomRecord struct {
	RoomID      string
	ZoneID      string
	OwnerID     string
	IsPersonal  bool
	CreatedAt   time.Time
	OwnerLeftAt *time.Time
}

// Owned — есть ли у комнаты текущий владелец.
func (r RoomRecord) Owned() bool { return r.OwnerID != "" }
