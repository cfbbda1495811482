package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

type LimitRequest struct {
	Limit int `json:"limit"`
}

type TargetRequest struct {
	UserID string `json:"user_id"`
}

type OwnerResponse struct {
	RoomID  string `json:"room_id"`
	OwnerID string `json:"owner_id,omitempty"`
}

type CleanResponse struct {
	Deleted int `json:"deleted"`
}

type RoomItem struct {
	RoomID      string     `json:"room_id"`
	ZoneID      string     `json:"zone_id"`
	OwnerID     string     `json:"owner_id,omitempty"`
	IsPersonal  bool       `json:"is_personal"`
	CreatedAt   time.Time  `json:"created_at"`
	OwnerLeftAt *time.Time `json:"owner_left_at,omitempty"`
}

type RoomsListResponse struct {
	Items []RoomItem `json:"items"`
}
