package gateway

import "encoding/json"

// Типы кадров, которые шлёт шлюз платформы
const (
	TypeVoiceState = "voice_state" // перемещение пользователя между комнатами
	TypeRoleChange = "role_change" // выдача/снятие роли
)

type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type VoiceStatePayload struct {
	UserID string `json:"user_id"`
	From   string `json:"from_room_id,omitempty"`
	To     string `json:"to_room_id,omitempty"`
}

type RoleChangePayload struct {
	UserID string `json:"user_id"`
	RoleID string `json:"role_id"`
	Gained bool   `json:"gained"`
}
