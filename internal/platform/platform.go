package platform

import "context"

// EveryoneTarget — ключ override для роли по умолчанию.
const EveryoneTarget = "@everyone"

// Override — право на подключение/видимость для одной цели.
// nil-поле означает «сбросить явный override», Remove — убрать запись целиком.
type Override struct {
	Connect *bool `json:"connect,omitempty"`
	View    *bool `json:"view,omitempty"`
	Remove  bool  `json:"remove,omitempty"`
}

// Edit — частичное изменение комнаты; незаполненные поля не трогаются.
type Edit struct {
	Name      *string             `json:"name,omitempty"`
	Capacity  *int                `json:"capacity,omitempty"`
	Overrides map[string]Override `json:"overrides,omitempty"`
}

// Member — срез данных о пользователе, который нужен сервису.
type Member struct {
	UserID      string   `json:"user_id"`
	DisplayName string   `json:"display_name"`
	Roles       []string `json:"roles"`
	CanManage   bool     `json:"can_manage"` // привилегия manage-channels
}

// Client — команды и запросы к чат-платформе. Единственная точка, где
// сервис разговаривает с внешним миром.
type Client interface {
	CreateRoom(ctx context.Context, zoneID, name string, capacity int) (roomID string, err error)
	// MoveUser с пустым roomID отключает пользователя от голоса.
	MoveUser(ctx context.Context, userID, roomID string) error
	DeleteRoom(ctx context.Context, roomID string) error
	EditRoom(ctx context.Context, roomID string, edit Edit) error

	CurrentOccupants(ctx context.Context, roomID string) ([]string, error)
	RoomExists(ctx context.Context, roomID string) (bool, error)
	GetMember(ctx context.Context, userID string) (*Member, error)
}

// HasRole — есть ли роль в срезе участника.
func (m *Member) HasRole(roleID string) bool {
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}
