package platform

import (
	"context"
	"sync"

	"github.com/cwrk-planet/voice-service/internal/domain"

	"github.com/google/uuid"
)

// Memory — платформа в памяти для тестов и локальной разработки.
// Повторяет контракт Client, состояние доступно напрямую через хелперы.
type Memory struct {
	mu       sync.Mutex
	rooms    map[string]*memRoom
	members  map[string]Member
	userRoom map[string]string // userID -> roomID

	deleted []string

	// инъекции ошибок
	CreateErr error
	MoveErr   error
	DeleteErr error
	EditErr   error
}

type memRoom struct {
	zoneID    string
	name      string
	capacity  int
	occupants map[string]struct{}
	overrides map[string]Override
}

func NewMemory() *Memory {
	return &Memory{
		rooms:    make(map[string]*memRoom),
		members:  make(map[string]Member),
		userRoom: make(map[string]string),
	}
}

func (m *Memory) CreateRoom(_ context.Context, zoneID, name string, capacity int) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	id := uuid.NewString()
	m.rooms[id] = &memRoom{
		zoneID:    zoneID,
		name:      name,
		capacity:  capacity,
		occupants: make(map[string]struct{}),
		overrides: make(map[string]Override),
	}
	return id, nil
}

func (m *Memory) MoveUser(_ context.Context, userID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.MoveErr != nil {
		return m.MoveErr
	}
	if prev, ok := m.userRoom[userID]; ok {
		if r, ok := m.rooms[prev]; ok {
			delete(r.occupants, userID)
		}
		delete(m.userRoom, userID)
	}
	if roomID == "" {
		return nil
	}
	r, ok := m.rooms[roomID]
	if !ok {
		return domain.ErrNotTracked
	}
	r.occupants[userID] = struct{}{}
	m.userRoom[userID] = roomID
	return nil
}

func (m *Memory) DeleteRoom(_ context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	if r, ok := m.rooms[roomID]; ok {
		for u := range r.occupants {
			delete(m.userRoom, u)
		}
		delete(m.rooms, roomID)
		m.deleted = append(m.deleted, roomID)
	}
	return nil
}

func (m *Memory) EditRoom(_ context.Context, roomID string, edit Edit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.EditErr != nil {
		return m.EditErr
	}
	r, ok := m.rooms[roomID]
	if !ok {
		return domain.ErrNotTracked
	}
	if edit.Name != nil {
		r.name = *edit.Name
	}
	if edit.Capacity != nil {
		r.capacity = *edit.Capacity
	}
	for target, ow := range edit.Overrides {
		if ow.Remove {
			delete(r.overrides, target)
			continue
		}
		r.overrides[target] = ow
	}
	return nil
}

func (m *Memory) CurrentOccupants(_ context.Context, roomID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rooms[roomID]
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(r.occupants))
	for u := range r.occupants {
		out = append(out, u)
	}
	return out, nil
}

func (m *Memory) RoomExists(_ context.Context, roomID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.rooms[roomID]
	return ok, nil
}

func (m *Memory) GetMember(_ context.Context, userID string) (*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mem, ok := m.members[userID]; ok {
		out := mem
		return &out, nil
	}
	// неизвестный пользователь: без ролей и привилегий
	return &Member{UserID: userID, DisplayName: userID}, nil
}

// --- хелперы для тестов ---

func (m *Memory) PutMember(mem Member) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.members[mem.UserID] = mem
}

func (m *Memory) RoomName(roomID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		return r.name
	}
	return ""
}

func (m *Memory) RoomCapacity(roomID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		return r.capacity
	}
	return 0
}

func (m *Memory) OverrideFor(roomID, target string) (Override, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		ow, ok := r.overrides[target]
		return ow, ok
	}
	return Override{}, false
}

func (m *Memory) UserRoom(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.userRoom[userID]
}

func (m *Memory) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.deleted))
	copy(out, m.deleted)
	return out
}

// DropRoom — комната исчезла «мимо нас» (удалена вручную на платформе).
func (m *Memory) DropRoom(roomID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.rooms[roomID]; ok {
		for u := range r.occupants {
			delete(m.userRoom, u)
		}
		delete(m.rooms, roomID)
	}
}
