package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cwrk-planet/voice-service/internal/domain"
	"github.com/cwrk-planet/voice-service/internal/ownership"
	"github.com/cwrk-planet/voice-service/internal/platform"
	"github.com/cwrk-planet/voice-service/internal/store"
)

// Settings — статическая конфигурация жизненного цикла. Передаётся в
// конструктор явно, а не читается из окружения: тестам нужна произвольная
// топология зон.
type Settings struct {
	Zones         map[string]domain.ZoneConfig
	Keepalive     time.Duration // сколько пустая комната живёт до удаления
	OwnershipLock time.Duration // candado после ухода владельца
	BoosterRole   string        // роль-исключение для персональных комнат
}

// LifecycleService — оркестратор: события присутствия и ролей на входе,
// команды платформе и мутации стора на выходе.
type LifecycleService struct {
	settings Settings
	store    store.Store
	platform platform.Client
	sched    *CleanupScheduler
	index    *IndexAllocator

	now func() time.Time

	mu sync.Mutex // сериализация обработчиков ухода/прихода

	userMu    sync.Mutex
	userLocks map[string]*sync.Mutex // защита от двух персональных комнат подряд
}

func NewLifecycleService(settings Settings, st store.Store, pc platform.Client, sched *CleanupScheduler) *LifecycleService {
	return &LifecycleService{
		settings:  settings,
		store:     st,
		platform:  pc,
		sched:     sched,
		index:     NewIndexAllocator(st, pc),
		now:       time.Now,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// SetNow — подмена часов в тестах.
func (s *LifecycleService) SetNow(now func() time.Time) { s.now = now }

// HandleVoiceState — одно voice-событие платформы: пользователь переместился
// из from в to (любое из них может быть пустым).
func (s *LifecycleService) HandleVoiceState(ctx context.Context, userID, from, to string) error {
	// join-to-create
	if zone, ok := s.settings.Zones[to]; ok {
		if err := s.handleZoneEntry(ctx, userID, zone); err != nil {
			return err
		}
	}

	if from != "" {
		s.handleDeparture(ctx, userID, from)
	}
	if to != "" {
		s.handleArrival(ctx, to)
	}
	return nil
}

func (s *LifecycleService) handleZoneEntry(ctx context.Context, userID string, zone domain.ZoneConfig) error {
	if zone.Kind != domain.ZonePersonal {
		return s.createRoom(ctx, userID, zone)
	}

	// персональные: одна комната на владельца, создание сериализуем
	// по пользователю — два быстрых входа не должны дать две комнаты
	lock := s.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	recs, err := s.store.ListByZone(ctx, zone.ID)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.OwnerID != userID {
			continue
		}
		exists, err := s.platform.RoomExists(ctx, rec.RoomID)
		if err != nil {
			return err
		}
		if !exists {
			if err := s.store.Remove(ctx, rec.RoomID); err != nil {
				slog.Warn("prune stale personal record failed", "room", rec.RoomID, "err", err)
			}
			continue
		}
		// комната уже есть — просто переносим
		if err := s.platform.MoveUser(ctx, userID, rec.RoomID); err != nil {
			slog.Warn("move to personal room failed", "user", userID, "room", rec.RoomID, "err", err)
		}
		return nil
	}

	return s.createRoom(ctx, userID, zone)
}

func (s *LifecycleService) createRoom(ctx context.Context, userID string, zone domain.ZoneConfig) error {
	idx := 1
	if zone.Kind == domain.ZoneShared {
		n, err := s.index.NextIndex(ctx, zone.ID)
		if err != nil {
			return err
		}
		idx = n
	}

	username := userID
	if member, err := s.platform.GetMember(ctx, userID); err == nil && member.DisplayName != "" {
		username = member.DisplayName
	}
	name := renderName(zone.NameTemplate, idx, username)

	roomID, err := s.platform.CreateRoom(ctx, zone.ID, name, zone.DefaultCapacity)
	if err != nil {
		// без записи в стор: комнаты нет, чинить нечего
		if errors.Is(err, domain.ErrPermissionDenied) {
			slog.Warn("room creation denied", "zone", zone.ID, "user", userID)
		}
		return err
	}

	if err := s.platform.MoveUser(ctx, userID, roomID); err != nil {
		// комната уже существует, запись всё равно нужна
		slog.Warn("move into new room failed", "user", userID, "room", roomID, "err", err)
	}

	rec := domain.RoomRecord{
		RoomID:     roomID,
		ZoneID:     zone.ID,
		OwnerID:    userID,
		IsPersonal: zone.Kind == domain.ZonePersonal,
		CreatedAt:  s.now(),
	}
	if err := s.store.Put(ctx, &rec); err != nil {
		slog.Error("persist room record failed", "room", roomID, "err", err)
	}

	slog.Info("room created", "room", roomID, "zone", zone.ID, "owner", userID, "name", name)
	return nil
}

func (s *LifecycleService) handleDeparture(ctx context.Context, userID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.store.Get(ctx, roomID)
	if err != nil {
		return // не наша комната
	}

	if rec.OwnerID == userID {
		next := ownership.OnOwnerDeparture(*rec, s.now())
		if next.OwnerID != rec.OwnerID {
			if err := s.store.Put(ctx, &next); err != nil {
				slog.Error("persist owner departure failed", "room", roomID, "err", err)
			}
		}
		rec = &next
	}

	occ, err := s.platform.CurrentOccupants(ctx, roomID)
	if err != nil {
		slog.Warn("occupants query failed", "room", roomID, "err", err)
		return
	}
	if len(occ) > 0 {
		return
	}

	if s.exempt(ctx, rec) {
		return
	}
	s.scheduleCleanup(roomID)
}

func (s *LifecycleService) handleArrival(ctx context.Context, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Get(ctx, roomID); err != nil {
		return
	}
	// в комнате снова кто-то есть — отложенное удаление снимается
	s.sched.Cancel(roomID)
}

// exempt: персональная комната, владелец держит роль-исключение.
func (s *LifecycleService) exempt(ctx context.Context, rec *domain.RoomRecord) bool {
	if !rec.IsPersonal || s.settings.BoosterRole == "" || !rec.Owned() {
		return false
	}
	member, err := s.platform.GetMember(ctx, rec.OwnerID)
	if err != nil {
		return false
	}
	return member.HasRole(s.settings.BoosterRole)
}

func (s *LifecycleService) scheduleCleanup(roomID string) {
	delay := s.settings.Keepalive
	s.sched.Schedule(roomID, delay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		s.finishCleanup(ctx, roomID)
	})
	slog.Debug("cleanup scheduled", "room", roomID, "delay", delay)
}

// finishCleanup — сработал таймер. Перепроверяем пустоту: за keepalive
// кто-то мог вернуться, а гонку отмены закрывает именно эта проверка.
func (s *LifecycleService) finishCleanup(ctx context.Context, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	occ, err := s.platform.CurrentOccupants(ctx, roomID)
	if err != nil {
		slog.Warn("cleanup occupants query failed", "room", roomID, "err", err)
		return
	}
	if len(occ) > 0 {
		return
	}
	s.deleteRoom(ctx, roomID)
}

// deleteRoom — сначала команда платформе, потом запись из стора:
// нельзя потерять запись про комнату, которую не удалось удалить.
func (s *LifecycleService) deleteRoom(ctx context.Context, roomID string) error {
	if err := s.platform.DeleteRoom(ctx, roomID); err != nil && !errors.Is(err, domain.ErrNotTracked) {
		slog.Warn("room delete failed", "room", roomID, "err", err)
		return err
	}
	if err := s.store.Remove(ctx, roomID); err != nil {
		slog.Error("remove room record failed", "room", roomID, "err", err)
	}
	slog.Info("room deleted", "room", roomID)
	return nil
}

// HandleRoleChange — интересует только потеря роли-исключения: пустые
// персональные комнаты владельца удаляются сразу, без keepalive.
func (s *LifecycleService) HandleRoleChange(ctx context.Context, userID, roleID string, gained bool) error {
	if gained || s.settings.BoosterRole == "" || roleID != s.settings.BoosterRole {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if !rec.IsPersonal || rec.OwnerID != userID {
			continue
		}
		occ, err := s.platform.CurrentOccupants(ctx, rec.RoomID)
		if err != nil {
			slog.Warn("occupants query failed", "room", rec.RoomID, "err", err)
			continue
		}
		if len(occ) > 0 {
			continue
		}
		s.sched.Cancel(rec.RoomID)
		s.deleteRoom(ctx, rec.RoomID)
	}
	return nil
}

// Reconcile — самовосстановление после рестарта: чистим записи про
// исчезнувшие комнаты, для уже пустых заводим таймеры.
func (s *LifecycleService) Reconcile(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs, err := s.store.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range recs {
		exists, err := s.platform.RoomExists(ctx, rec.RoomID)
		if err != nil {
			slog.Warn("reconcile exists query failed", "room", rec.RoomID, "err", err)
			continue
		}
		if !exists {
			s.sched.Cancel(rec.RoomID)
			if err := s.store.Remove(ctx, rec.RoomID); err != nil {
				slog.Error("reconcile prune failed", "room", rec.RoomID, "err", err)
			}
			continue
		}

		occ, err := s.platform.CurrentOccupants(ctx, rec.RoomID)
		if err != nil {
			continue
		}
		if len(occ) == 0 && !s.exempt(ctx, &rec) {
			s.scheduleCleanup(rec.RoomID)
		}
	}
	return nil
}

func (s *LifecycleService) userLock(userID string) *sync.Mutex {
	s.userMu.Lock()
	defer s.userMu.Unlock()

	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

func renderName(tpl string, index int, username string) string {
	out := strings.ReplaceAll(tpl, "{index}", strconv.Itoa(index))
	return strings.ReplaceAll(out, "{username}", username)
}
