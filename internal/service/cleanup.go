package service

import (
	"sync"
	"time"
)

// CleanupScheduler — не больше одного отложенного удаления на комнату.
// Schedule перекрывает предыдущий таймер, Cancel идемпотентен.
// Карта таймеров принадлежит только планировщику.
type CleanupScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

func NewCleanupScheduler() *CleanupScheduler {
	return &CleanupScheduler{timers: make(map[string]*time.Timer)}
}

// Schedule — через delay вызвать onFire, если до этого не отменили.
// onFire обязан сам перепроверить, что комната всё ещё пуста: отмена
// после срабатывания уже ничего не останавливает.
func (s *CleanupScheduler) Schedule(roomID string, delay time.Duration, onFire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[roomID]; ok {
		t.Stop()
	}
	s.timers[roomID] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, roomID)
		s.mu.Unlock()
		onFire()
	})
}

func (s *CleanupScheduler) Cancel(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t, ok := s.timers[roomID]; ok {
		t.Stop()
		delete(s.timers, roomID)
	}
}

// Pending — есть ли живой таймер (для тестов и /health).
func (s *CleanupScheduler) Pending(roomID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[roomID]
	return ok
}

// Stop — остановить всё при выключении сервиса.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}
