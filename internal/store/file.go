package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwrk-planet/voice-service/internal/domain"
)

// FileStore — JSON-документ на диске, целиком переписывается на каждую
// мутацию (временный файл + rename). Набор живых комнат мал, поэтому
// полная перезапись дешевле инкрементальности.
type FileStore struct {
	mu    sync.Mutex
	path  string
	rooms map[string]domain.RoomRecord
}

type fileDoc struct {
	Rooms map[string]fileRecord `json:"rooms"`
}

type fileRecord struct {
	ZoneID      string  `json:"zoneId"`
	OwnerID     *string `json:"ownerId"`
	IsPersonal  bool    `json:"isPersonal"`
	CreatedAt   string  `json:"createdAt"`
	OwnerLeftAt *string `json:"ownerLeftAt,omitempty"`
}

// NewFileStore — загрузка состояния с диска. Отсутствующий или битый файл
// не фатален: стартуем пустыми, кривые записи пропускаем.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{path: path, rooms: make(map[string]domain.RoomRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("state file unreadable, starting empty", "path", path, "err", err)
		}
		return s, nil
	}

	var doc fileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		slog.Warn("state file corrupt, starting empty", "path", path, "err", err)
		return s, nil
	}

	for id, fr := range doc.Rooms {
		rec, err := fr.toDomain(id)
		if err != nil {
			slog.Warn("skipping malformed state entry", "room", id, "err", err)
			continue
		}
		s.rooms[id] = rec
	}
	return s, nil
}

func (fr fileRecord) toDomain(roomID string) (domain.RoomRecord, error) {
	if fr.ZoneID == "" {
		return domain.RoomRecord{}, fmt.Errorf("missing zoneId")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, fr.CreatedAt)
	if err != nil {
		return domain.RoomRecord{}, fmt.Errorf("createdAt: %w", err)
	}
	rec := domain.RoomRecord{
		RoomID:     roomID,
		ZoneID:     fr.ZoneID,
		IsPersonal: fr.IsPersonal,
		CreatedAt:  createdAt,
	}
	if fr.OwnerID != nil {
		rec.OwnerID = *fr.OwnerID
	}
	if fr.OwnerLeftAt != nil {
		left, err := time.Parse(time.RFC3339Nano, *fr.OwnerLeftAt)
		if err != nil {
			return domain.RoomRecord{}, fmt.Errorf("ownerLeftAt: %w", err)
		}
		rec.OwnerLeftAt = &left
	}
	return rec, nil
}

func toFileRecord(rec domain.RoomRecord) fileRecord {
	fr := fileRecord{
		ZoneID:     rec.ZoneID,
		IsPersonal: rec.IsPersonal,
		CreatedAt:  rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if rec.OwnerID != "" {
		owner := rec.OwnerID
		fr.OwnerID = &owner
	}
	if rec.OwnerLeftAt != nil {
		left := rec.OwnerLeftAt.UTC().Format(time.RFC3339Nano)
		fr.OwnerLeftAt = &left
	}
	return fr
}

// flush держится под mu вызывающего.
func (s *FileStore) flush() error {
	doc := fileDoc{Rooms: make(map[string]fileRecord, len(s.rooms))}
	for id, rec := range s.rooms {
		doc.Rooms[id] = toFileRecord(rec)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir state dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (s *FileStore) Get(_ context.Context, roomID string) (*domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.rooms[roomID]
	if !ok {
		return nil, domain.ErrNotTracked
	}
	out := rec
	return &out, nil
}

func (s *FileStore) Put(_ context.Context, rec *domain.RoomRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rooms[rec.RoomID] = *rec
	return s.flush()
}

func (s *FileStore) Remove(_ context.Context, roomID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms[roomID]; !ok {
		return nil
	}
	delete(s.rooms, roomID)
	return s.flush()
}

func (s *FileStore) ListByZone(_ context.Context, zoneID string) ([]domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.RoomRecord
	for _, rec := range s.rooms {
		if rec.ZoneID == zoneID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *FileStore) ListAll(_ context.Context) ([]domain.RoomRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.RoomRecord, 0, len(s.rooms))
	for _, rec := range s.rooms {
		out = append(out, rec)
	}
	return out, nil
}
