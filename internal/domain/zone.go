package domain

type ZoneKind string

const (
	ZoneShared   ZoneKind = "shared"   // нумерованные общие комнаты ("Room 3")
	ZonePersonal ZoneKind = "personal" // одна комната на пользователя, переживает его отсутствие
)

// ZoneConfig — статическое описание зоны-триггера (hub-канала).
type ZoneConfig struct {
	ID              string
	Kind            ZoneKind
	NameTemplate    string // плейсхолдеры {index} и {username}
	DefaultCapacity int    // 0 = без лимита
}
