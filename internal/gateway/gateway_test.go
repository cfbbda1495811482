package gateway

import (
	"context"
	"testing"
)

type recordedEvent struct {
	kind   string
	userID string
	a, b   string
	gained bool
}

type recordingHandler struct {
	events []recordedEvent
}

func (h *recordingHandler) HandleVoiceState(_ context.Context, userID, from, to string) error {
	h.events = append(h.events, recordedEvent{kind: "voice", userID: userID, a: from, b: to})
	return nil
}

func (h *recordingHandler) HandleRoleChange(_ context.Context, userID, roleID string, gained bool) error {
	h.events = append(h.events, recordedEvent{kind: "role", userID: userID, a: roleID, gained: gained})
	return nil
}

func TestDispatch_VoiceState(t *testing.T) {
	h := &recordingHandler{}
	c := NewClient("ws://unused", "", h)

	raw := `{"type":"voice_state","payload":{"user_id":"u1","from_room_id":"r1","to_room_id":"r2"}}`
	c.dispatch(context.Background(), []byte(raw))

	if len(h.events) != 1 {
		t.Fatalf("want 1 event, got %d", len(h.events))
	}
	ev := h.events[0]
	if ev.kind != "voice" || ev.userID != "u1" || ev.a != "r1" || ev.b != "r2" {
		t.Fatalf("event mismatch: %+v", ev)
	}
}

func TestDispatch_RoleChange(t *testing.T) {
	h := &recordingHandler{}
	c := NewClient("ws://unused", "", h)

	raw := `{"type":"role_change","payload":{"user_id":"u1","role_id":"role-booster","gained":false}}`
	c.dispatch(context.Background(), []byte(raw))

	if len(h.events) != 1 {
		t.Fatalf("want 1 event, got %d", len(h.events))
	}
	ev := h.events[0]
	if ev.kind != "role" || ev.a != "role-booster" || ev.gained {
		t.Fatalf("event mismatch: %+v", ev)
	}
}

func TestDispatch_IgnoresGarbage(t *testing.T) {
	h := &recordingHandler{}
	c := NewClient("ws://unused", "", h)

	for _, raw := range []string{
		`not json`,
		`{"type":"unknown","payload":{}}`,
		`{"type":"voice_state","payload":{"from_room_id":"r1"}}`, // нет user_id
		`{"type":"role_change","payload":"nope"}`,
	} {
		c.dispatch(context.Background(), []byte(raw))
	}

	if len(h.events) != 0 {
		t.Fatalf("garbage frames must be dropped, got %d events", len(h.events))
	}
}
