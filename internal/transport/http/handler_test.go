package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwrk-planet/voice-service/internal/domain"
	"github.com/cwrk-planet/voice-service/internal/platform"
	"github.com/cwrk-planet/voice-service/internal/service"
	"github.com/cwrk-planet/voice-service/internal/store"
)

func testRouter(t *testing.T) (http.Handler, *service.LifecycleService, *platform.Memory) {
	t.Helper()

	st, err := store.NewFileStore(filepath.Join(t.TempDir(), "state.json"))
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	pc := platform.NewMemory()
	sched := service.NewCleanupScheduler()
	t.Cleanup(sched.Stop)

	svc := service.NewLifecycleService(service.Settings{
		Zones: map[string]domain.ZoneConfig{
			"hub": {ID: "hub", Kind: domain.ZoneShared, NameTemplate: "Room {index}"},
		},
		Keepalive:     time.Minute,
		OwnershipLock: 10 * time.Minute,
	}, st, pc, sched)

	return NewRouter(NewHandler(svc), nil), svc, pc
}

func doReq(t *testing.T, router http.Handler, method, path, actor string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if actor != "" {
		req.Header.Set("Authorization", "Bearer test-token")
		req.Header.Set("X-User-ID", actor)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createRoom(t *testing.T, svc *service.LifecycleService, pc *platform.Memory, owner string) string {
	t.Helper()
	if err := svc.HandleVoiceState(context.Background(), owner, "", "hub"); err != nil {
		t.Fatalf("zone entry: %v", err)
	}
	roomID := pc.UserRoom(owner)
	if roomID == "" {
		t.Fatal("owner not placed into a room")
	}
	return roomID
}

func TestHTTP_RequiresAuth(t *testing.T) {
	router, _, _ := testRouter(t)

	rec := doReq(t, router, http.MethodGet, "/voice/rooms", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want 401, got %d", rec.Code)
	}
}

func TestHTTP_RenameByOwner(t *testing.T) {
	router, svc, pc := testRouter(t)
	roomID := createRoom(t, svc, pc, "u1")

	rec := doReq(t, router, http.MethodPost, "/voice/rooms/"+roomID+"/rename", "u1", RenameRequest{Name: "cueva"})
	if rec.Code != http.StatusOK {
		t.Fatalf("want 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if pc.RoomName(roomID) != "cueva" {
		t.Fatalf("rename not applied: %q", pc.RoomName(roomID))
	}
}

func TestHTTP_RenameByStrangerForbidden(t *testing.T) {
	router, svc, pc := testRouter(t)
	roomID := createRoom(t, svc, pc, "u1")

	rec := doReq(t, router, http.MethodPost, "/voice/rooms/"+roomID+"/rename", "stranger", RenameRequest{Name: "x"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("want 403, got %d", rec.Code)
	}
}

func TestHTTP_UntrackedRoom404(t *testing.T) {
	router, _, _ := testRouter(t)

	rec := doReq(t, router, http.MethodPost, "/voice/rooms/ghost/rename", "u1", RenameRequest{Name: "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", rec.Code)
	}
}

func TestHTTP_ClaimLocked(t *testing.T) {
	router, svc, pc := testRouter(t)
	roomID := createRoom(t, svc, pc, "u1")

	ctx := context.Background()
	if err := pc.MoveUser(ctx, "u2", roomID); err != nil {
		t.Fatalf("move u2: %v", err)
	}
	// владелец вышел только что — candado ещё действует
	if err := pc.MoveUser(ctx, "u1", ""); err != nil {
		t.Fatalf("move u1 out: %v", err)
	}
	if err := svc.HandleVoiceState(ctx, "u1", roomID, ""); err != nil {
		t.Fatalf("departure: %v", err)
	}

	rec := doReq(t, router, http.MethodPost, "/voice/rooms/"+roomID+"/claim", "u2", nil)
	if rec.Code != http.StatusLocked {
		t.Fatalf("want 423, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHTTP_OwnerAndList(t *testing.T) {
	router, svc, pc := testRouter(t)
	roomID := createRoom(t, svc, pc, "u1")
	pc.PutMember(platform.Member{UserID: "mod", CanManage: true})

	rec := doReq(t, router, http.MethodGet, "/voice/rooms/"+roomID+"/owner", "u2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("owner: want 200, got %d", rec.Code)
	}
	var owner OwnerResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &owner); err != nil {
		t.Fatalf("decode owner: %v", err)
	}
	if owner.OwnerID != "u1" {
		t.Fatalf("owner: want u1, got %q", owner.OwnerID)
	}

	rec = doReq(t, router, http.MethodGet, "/voice/rooms", "mod", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: want 200, got %d", rec.Code)
	}
	var list RoomsListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].RoomID != roomID {
		t.Fatalf("list mismatch: %+v", list.Items)
	}

	// не-модератору список запрещён
	rec = doReq(t, router, http.MethodGet, "/voice/rooms", "u2", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("list by non-mod: want 403, got %d", rec.Code)
	}
}

func TestHTTP_CleanByMod(t *testing.T) {
	router, svc, pc := testRouter(t)
	roomID := createRoom(t, svc, pc, "u1")
	pc.PutMember(platform.Member{UserID: "mod", CanManage: true})

	if err := pc.MoveUser(context.Background(), "u1", ""); err != nil {
		t.Fatalf("move out: %v", err)
	}

	rec := doReq(t, router, http.MethodPost, "/voice/clean", "mod", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clean: want 200, got %d", rec.Code)
	}
	var resp CleanResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Deleted != 1 {
		t.Fatalf("deleted: want 1, got %d", resp.Deleted)
	}
	if exists, _ := pc.RoomExists(context.Background(), roomID); exists {
		t.Fatal("room must be gone after clean")
	}
}
