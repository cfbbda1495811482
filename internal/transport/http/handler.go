package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/cwrk-planet/voice-service/internal/domain"
	"github.com/cwrk-planet/voice-service/internal/service"
	httpmw "github.com/cwrk-planet/voice-service/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	voiceSvc *service.LifecycleService
}

func NewHandler(voice *service.LifecycleService) *Handler {
	return &Handler{voiceSvc: voice}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// единый маппинг доменных ошибок на статусы
func writeErr(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrNotTracked):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room is not tracked"})
	case errors.Is(err, domain.ErrNotOwner):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: "only the owner or a moderator may do this"})
	case errors.Is(err, domain.ErrClaimLocked):
		writeJSON(w, http.StatusLocked, ErrorResponse{Error: "claim lock window has not elapsed"})
	case errors.Is(err, domain.ErrAlreadyOwned):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "room already has an owner"})
	case errors.Is(err, domain.ErrNotInRoom):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "user not in the room"})
	case errors.Is(err, domain.ErrPermissionDenied):
		writeJSON(w, http.StatusBadGateway, ErrorResponse{Error: "platform rejected the command"})
	default:
		slog.Error("handler."+op+":", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

func actorAndRoom(r *http.Request) (string, string) {
	return httpmw.UserIDFromCtx(r.Context()), chi.URLParam(r, "id")
}

// POST /voice/rooms/{id}/rename
func (h *Handler) Rename(w http.ResponseWriter, r *http.Request) {
	actor, roomID := actorAndRoom(r)
	var req RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "name is required"})
		return
	}
	if err := h.voiceSvc.Rename(r.Context(), actor, roomID, req.Name); err != nil {
		writeErr(w, "Rename", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "renamed"})
}

// POST /voice/rooms/{id}/limit
func (h *Handler) SetLimit(w http.ResponseWriter, r *http.Request) {
	actor, roomID := actorAndRoom(r)
	var req LimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Limit < 0 || req.Limit > 99 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be 0..99"})
		return
	}
	if err := h.voiceSvc.SetLimit(r.Context(), actor, roomID, req.Limit); err != nil {
		writeErr(w, "SetLimit", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "limited"})
}

// POST /voice/rooms/{id}/lock | unlock | hide | reveal
func (h *Handler) edit(op string, fn func(r *http.Request, actor, roomID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, roomID := actorAndRoom(r)
		if err := fn(r, actor, roomID); err != nil {
			writeErr(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": op})
	}
}

func (h *Handler) Lock() http.HandlerFunc {
	return h.edit("lock", func(r *http.Request, actor, roomID string) error {
		return h.voiceSvc.LockRoom(r.Context(), actor, roomID)
	})
}

func (h *Handler) Unlock() http.HandlerFunc {
	return h.edit("unlock", func(r *http.Request, actor, roomID string) error {
		return h.voiceSvc.UnlockRoom(r.Context(), actor, roomID)
	})
}

func (h *Handler) Hide() http.HandlerFunc {
	return h.edit("hide", func(r *http.Request, actor, roomID string) error {
		return h.voiceSvc.HideRoom(r.Context(), actor, roomID)
	})
}

func (h *Handler) Reveal() http.HandlerFunc {
	return h.edit("reveal", func(r *http.Request, actor, roomID string) error {
		return h.voiceSvc.RevealRoom(r.Context(), actor, roomID)
	})
}

func (h *Handler) target(op string, fn func(r *http.Request, actor, roomID, target string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, roomID := actorAndRoom(r)
		var req TargetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
			return
		}
		if err := fn(r, actor, roomID, req.UserID); err != nil {
			writeErr(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": op})
	}
}

func (h *Handler) Kick() http.HandlerFunc {
	return h.target("kick", func(r *http.Request, actor, roomID, target string) error {
		return h.voiceSvc.Kick(r.Context(), actor, roomID, target)
	})
}

func (h *Handler) Ban() http.HandlerFunc {
	return h.target("ban", func(r *http.Request, actor, roomID, target string) error {
		return h.voiceSvc.Ban(r.Context(), actor, roomID, target)
	})
}

func (h *Handler) Unban() http.HandlerFunc {
	return h.target("unban", func(r *http.Request, actor, roomID, target string) error {
		return h.voiceSvc.Unban(r.Context(), actor, roomID, target)
	})
}

func (h *Handler) Transfer() http.HandlerFunc {
	return h.target("transfer", func(r *http.Request, actor, roomID, target string) error {
		return h.voiceSvc.Transfer(r.Context(), actor, roomID, target)
	})
}

// GET /voice/rooms/{id}/owner
func (h *Handler) Owner(w http.ResponseWriter, r *http.Request) {
	_, roomID := actorAndRoom(r)
	owner, err := h.voiceSvc.Owner(r.Context(), roomID)
	if err != nil {
		writeErr(w, "Owner", err)
		return
	}
	writeJSON(w, http.StatusOK, OwnerResponse{RoomID: roomID, OwnerID: owner})
}

// POST /voice/rooms/{id}/claim
func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) {
	actor, roomID := actorAndRoom(r)
	if err := h.voiceSvc.Claim(r.Context(), actor, roomID); err != nil {
		writeErr(w, "Claim", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "claimed"})
}

// POST /voice/clean
func (h *Handler) Clean(w http.ResponseWriter, r *http.Request) {
	actor := httpmw.UserIDFromCtx(r.Context())
	n, err := h.voiceSvc.Clean(r.Context(), actor)
	if err != nil {
		writeErr(w, "Clean", err)
		return
	}
	writeJSON(w, http.StatusOK, CleanResponse{Deleted: n})
}

// GET /voice/rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	actor := httpmw.UserIDFromCtx(r.Context())
	recs, err := h.voiceSvc.ListRooms(r.Context(), actor)
	if err != nil {
		writeErr(w, "ListRooms", err)
		return
	}
	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(recs))}
	for _, rec := range recs {
		resp.Items = append(resp.Items, RoomItem{
			RoomID:      rec.RoomID,
			ZoneID:      rec.ZoneID,
			OwnerID:     rec.OwnerID,
			IsPersonal:  rec.IsPersonal,
			CreatedAt:   rec.CreatedAt,
			OwnerLeftAt: rec.OwnerLeftAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
