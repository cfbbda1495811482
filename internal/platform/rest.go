package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/cwrk-planet/voice-service/internal/domain"

	"github.com/google/uuid"
)

// RESTClient — клиент командного API платформы-адаптера.
type RESTClient struct {
	base  string
	token string
	http  *http.Client
}

func NewRESTClient(base, token string) *RESTClient {
	return &RESTClient{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 10 * time.Second},
	}
}

type createRoomRequest struct {
	ZoneID   string `json:"zone_id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

type createRoomResponse struct {
	RoomID string `json:"room_id"`
}

func (c *RESTClient) CreateRoom(ctx context.Context, zoneID, name string, capacity int) (string, error) {
	var resp createRoomResponse
	err := c.do(ctx, http.MethodPost, "/guild/rooms", createRoomRequest{
		ZoneID:   zoneID,
		Name:     name,
		Capacity: capacity,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("platform.CreateRoom: %w", err)
	}
	return resp.RoomID, nil
}

type moveUserRequest struct {
	RoomID string `json:"room_id"`
}

func (c *RESTClient) MoveUser(ctx context.Context, userID, roomID string) error {
	path := "/guild/members/" + url.PathEscape(userID) + "/move"
	if err := c.do(ctx, http.MethodPost, path, moveUserRequest{RoomID: roomID}, nil); err != nil {
		return fmt.Errorf("platform.MoveUser: %w", err)
	}
	return nil
}

func (c *RESTClient) DeleteRoom(ctx context.Context, roomID string) error {
	path := "/guild/rooms/" + url.PathEscape(roomID)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("platform.DeleteRoom: %w", err)
	}
	return nil
}

func (c *RESTClient) EditRoom(ctx context.Context, roomID string, edit Edit) error {
	path := "/guild/rooms/" + url.PathEscape(roomID)
	if err := c.do(ctx, http.MethodPatch, path, edit, nil); err != nil {
		return fmt.Errorf("platform.EditRoom: %w", err)
	}
	return nil
}

type occupantsResponse struct {
	UserIDs []string `json:"user_ids"`
}

func (c *RESTClient) CurrentOccupants(ctx context.Context, roomID string) ([]string, error) {
	var resp occupantsResponse
	path := "/guild/rooms/" + url.PathEscape(roomID) + "/occupants"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if err == domain.ErrNotTracked {
			return nil, nil
		}
		return nil, fmt.Errorf("platform.CurrentOccupants: %w", err)
	}
	return resp.UserIDs, nil
}

func (c *RESTClient) RoomExists(ctx context.Context, roomID string) (bool, error) {
	path := "/guild/rooms/" + url.PathEscape(roomID)
	err := c.do(ctx, http.MethodGet, path, nil, nil)
	switch err {
	case nil:
		return true, nil
	case domain.ErrNotTracked:
		return false, nil
	default:
		return false, fmt.Errorf("platform.RoomExists: %w", err)
	}
}

func (c *RESTClient) GetMember(ctx context.Context, userID string) (*Member, error) {
	var m Member
	path := "/guild/members/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &m); err != nil {
		return nil, fmt.Errorf("platform.GetMember: %w", err)
	}
	return &m, nil
}

// do — один HTTP-вызов: Bearer, X-Request-ID, маппинг статусов в доменные
// ошибки (403 → ErrPermissionDenied, 404 → ErrNotTracked).
func (c *RESTClient) do(ctx context.Context, method, path string, in, out any) error {
	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return domain.ErrPermissionDenied
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotTracked
	case resp.StatusCode >= 400:
		return fmt.Errorf("platform status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
