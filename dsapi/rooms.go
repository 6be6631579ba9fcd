package dsapi

import (
	"context"
	"fmt"
)

// Room is a Digital Samba room.
type Room struct {
	ID              string `json:"id"`
	FriendlyURL     string `json:"friendly_url,omitempty"`
	Description     string `json:"description,omitempty"`
	Privacy         string `json:"privacy,omitempty"`
	MaxParticipants int    `json:"max_participants,omitempty"`
	RoomURL         string `json:"room_url,omitempty"`
	CreatedAt       string `json:"created_at,omitempty"`
	UpdatedAt       string `json:"updated_at,omitempty"`
}

// RoomSettings carries the mutable room properties for create/update calls.
// Pointer fields distinguish "unset" from zero values on PATCH.
type RoomSettings struct {
	FriendlyURL     string `json:"friendly_url,omitempty"`
	Description     string `json:"description,omitempty"`
	Privacy         string `json:"privacy,omitempty"`
	MaxParticipants *int   `json:"max_participants,omitempty"`
	Language        string `json:"language,omitempty"`
	TopBarEnabled   *bool  `json:"topbar_enabled,omitempty"`
	ChatEnabled     *bool  `json:"chat_enabled,omitempty"`
	RecordingsEnabled *bool `json:"recordings_enabled,omitempty"`
}

// ListRooms returns the team's rooms.
func (c *Client) ListRooms(ctx context.Context, token string, opts ListOptions) ([]Room, error) {
	var env listEnvelope[Room]
	if err := c.get(ctx, token, "/rooms", opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetRoom returns a single room by ID.
func (c *Client) GetRoom(ctx context.Context, token, roomID string) (*Room, error) {
	var room Room
	if err := c.get(ctx, token, "/rooms/"+roomID, nil, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// CreateRoom creates a room with the given settings.
func (c *Client) CreateRoom(ctx context.Context, token string, settings RoomSettings) (*Room, error) {
	var room Room
	if err := c.post(ctx, token, "/rooms", settings, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// UpdateRoom patches room settings.
func (c *Client) UpdateRoom(ctx context.Context, token, roomID string, settings RoomSettings) (*Room, error) {
	var room Room
	if err := c.patch(ctx, token, "/rooms/"+roomID, settings, &room); err != nil {
		return nil, err
	}
	return &room, nil
}

// DeleteRoom removes a room.
func (c *Client) DeleteRoom(ctx context.Context, token, roomID string) error {
	return c.delete(ctx, token, "/rooms/"+roomID)
}

// GetDefaultRoomSettings returns the team-level room defaults.
func (c *Client) GetDefaultRoomSettings(ctx context.Context, token string) (map[string]any, error) {
	var settings map[string]any
	if err := c.get(ctx, token, "/settings", nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// UpdateDefaultRoomSettings patches the team-level room defaults.
func (c *Client) UpdateDefaultRoomSettings(ctx context.Context, token string, settings map[string]any) (map[string]any, error) {
	var updated map[string]any
	if err := c.patch(ctx, token, "/settings", settings, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func roomPath(roomID, suffix string) string {
	return fmt.Sprintf("/rooms/%s%s", roomID, suffix)
}
