package dsapi

import "context"

// LiveSession is a currently-running or past room session.
type LiveSession struct {
	ID               string `json:"id"`
	RoomID           string `json:"room_id,omitempty"`
	Live             bool   `json:"live,omitempty"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	ParticipantCount int    `json:"live_participants,omitempty"`
}

// Participant is one attendee of a session.
type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role,omitempty"`
	ExternalID string `json:"external_id,omitempty"`
	JoinTime   string `json:"join_time,omitempty"`
	LeaveTime  string `json:"leave_time,omitempty"`
	Live       bool   `json:"live,omitempty"`
}

// ListSessions returns the team's sessions, live and historical.
func (c *Client) ListSessions(ctx context.Context, token string, opts ListOptions) ([]LiveSession, error) {
	var env listEnvelope[LiveSession]
	if err := c.get(ctx, token, "/sessions", opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListRoomSessions returns the sessions of one room.
func (c *Client) ListRoomSessions(ctx context.Context, token, roomID string, opts ListOptions) ([]LiveSession, error) {
	var env listEnvelope[LiveSession]
	if err := c.get(ctx, token, roomPath(roomID, "/sessions"), opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// ListSessionParticipants returns the attendees of a session.
func (c *Client) ListSessionParticipants(ctx context.Context, token, sessionID string, opts ListOptions) ([]Participant, error) {
	var env listEnvelope[Participant]
	if err := c.get(ctx, token, "/sessions/"+sessionID+"/participants", opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// EndSession forcibly ends a live session.
func (c *Client) EndSession(ctx context.Context, token, sessionID string) error {
	return c.post(ctx, token, "/sessions/"+sessionID+"/end", nil, nil)
}
