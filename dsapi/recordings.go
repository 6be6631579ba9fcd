package dsapi

import "context"

// Recording is a stored room recording.
type Recording struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	RoomID      string `json:"room_id,omitempty"`
	SessionID   string `json:"session_id,omitempty"`
	Status      string `json:"status,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	ParticipantName string `json:"participant_name,omitempty"`
}

// RecordingDownloadLink is a short-lived URL for fetching a recording.
type RecordingDownloadLink struct {
	Link      string `json:"link"`
	ValidUntil string `json:"valid_until,omitempty"`
}

// ListRecordings returns the team's recordings.
func (c *Client) ListRecordings(ctx context.Context, token string, opts ListOptions) ([]Recording, error) {
	var env listEnvelope[Recording]
	if err := c.get(ctx, token, "/recordings", opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// GetRecording returns a single recording by ID.
func (c *Client) GetRecording(ctx context.Context, token, recordingID string) (*Recording, error) {
	var rec Recording
	if err := c.get(ctx, token, "/recordings/"+recordingID, nil, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRecording removes a recording.
func (c *Client) DeleteRecording(ctx context.Context, token, recordingID string) error {
	return c.delete(ctx, token, "/recordings/"+recordingID)
}

// GetRecordingDownloadLink returns a time-limited download URL.
func (c *Client) GetRecordingDownloadLink(ctx context.Context, token, recordingID string) (*RecordingDownloadLink, error) {
	var link RecordingDownloadLink
	if err := c.get(ctx, token, "/recordings/"+recordingID+"/download", nil, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// StartRecording begins recording a live room.
func (c *Client) StartRecording(ctx context.Context, token, roomID string) error {
	return c.post(ctx, token, roomPath(roomID, "/recordings/start"), nil, nil)
}

// StopRecording stops recording a live room.
func (c *Client) StopRecording(ctx context.Context, token, roomID string) error {
	return c.post(ctx, token, roomPath(roomID, "/recordings/stop"), nil, nil)
}
