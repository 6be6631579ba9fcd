package dsapi

import "context"

// PollOption is one answer choice.
type PollOption struct {
	ID   string `json:"id,omitempty"`
	Text string `json:"text"`
}

// Poll is a room poll.
type Poll struct {
	ID             string       `json:"id"`
	Question       string       `json:"question"`
	Status         string       `json:"status,omitempty"`
	MultipleChoice bool         `json:"multiple,omitempty"`
	Anonymous      bool         `json:"anonymous,omitempty"`
	Options        []PollOption `json:"options,omitempty"`
	CreatedAt      string       `json:"created_at,omitempty"`
}

// PollSpec carries the writable poll fields.
type PollSpec struct {
	Question       string       `json:"question"`
	MultipleChoice bool         `json:"multiple,omitempty"`
	Anonymous      bool         `json:"anonymous,omitempty"`
	Options        []PollOption `json:"options"`
}

// PollResult is the tally for one poll.
type PollResult struct {
	PollID   string `json:"poll_id,omitempty"`
	Question string `json:"question,omitempty"`
	Votes    []struct {
		OptionID string `json:"option_id,omitempty"`
		Text     string `json:"text,omitempty"`
		Count    int    `json:"count"`
	} `json:"votes,omitempty"`
}

// ListPolls returns the polls of a room.
func (c *Client) ListPolls(ctx context.Context, token, roomID string, opts ListOptions) ([]Poll, error) {
	var env listEnvelope[Poll]
	if err := c.get(ctx, token, roomPath(roomID, "/polls"), opts.query(), &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// CreatePoll creates a poll in a room.
func (c *Client) CreatePoll(ctx context.Context, token, roomID string, spec PollSpec) (*Poll, error) {
	var poll Poll
	if err := c.post(ctx, token, roomPath(roomID, "/polls"), spec, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// UpdatePoll patches a poll.
func (c *Client) UpdatePoll(ctx context.Context, token, roomID, pollID string, spec PollSpec) (*Poll, error) {
	var poll Poll
	if err := c.patch(ctx, token, roomPath(roomID, "/polls/"+pollID), spec, &poll); err != nil {
		return nil, err
	}
	return &poll, nil
}

// DeletePoll removes a poll.
func (c *Client) DeletePoll(ctx context.Context, token, roomID, pollID string) error {
	return c.delete(ctx, token, roomPath(roomID, "/polls/"+pollID))
}

// GetPollResults returns the tally for one poll.
func (c *Client) GetPollResults(ctx context.Context, token, roomID, pollID string) (*PollResult, error) {
	var res PollResult
	if err := c.get(ctx, token, roomPath(roomID, "/polls/"+pollID+"/results"), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
