package dsapi

import (
	"context"
	"net/url"
)

// StatsFilter narrows analytics queries by date range (YYYY-MM-DD).
type StatsFilter struct {
	DateStart string
	DateEnd   string
}

func (f StatsFilter) query() url.Values {
	q := url.Values{}
	if f.DateStart != "" {
		q.Set("date_start", f.DateStart)
	}
	if f.DateEnd != "" {
		q.Set("date_end", f.DateEnd)
	}
	return q
}

// GetTeamStatistics returns team-wide usage statistics.
func (c *Client) GetTeamStatistics(ctx context.Context, token string, filter StatsFilter) (map[string]any, error) {
	var stats map[string]any
	if err := c.get(ctx, token, "/statistics", filter.query(), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetRoomStatistics returns usage statistics for one room.
func (c *Client) GetRoomStatistics(ctx context.Context, token, roomID string, filter StatsFilter) (map[string]any, error) {
	var stats map[string]any
	if err := c.get(ctx, token, roomPath(roomID, "/statistics"), filter.query(), &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetSessionStatistics returns usage statistics for one session.
func (c *Client) GetSessionStatistics(ctx context.Context, token, sessionID string) (map[string]any, error) {
	var stats map[string]any
	if err := c.get(ctx, token, "/sessions/"+sessionID+"/statistics", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// GetParticipantStatistics returns per-participant usage across the team.
func (c *Client) GetParticipantStatistics(ctx context.Context, token, participantID string) (map[string]any, error) {
	var stats map[string]any
	if err := c.get(ctx, token, "/participants/"+participantID+"/statistics", nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
