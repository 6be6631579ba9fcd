package dsapi

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoomTokenOptions describe a self-signed room access token. The token is
// signed locally with the team's developer key; no upstream call is involved.
type RoomTokenOptions struct {
	TeamID     string
	RoomID     string
	UserName   string
	Role       string
	ExternalID string
	TTL        time.Duration
}

// SignRoomToken produces an HS256 room access token per the platform's
// self-signed token scheme.
func SignRoomToken(developerKey string, opts RoomTokenOptions) (string, error) {
	if developerKey == "" {
		return "", fmt.Errorf("developer key is required to sign room tokens")
	}
	if opts.TeamID == "" || opts.RoomID == "" {
		return "", fmt.Errorf("team ID and room ID are required")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"td":  opts.TeamID,
		"rd":  opts.RoomID,
		"iat": now.Unix(),
	}
	if opts.UserName != "" {
		claims["u"] = opts.UserName
	}
	if opts.Role != "" {
		claims["role"] = opts.Role
	}
	if opts.ExternalID != "" {
		claims["ud"] = opts.ExternalID
	}
	if opts.TTL > 0 {
		claims["exp"] = now.Add(opts.TTL).Unix()
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(developerKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign room token: %w", err)
	}
	return signed, nil
}
