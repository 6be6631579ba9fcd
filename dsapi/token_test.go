package dsapi

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestSignRoomToken(t *testing.T) {
	signed, err := SignRoomToken("dev-secret", RoomTokenOptions{
		TeamID:     "team-1",
		RoomID:     "room-1",
		UserName:   "Alice",
		Role:       "moderator",
		ExternalID: "ext-42",
		TTL:        time.Hour,
	})
	if err != nil {
		t.Fatal(err)
	}

	tok, err := jwt.Parse(signed, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			t.Fatalf("signing method = %v", tok.Method)
		}
		return []byte("dev-secret"), nil
	})
	if err != nil {
		t.Fatal(err)
	}
	claims := tok.Claims.(jwt.MapClaims)

	if claims["td"] != "team-1" || claims["rd"] != "room-1" {
		t.Fatalf("claims = %v", claims)
	}
	if claims["u"] != "Alice" || claims["role"] != "moderator" || claims["ud"] != "ext-42" {
		t.Fatalf("claims = %v", claims)
	}

	iat := int64(claims["iat"].(float64))
	exp := int64(claims["exp"].(float64))
	if exp-iat != int64(time.Hour.Seconds()) {
		t.Fatalf("exp-iat = %d", exp-iat)
	}
}

func TestSignRoomToken_OptionalClaimsOmitted(t *testing.T) {
	signed, err := SignRoomToken("dev-secret", RoomTokenOptions{TeamID: "t", RoomID: "r"})
	if err != nil {
		t.Fatal(err)
	}
	tok, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return []byte("dev-secret"), nil })
	if err != nil {
		t.Fatal(err)
	}
	claims := tok.Claims.(jwt.MapClaims)
	for _, absent := range []string{"u", "role", "ud", "exp"} {
		if _, ok := claims[absent]; ok {
			t.Errorf("claim %q should be omitted when unset", absent)
		}
	}
}

func TestSignRoomToken_Validation(t *testing.T) {
	if _, err := SignRoomToken("", RoomTokenOptions{TeamID: "t", RoomID: "r"}); err == nil {
		t.Fatal("missing developer key must fail")
	}
	if _, err := SignRoomToken("k", RoomTokenOptions{RoomID: "r"}); err == nil {
		t.Fatal("missing team ID must fail")
	}
	if _, err := SignRoomToken("k", RoomTokenOptions{TeamID: "t"}); err == nil {
		t.Fatal("missing room ID must fail")
	}
}

func TestSignRoomToken_WrongKeyRejected(t *testing.T) {
	signed, err := SignRoomToken("dev-secret", RoomTokenOptions{TeamID: "t", RoomID: "r"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return []byte("other-key"), nil }); err == nil {
		t.Fatal("token must not verify under a different key")
	}
}
