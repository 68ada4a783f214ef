// Package auth issues and checks the creator tickets handed out when a room
// is created. A ticket only decides the role tag of a member; it is not a
// login.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
	"github.com/Vasu1712/scenyx-canvas/internal/roomid"
)

var ErrInvalidTicket = errors.New("invalid room ticket")

const issuer = "scenyx-canvas"

// TicketClaims binds a role to one room.
type TicketClaims struct {
	RoomID string      `json:"room"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TicketIssuer signs tickets with an HMAC secret.
type TicketIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTicketIssuer(secret string, ttl time.Duration) *TicketIssuer {
	return &TicketIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// IssueCreator returns a signed ticket granting the creator role in roomID.
func (i *TicketIssuer) IssueCreator(roomID string) (string, error) {
	now := i.now()
	claims := TicketClaims{
		RoomID: roomid.Normalize(roomID),
		Role:   models.RoleCreator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign ticket: %w", err)
	}
	return signed, nil
}

// RoleFor verifies token and returns the role it grants in roomID.
func (i *TicketIssuer) RoleFor(token, roomID string) (models.Role, error) {
	claims := &TicketClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidTicket, err)
	}
	if claims.Issuer != issuer {
		return "", fmt.Errorf("%w: issuer %q", ErrInvalidTicket, claims.Issuer)
	}
	if claims.RoomID != roomid.Normalize(roomID) {
		return "", fmt.Errorf("%w: ticket is for room %s", ErrInvalidTicket, claims.RoomID)
	}
	return claims.Role, nil
}
