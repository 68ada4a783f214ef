package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Vasu1712/scenyx-canvas/internal/models"
)

func TestTicketIssuer_RoundTrip(t *testing.T) {
	req := require.New(t)
	issuer := NewTicketIssuer("secret", time.Hour)

	token, err := issuer.IssueCreator("abc123")
	req.NoError(err)
	req.NotEmpty(token)

	role, err := issuer.RoleFor(token, "ABC123")
	req.NoError(err)
	req.Equal(models.RoleCreator, role)
}

func TestTicketIssuer_RejectsOtherRoom(t *testing.T) {
	req := require.New(t)
	issuer := NewTicketIssuer("secret", time.Hour)
	token, _ := issuer.IssueCreator("ABC123")

	_, err := issuer.RoleFor(token, "XYZ789")
	req.ErrorIs(err, ErrInvalidTicket)
}

func TestTicketIssuer_RejectsForeignSecret(t *testing.T) {
	req := require.New(t)
	token, _ := NewTicketIssuer("one", time.Hour).IssueCreator("ABC123")

	_, err := NewTicketIssuer("two", time.Hour).RoleFor(token, "ABC123")
	req.ErrorIs(err, ErrInvalidTicket)
}

func TestTicketIssuer_RejectsExpired(t *testing.T) {
	req := require.New(t)
	issuer := NewTicketIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _ := issuer.IssueCreator("ABC123")

	_, err := issuer.RoleFor(token, "ABC123")
	req.ErrorIs(err, ErrInvalidTicket)
}

func TestTicketIssuer_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	_, err := NewTicketIssuer("secret", time.Hour).RoleFor("not-a-jwt", "ABC123")
	req.ErrorIs(err, ErrInvalidTicket)
}
