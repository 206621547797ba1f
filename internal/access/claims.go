package access

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the bearer token payload. Staff is fixed when the token is
// issued; a role change takes effect at the next login.
type Claims struct {
	Staff bool `json:"staff"`
	jwt.RegisteredClaims
}

func NewClaims(userID uuid.UUID, staff bool, issuedAt time.Time, ttl time.Duration) Claims {
	return Claims{
		Staff: staff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
	}
}

// Principal converts verified claims into the caller identity.
func (c *Claims) Principal() (Principal, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil || userID == uuid.Nil {
		return Principal{}, errors.New("invalid subject")
	}
	return Principal{UserID: userID, Staff: c.Staff}, nil
}
