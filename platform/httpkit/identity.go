package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the authenticated caller as seen by handlers. It hides the
// Gin context keys the auth middleware populates, so handler code that needs
// the actor (activity attribution, ownership) never touches raw claims.
type Identity interface {
	// UserID returns the authenticated user's ID.
	UserID() uuid.UUID
	// Roles returns the user's assigned roles.
	Roles() []string
	// HasRole reports whether the user holds the given role.
	HasRole(role string) bool
	// IsAuthenticated reports whether a valid token was presented.
	IsAuthenticated() bool
}

type identity struct {
	userID        uuid.UUID
	roles         []string
	authenticated bool
}

func (i *identity) UserID() uuid.UUID { return i.userID }

func (i *identity) Roles() []string { return i.roles }

func (i *identity) HasRole(role string) bool {
	for _, r := range i.roles {
		if r == role {
			return true
		}
	}
	return false
}

func (i *identity) IsAuthenticated() bool { return i.authenticated }

// GetIdentity extracts the Identity from a Gin context. Requests that never
// passed the auth middleware get an unauthenticated identity, not an error;
// public routes share handlers with protected ones.
func GetIdentity(c *gin.Context) Identity {
	userID, userOK := c.Get(ContextUserIDKey)
	if !userOK {
		return &identity{}
	}

	uid, ok := userID.(uuid.UUID)
	if !ok {
		return &identity{}
	}

	var roleList []string
	if roles, ok := c.Get(ContextRolesKey); ok {
		roleList, _ = roles.([]string)
	}

	return &identity{
		userID:        uid,
		roles:         roleList,
		authenticated: true,
	}
}
