package httpkit

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// ContextFranchiseIDKey holds the franchise resolved from the :slug param.
	ContextFranchiseIDKey = "franchiseID"
	// ContextFranchiseSlugKey holds the :slug param.
	ContextFranchiseSlugKey = "franchiseSlug"
	// ContextViewAsKey holds the optional role the UI is previewing.
	ContextViewAsKey = "viewAs"

	// ViewAsHeader lets the UI preview the app as a lower role. It only
	// changes the session view and never grants or removes access.
	ViewAsHeader = "X-View-As"

	// RoleAdmin may access every franchise.
	RoleAdmin = "admin"
)

// FranchiseResolver maps a slug to its franchise id.
type FranchiseResolver func(ctx context.Context, slug string) (uuid.UUID, error)

// RequireFranchise resolves the :slug path parameter and rejects callers whose
// token is scoped to a different franchise. Admins pass for any franchise.
func RequireFranchise(resolve FranchiseResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		slug := strings.ToLower(strings.TrimSpace(c.Param("slug")))
		if slug == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "franchise slug is required"})
			return
		}

		id := MustGetIdentity(c)
		if id == nil {
			return
		}

		franchiseID, err := resolve(c.Request.Context(), slug)
		if err != nil {
			HandleError(c, err)
			c.Abort()
			return
		}

		if !id.HasRole(RoleAdmin) {
			tenant := id.TenantID()
			if tenant == nil || *tenant != franchiseID {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
		}

		c.Set(ContextFranchiseIDKey, franchiseID)
		c.Set(ContextFranchiseSlugKey, slug)
		if viewAs := strings.TrimSpace(c.GetHeader(ViewAsHeader)); viewAs != "" {
			c.Set(ContextViewAsKey, viewAs)
		}
		c.Next()
	}
}

// Franchise returns the franchise id and slug set by RequireFranchise.
func Franchise(c *gin.Context) (uuid.UUID, string, bool) {
	raw, ok := c.Get(ContextFranchiseIDKey)
	if !ok {
		return uuid.UUID{}, "", false
	}
	id, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.UUID{}, "", false
	}
	return id, c.GetString(ContextFranchiseSlugKey), true
}

// MustFranchise aborts with 400 when no franchise scope is present.
func MustFranchise(c *gin.Context) (uuid.UUID, string, bool) {
	id, slug, ok := Franchise(c)
	if !ok {
		Error(c, http.StatusBadRequest, "franchise scope is required", nil)
		c.Abort()
	}
	return id, slug, ok
}

// ViewAs returns the role the UI is previewing, or "".
func ViewAs(c *gin.Context) string {
	return c.GetString(ContextViewAsKey)
}
