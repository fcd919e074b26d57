package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/catalogadmin/internal/config"
)

const DefaultCookieName = "_catalog_view"

// Manager manages the view session cookie.
type Manager struct {
	cookieName string
	secure     bool
	ttl        time.Duration
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.CookieSecure,
		ttl:        cfg.ViewSessionTTL,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

// ReadID returns the view id from the request cookie. Values that are not
// UUIDs are ignored.
func (m *Manager) ReadID(c *gin.Context) (string, bool) {
	value, err := c.Cookie(m.cookieName)
	if err != nil {
		return "", false
	}
	value = strings.TrimSpace(value)
	if _, err := uuid.Parse(value); err != nil {
		return "", false
	}
	return value, true
}

func (m *Manager) Set(c *gin.Context, id string) {
	maxAge := int(m.ttl.Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, id, maxAge, "/", "", m.secure, true)
}
