package server

import (
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/catalogadmin/internal/observability/context"
	"github.com/smallbiznis/catalogadmin/internal/session"
	"go.uber.org/zap"
)

const contextViewKey = "view"

// ViewSession attaches the caller's view to the request, creating one when
// the cookie is missing, malformed or expired. The cookie is re-issued on
// every request so its lifetime follows the idle TTL.
func (s *Server) ViewSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := s.cookies.ReadID(c)
		view, created := s.views.Resolve(id)
		if created {
			s.log.Debug("view created", zap.String("view_id", view.ID))
		}
		s.cookies.Set(c, view.ID)

		ctx := obscontext.WithViewID(c.Request.Context(), view.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextViewKey, view)
		c.Next()
	}
}

func currentView(c *gin.Context) *session.View {
	v, ok := c.Get(contextViewKey)
	if !ok {
		return nil
	}
	view, _ := v.(*session.View)
	return view
}

// sidebarActive reports whether the sidebar entry for section should be
// highlighted on path. The products entry covers the list and the form.
func sidebarActive(path, section string) bool {
	switch section {
	case "products":
		return path == "/products" || path == "/product-form"
	case "dashboard":
		return path == "/dashboard"
	default:
		return false
	}
}
