package server

import (
	"embed"
	"html/template"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	productdomain "github.com/smallbiznis/catalogadmin/internal/product/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

type crumb struct {
	Label string
	URL   string
}

// page is the data every template receives.
type page struct {
	Title       string
	Path        string
	Breadcrumbs []crumb
	Notices     []notify.Notification
	Data        any
}

var templateFuncs = template.FuncMap{
	"active": sidebarActive,
	"fieldError": func(errs productdomain.FieldErrors, name string) string {
		return errs.Get(name)
	},
	"number": func(v *float64) string {
		if v == nil {
			return ""
		}
		return strconv.FormatFloat(*v, 'f', -1, 64)
	},
	"productID": func(id *int64) string {
		if id == nil {
			return ""
		}
		return strconv.FormatInt(*id, 10)
	},
	"editURL": formURL,
	"noticeClass": func(level notify.Level) string {
		switch level {
		case notify.LevelSuccess:
			return "success"
		case notify.LevelWarning:
			return "warning"
		case notify.LevelError:
			return "danger"
		default:
			return "info"
		}
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("catalogadmin").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.tmpl")
}

// render drains the view's pending notifications into the page so each
// notice is shown exactly once.
func (s *Server) render(c *gin.Context, status int, name string, p page) {
	if view := currentView(c); view != nil {
		p.Notices = view.Notices.Drain()
	}
	p.Path = c.Request.URL.Path
	c.HTML(status, name, p)
}

// renderError shows the error page. The error is attached to the context so
// the request log classifies it.
func (s *Server) renderError(c *gin.Context, err error) {
	_ = c.Error(err)
	status, payload := mapError(err)
	s.render(c, status, "error", page{
		Title: "Error",
		Data:  payload,
	})
	c.Abort()
}
