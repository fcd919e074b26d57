package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	productdomain "github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/smallbiznis/catalogadmin/internal/product/query"
	"github.com/smallbiznis/catalogadmin/internal/session"
)

type sortLink struct {
	Field  productdomain.SortField
	Label  string
	URL    string
	Active bool
	Dir    productdomain.SortDir
}

type listPage struct {
	Snapshot  query.Snapshot
	PageSizes []int
	SortLinks []sortLink
	PageLabel int
	PrevURL   string
	NextURL   string
	FromDate  string
	ToDate    string
}

var sortColumns = []struct {
	field productdomain.SortField
	label string
}{
	{productdomain.SortByName, "Name"},
	{productdomain.SortBySKU, "SKU"},
	{productdomain.SortByCreatedAt, "Created"},
}

// applyListQuery runs one list request against the view's controller. Every
// request fetches, including one without parameters.
func (s *Server) applyListQuery(c *gin.Context, view *session.View) (query.Snapshot, error) {
	patch, errs, err := bindListQuery(c)
	if err != nil {
		return query.Snapshot{}, err
	}
	if !errs.Empty() {
		return view.Query.RejectInput(errs), nil
	}
	return view.Query.SetFilter(c.Request.Context(), patch), nil
}

func (s *Server) ListProducts(c *gin.Context) {
	view := currentView(c)
	snap, err := s.applyListQuery(c, view)
	if err != nil {
		s.renderError(c, err)
		return
	}

	s.render(c, http.StatusOK, "products", page{
		Title: "Products",
		Breadcrumbs: []crumb{
			{Label: "Home", URL: "/dashboard"},
			{Label: "Products"},
		},
		Data: s.newListPage(snap),
	})
}

// GetProductsView is the JSON form of ListProducts. Rejected parameters are
// answered with the validation envelope.
func (s *Server) GetProductsView(c *gin.Context) {
	view := currentView(c)
	snap, err := s.applyListQuery(c, view)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !snap.Errors.Empty() {
		AbortWithError(c, fieldValidationError(snap.Errors))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":          snap,
		"notifications": drainNotices(view),
	})
}

func (s *Server) newListPage(snap query.Snapshot) listPage {
	q := snap.Query
	p := listPage{
		Snapshot:  snap,
		PageSizes: s.options.Get().PageSizes,
		PageLabel: q.PageNo + 1,
	}
	if !q.FromDate.IsZero() {
		p.FromDate = q.FromDate.String()
	}
	if !q.ToDate.IsZero() {
		p.ToDate = q.ToDate.String()
	}
	if snap.HasPrev() {
		prev := q
		prev.PageNo--
		p.PrevURL = listURL(prev)
	}
	if snap.HasNext() {
		next := q
		next.PageNo++
		p.NextURL = listURL(next)
	}
	for _, col := range sortColumns {
		p.SortLinks = append(p.SortLinks, sortLink{
			Field:  col.field,
			Label:  col.label,
			URL:    sortURL(q, col.field),
			Active: q.SortField == col.field,
			Dir:    q.SortDir,
		})
	}
	return p
}

func drainNotices(view *session.View) []notify.Notification {
	if view == nil {
		return []notify.Notification{}
	}
	notices := view.Notices.Drain()
	if notices == nil {
		notices = []notify.Notification{}
	}
	return notices
}
