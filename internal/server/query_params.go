package server

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	productdomain "github.com/smallbiznis/catalogadmin/internal/product/domain"
)

const (
	msgPageNoNotNumber   = "Page number must be a number"
	msgPageSizeNotNumber = "Page size must be a number"
	msgFromDateInvalid   = "From Date must be a date (yyyy-MM-dd)"
	msgToDateInvalid     = "To Date must be a date (yyyy-MM-dd)"
)

// listQueryParams mirrors ListQuery.Values. Absent keys stay nil and leave
// the current query unchanged; an empty date clears that date.
type listQueryParams struct {
	PageNo    *string `form:"pageNo"`
	PageSize  *string `form:"pageSize"`
	SortField *string `form:"sortField"`
	SortDir   *string `form:"sortDir"`
	Name      *string `form:"name"`
	From      *string `form:"from"`
	To        *string `form:"to"`
}

// bindListQuery reads the list parameters of a request. Parameters that
// cannot be parsed are reported as field errors and not applied.
func bindListQuery(c *gin.Context) (productdomain.QueryPatch, productdomain.FieldErrors, error) {
	var params listQueryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		return productdomain.QueryPatch{}, nil, invalidRequestError()
	}
	patch, errs := params.patch()
	return patch, errs, nil
}

func (p listQueryParams) patch() (productdomain.QueryPatch, productdomain.FieldErrors) {
	var patch productdomain.QueryPatch
	errs := productdomain.FieldErrors{}

	if p.PageNo != nil {
		if v, err := parseInt(*p.PageNo); err != nil {
			errs.Set("pageNo", msgPageNoNotNumber)
		} else {
			patch.PageNo = &v
		}
	}
	if p.PageSize != nil {
		if v, err := parseInt(*p.PageSize); err != nil {
			errs.Set("pageSize", msgPageSizeNotNumber)
		} else {
			patch.PageSize = &v
		}
	}
	if p.SortField != nil {
		field := productdomain.SortField(strings.TrimSpace(*p.SortField))
		patch.SortField = &field
	}
	if p.SortDir != nil {
		dir := productdomain.SortDir(strings.ToLower(strings.TrimSpace(*p.SortDir)))
		patch.SortDir = &dir
	}
	if p.Name != nil {
		name := *p.Name
		patch.NameFilter = &name
	}
	if p.From != nil {
		if d, err := productdomain.ParseDate(*p.From); err != nil {
			errs.Set("fromDate", msgFromDateInvalid)
		} else {
			patch.FromDate = &d
		}
	}
	if p.To != nil {
		if d, err := productdomain.ParseDate(*p.To); err != nil {
			errs.Set("toDate", msgToDateInvalid)
		} else {
			patch.ToDate = &d
		}
	}

	return patch, errs
}

func parseInt(value string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(value))
}

// listURL links the list view at q.
func listURL(q productdomain.ListQuery) string {
	return "/products?" + q.Values().Encode()
}

// sortURL links the list sorted by field: a new field starts descending,
// the current field flips direction. The page is reset to the first.
func sortURL(q productdomain.ListQuery, field productdomain.SortField) string {
	dir := productdomain.SortDesc
	if q.SortField == field && q.SortDir == productdomain.SortDesc {
		dir = productdomain.SortAsc
	}
	q.SortField = field
	q.SortDir = dir
	q.PageNo = 0
	return listURL(q)
}

// formURL links the product form, in edit mode when id is set.
func formURL(id *int64) string {
	if id == nil {
		return "/product-form"
	}
	v := url.Values{}
	v.Set("id", strconv.FormatInt(*id, 10))
	return "/product-form?" + v.Encode()
}
