package domain

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByName      SortField = "name"
	SortBySKU       SortField = "sku"
)

func (f SortField) Valid() bool {
	switch f {
	case SortByCreatedAt, SortByName, SortBySKU:
		return true
	default:
		return false
	}
}

type SortDir string

const (
	SortAsc  SortDir = "asc"
	SortDesc SortDir = "desc"
)

func (d SortDir) Valid() bool {
	return d == SortAsc || d == SortDesc
}

const (
	DefaultPageSize = 10

	MsgFromAfterTo = "From Date must be before To Date"
)

// DefaultPageSizes is the selectable page size set when none is configured.
var DefaultPageSizes = []int{5, 10, 25, 50}

// ListQuery holds the request parameters of the product list view.
type ListQuery struct {
	PageNo     int       `json:"pageNo"`
	PageSize   int       `json:"pageSize"`
	SortField  SortField `json:"sortField"`
	SortDir    SortDir   `json:"sortDir"`
	NameFilter string    `json:"nameFilter"`
	FromDate   Date      `json:"fromDate"`
	ToDate     Date      `json:"toDate"`
}

// DefaultListQuery is the state of a freshly mounted list view.
func DefaultListQuery(pageSize int) ListQuery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return ListQuery{
		PageNo:    0,
		PageSize:  pageSize,
		SortField: SortByCreatedAt,
		SortDir:   SortDesc,
	}
}

// QueryPatch is a partial ListQuery update. Nil fields are left unchanged.
// A non-nil pointer to a zero Date clears that date.
type QueryPatch struct {
	PageNo     *int
	PageSize   *int
	SortField  *SortField
	SortDir    *SortDir
	NameFilter *string
	FromDate   *Date
	ToDate     *Date
}

// Apply returns q with every non-nil patch field merged in.
func (q ListQuery) Apply(p QueryPatch) ListQuery {
	if p.PageNo != nil {
		q.PageNo = *p.PageNo
	}
	if p.PageSize != nil {
		q.PageSize = *p.PageSize
	}
	if p.SortField != nil {
		q.SortField = *p.SortField
	}
	if p.SortDir != nil {
		q.SortDir = *p.SortDir
	}
	if p.NameFilter != nil {
		q.NameFilter = *p.NameFilter
	}
	if p.FromDate != nil {
		q.FromDate = *p.FromDate
	}
	if p.ToDate != nil {
		q.ToDate = *p.ToDate
	}
	return q
}

// Validate checks the query invariants. An empty result means the query
// may be fetched. pageSizes is the allowed size set; nil skips that check.
func (q ListQuery) Validate(pageSizes []int) FieldErrors {
	errs := FieldErrors{}
	if !q.FromDate.IsZero() && !q.ToDate.IsZero() && q.FromDate.After(q.ToDate) {
		errs.Set("fromDate", MsgFromAfterTo)
	}
	if q.PageNo < 0 {
		errs.Set("pageNo", "Page number cannot be negative")
	}
	if pageSizes != nil && !containsInt(pageSizes, q.PageSize) {
		errs.Set("pageSize", fmt.Sprintf("Page size must be one of %s", joinInts(pageSizes)))
	}
	if !q.SortField.Valid() {
		errs.Set("sortField", "Sort field must be one of createdAt, name, sku")
	}
	if !q.SortDir.Valid() {
		errs.Set("sortDir", "Sort direction must be asc or desc")
	}
	return errs
}

// Values serialises the query for the list endpoint. A blank name filter
// and unset dates are omitted.
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("pageNo", strconv.Itoa(q.PageNo))
	v.Set("pageSize", strconv.Itoa(q.PageSize))
	v.Set("sortField", string(q.SortField))
	v.Set("sortDir", string(q.SortDir))
	if strings.TrimSpace(q.NameFilter) != "" {
		v.Set("name", q.NameFilter)
	}
	if !q.FromDate.IsZero() {
		v.Set("from", q.FromDate.String())
	}
	if !q.ToDate.IsZero() {
		v.Set("to", q.ToDate.String())
	}
	return v
}

// PagedResult is one page of the list endpoint.
type PagedResult struct {
	Content    []Record `json:"content"`
	TotalPages int      `json:"totalPages"`
}

func containsInt(values []int, v int) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

func joinInts(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, strconv.Itoa(v))
	}
	return strings.Join(parts, ", ")
}
