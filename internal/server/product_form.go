package server

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/catalogadmin/internal/config"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	productdomain "github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/smallbiznis/catalogadmin/internal/product/form"
	"github.com/smallbiznis/catalogadmin/internal/ratelimit"
	"github.com/smallbiznis/catalogadmin/internal/session"
	"go.uber.org/zap"
)

const (
	MsgSubmitInFlight   = "A submission is already in progress."
	MsgImageTooLarge    = "Image is too large."
	MsgImageUnsupported = "Only image files can be added."
	MsgImageFailed      = "Could not add the selected images."
	MsgLoadFailed       = "Failed to load product."

	imagesField = "images"
)

const (
	inputText     = "text"
	inputNumber   = "number"
	inputTextarea = "textarea"
	inputSelect   = "select"
)

type fieldChoice struct {
	Value    string
	Label    string
	Selected bool
}

type formField struct {
	Name     string
	Label    string
	Input    string
	Value    string
	Error    string
	Required bool
	Choices  []fieldChoice
}

type formSection struct {
	Title  string
	Fields []formField
}

// formImage is one thumbnail. Src is empty for entries that are not a
// usable image reference; those render as a placeholder.
type formImage struct {
	Index int
	Src   template.URL
	Raw   string
}

type formPage struct {
	State       form.State
	Sections    []formSection
	Images      []formImage
	ImagesError string
	SubmitLabel string
}

var formLayout = []struct {
	title  string
	fields []string
}{
	{"Product Details", []string{"name", "shortName", "sku", "barcode", "price", "description"}},
	{"Inventory & Stock", []string{"available", "allocated", "onHand"}},
	{"Organization", []string{"brandId", "supplierId", "manufacturer", "manufacturePartNumber", "oemPartNumber", "countryOfOrigin"}},
	{"Dimensions & Weight", []string{"length", "width", "height", "unitMeasurementInHeight", "weight", "unitMeasurementInWeight"}},
}

// GetProductForm shows the form. ?id= loads that product for editing and
// ?new=1 starts a fresh create draft; otherwise the current draft is kept.
func (s *Server) GetProductForm(c *gin.Context) {
	view := currentView(c)

	var frozen error
	if raw, ok := c.GetQuery("id"); ok {
		id, err := productdomain.ParseID(raw)
		if err != nil {
			s.renderError(c, err)
			return
		}
		record, err := s.productSvc.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, productdomain.ErrNotFound) {
				s.renderError(c, err)
				return
			}
			s.log.Warn("product load failed", zap.Int64("product_id", id), zap.Error(err))
			view.Notices.Notify(notify.Error(MsgLoadFailed))
		} else {
			frozen = view.Form.Load(record)
		}
	} else if c.Query("new") != "" {
		frozen = view.Form.Reset()
	}
	if frozen != nil {
		s.renderInFlight(c, view, frozen)
		return
	}

	s.renderForm(c, http.StatusOK, view)
}

// SubmitProductForm binds the posted fields onto the draft and submits it.
// A successful submit redirects back to the form; a rejected one renders
// the form with its field errors.
func (s *Server) SubmitProductForm(c *gin.Context) {
	view := currentView(c)
	ctx := c.Request.Context()

	res, err := s.limiter.AllowSubmit(ctx, view.ID)
	if err != nil {
		s.log.Warn("submit rate limit check failed", zap.Error(err))
	}
	if !res.Allowed {
		if res.RetryAfter > 0 {
			c.Header("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds()+0.5)))
		}
		view.Notices.Notify(notify.Warning(ratelimit.MsgRateLimited))
		_ = c.Error(ErrTooManyRequests)
		s.renderForm(c, http.StatusTooManyRequests, view)
		return
	}

	// The draft is frozen while a submit is in flight; posted values are
	// dropped rather than bound.
	if view.Form.Submitting() {
		s.renderInFlight(c, view, form.ErrSubmitInFlight)
		return
	}
	if err := c.Request.ParseForm(); err != nil {
		s.renderError(c, invalidRequestError())
		return
	}
	if err := view.Form.SetFields(postedFields(c)); err != nil {
		if errors.Is(err, form.ErrSubmitInFlight) {
			s.renderInFlight(c, view, err)
			return
		}
		s.renderError(c, err)
		return
	}

	result, err := view.Form.Submit(ctx)
	if err != nil {
		s.renderInFlight(c, view, err)
		return
	}

	if result.Outcome == form.OutcomeSucceeded {
		c.Redirect(http.StatusSeeOther, "/product-form")
		return
	}
	status := http.StatusUnprocessableEntity
	if result.Outcome == form.OutcomeFailed {
		status = http.StatusBadGateway
	}
	s.renderForm(c, status, view)
}

// AddProductImages appends the uploaded files, in upload order, as data
// URLs. Either every file is added or none.
func (s *Server) AddProductImages(c *gin.Context) {
	view := currentView(c)

	mf, err := c.MultipartForm()
	if err != nil {
		s.renderError(c, invalidRequestError())
		return
	}
	headers := mf.File[imagesField]
	if len(headers) == 0 {
		c.Redirect(http.StatusSeeOther, "/product-form")
		return
	}

	files, err := readImageFiles(headers, form.DefaultMaxImageBytes)
	if err == nil {
		err = view.Form.AddImages(c.Request.Context(), files)
	}
	if err != nil {
		s.log.Info("images rejected", zap.Int("count", len(headers)), zap.Error(err))
		view.Notices.Notify(notify.Error(imageErrorMessage(err)))
	}
	c.Redirect(http.StatusSeeOther, "/product-form")
}

func (s *Server) RemoveProductImage(c *gin.Context) {
	view := currentView(c)

	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		s.renderError(c, invalidRequestError())
		return
	}
	if err := view.Form.RemoveImage(index); err != nil {
		view.Notices.Notify(notify.Warning(MsgSubmitInFlight))
	}
	c.Redirect(http.StatusSeeOther, "/product-form")
}

func (s *Server) ResetProductForm(c *gin.Context) {
	view := currentView(c)
	if err := view.Form.Reset(); err != nil {
		view.Notices.Notify(notify.Warning(MsgSubmitInFlight))
	}
	c.Redirect(http.StatusSeeOther, "/product-form")
}

// GetFormView is the JSON form of the current draft.
func (s *Server) GetFormView(c *gin.Context) {
	view := currentView(c)
	c.JSON(http.StatusOK, gin.H{
		"data":          view.Form.State(),
		"notifications": drainNotices(view),
	})
}

// renderInFlight answers a request that would change the draft while a
// submit is running.
func (s *Server) renderInFlight(c *gin.Context, view *session.View, err error) {
	view.Notices.Notify(notify.Warning(MsgSubmitInFlight))
	_ = c.Error(err)
	s.renderForm(c, http.StatusConflict, view)
}

func (s *Server) renderForm(c *gin.Context, status int, view *session.View) {
	state := view.Form.State()
	title := "Add Product"
	if state.Mode == form.ModeUpdate {
		title = "Edit Product"
	}
	s.render(c, status, "product_form", page{
		Title: title,
		Breadcrumbs: []crumb{
			{Label: "Home", URL: "/dashboard"},
			{Label: "Products", URL: "/products"},
			{Label: title},
		},
		Data: newFormPage(state, s.options.Get()),
	})
}

func newFormPage(state form.State, opts config.FormOptions) formPage {
	p := formPage{
		State:       state,
		ImagesError: state.Errors.Get("productImages"),
		SubmitLabel: "Add Product",
	}
	if state.Mode == form.ModeUpdate {
		p.SubmitLabel = "Update Product"
	}
	for _, section := range formLayout {
		fs := formSection{Title: section.title}
		for _, name := range section.fields {
			fs.Fields = append(fs.Fields, newFormField(name, state, opts))
		}
		p.Sections = append(p.Sections, fs)
	}
	for i, src := range state.Draft.ProductImages {
		img := formImage{Index: i, Raw: src}
		if productdomain.ValidImageRef(src) {
			img.Src = template.URL(src)
		}
		p.Images = append(p.Images, img)
	}
	return p
}

func newFormField(name string, state form.State, opts config.FormOptions) formField {
	spec, _ := productdomain.LookupField(name)
	value := state.Draft.Value(name)
	f := formField{
		Name:     name,
		Label:    spec.Label,
		Input:    inputText,
		Value:    value,
		Error:    state.Errors.Get(name),
		Required: spec.Required,
	}
	if spec.Kind == productdomain.KindNumber {
		f.Input = inputNumber
	}

	switch name {
	case "description":
		f.Input = inputTextarea
	case "brandId":
		f.Input = inputSelect
		f.Choices = idChoices(opts.Brands, value)
	case "supplierId":
		f.Input = inputSelect
		f.Choices = idChoices(opts.Suppliers, value)
	case "countryOfOrigin":
		f.Input = inputSelect
		f.Choices = textChoices(opts.Countries, value)
	case "unitMeasurementInHeight", "unitMeasurementInWeight":
		f.Input = inputSelect
		f.Choices = textChoices(opts.Units, value)
	}
	return f
}

func idChoices(choices []config.Choice, selected string) []fieldChoice {
	out := []fieldChoice{{Value: "", Label: "Select..."}}
	for _, ch := range choices {
		v := strconv.FormatInt(ch.ID, 10)
		out = append(out, fieldChoice{Value: v, Label: ch.Name, Selected: v == selected})
	}
	return out
}

func textChoices(values []string, selected string) []fieldChoice {
	out := []fieldChoice{{Value: "", Label: "Select..."}}
	for _, v := range values {
		out = append(out, fieldChoice{Value: v, Label: v, Selected: v == selected})
	}
	return out
}

// postedFields returns the schema fields present in the posted form.
// Absent fields keep their draft value.
func postedFields(c *gin.Context) map[string]string {
	values := map[string]string{}
	for _, spec := range productdomain.Schema {
		if v, ok := c.GetPostForm(spec.Name); ok {
			values[spec.Name] = v
		}
	}
	return values
}

func readImageFiles(headers []*multipart.FileHeader, maxBytes int64) ([]form.ImageFile, error) {
	files := make([]form.ImageFile, 0, len(headers))
	for _, h := range headers {
		if maxBytes > 0 && h.Size > maxBytes {
			return nil, form.ErrImageTooLarge
		}
		data, err := readFileHeader(h)
		if err != nil {
			return nil, err
		}
		files = append(files, form.ImageFile{Name: h.Filename, Data: data})
	}
	return files, nil
}

func readFileHeader(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload %q: %w", h.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload %q: %w", h.Filename, err)
	}
	return data, nil
}

func imageErrorMessage(err error) string {
	switch {
	case errors.Is(err, form.ErrSubmitInFlight):
		return MsgSubmitInFlight
	case errors.Is(err, form.ErrImageTooLarge):
		return MsgImageTooLarge
	case errors.Is(err, form.ErrUnsupportedImage),
		errors.Is(err, form.ErrEmptyImage):
		return MsgImageUnsupported
	default:
		return MsgImageFailed
	}
}
