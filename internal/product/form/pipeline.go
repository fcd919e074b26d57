package form

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smallbiznis/catalogadmin/internal/catalogapi"
	"github.com/smallbiznis/catalogadmin/internal/clock"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	"github.com/smallbiznis/catalogadmin/internal/observability/logger"
	"github.com/smallbiznis/catalogadmin/internal/observability/metrics"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"go.uber.org/zap"
)

var ErrSubmitInFlight = errors.New("submit_in_flight")

const (
	MsgSubmitting   = "Submitting product..."
	MsgCreated      = "Product added successfully!"
	MsgUpdated      = "Product updated successfully!"
	MsgServerError  = "Server error! Please try again."
	MsgGenericError = "An error occurred!"
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeUpdate Mode = "update"
)

type Outcome string

const (
	OutcomeSucceeded        Outcome = "succeeded"
	OutcomeRejectedLocally  Outcome = "rejected_locally"
	OutcomeRejectedByServer Outcome = "rejected_by_server"
	OutcomeFailed           Outcome = "failed"
)

// Saver writes products to the remote catalog.
type Saver interface {
	Create(ctx context.Context, record domain.Record) (domain.Record, error)
	Update(ctx context.Context, id int64, record domain.Record) (domain.Record, error)
}

// Result describes one terminal submit.
type Result struct {
	Mode    Mode               `json:"mode"`
	Outcome Outcome            `json:"outcome"`
	Record  domain.Record      `json:"record"`
	Errors  domain.FieldErrors `json:"errors,omitempty"`
	Message string             `json:"message,omitempty"`
}

// SubmitHook observes every terminal submit.
type SubmitHook func(ctx context.Context, res Result)

type Deps struct {
	Saver    Saver
	Notifier notify.Notifier
	Log      *zap.Logger
	Metrics  *metrics.Metrics
	Clock    clock.Clock
	// Delay is waited between the submitting notice and the API call.
	Delay         time.Duration
	MaxImageBytes int64
	OnSubmit      SubmitHook
}

// State is a copy of the form for rendering.
type State struct {
	Draft      domain.Draft       `json:"draft"`
	Errors     domain.FieldErrors `json:"errors"`
	Submitting bool               `json:"submitting"`
	Mode       Mode               `json:"mode"`
}

// Pipeline owns the draft of one product form.
type Pipeline struct {
	saver    Saver
	notifier notify.Notifier
	log      *zap.Logger
	metrics  *metrics.Metrics
	clock    clock.Clock
	delay    time.Duration
	maxImage int64
	onSubmit SubmitHook

	mu         sync.Mutex
	draft      domain.Draft
	errs       domain.FieldErrors
	submitting bool
}

func NewPipeline(d Deps) *Pipeline {
	if d.Notifier == nil {
		d.Notifier = notify.Discard
	}
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.MaxImageBytes == 0 {
		d.MaxImageBytes = DefaultMaxImageBytes
	}
	return &Pipeline{
		saver:    d.Saver,
		notifier: d.Notifier,
		log:      d.Log.Named("product.form"),
		metrics:  d.Metrics,
		clock:    d.Clock,
		delay:    d.Delay,
		maxImage: d.MaxImageBytes,
		onSubmit: d.OnSubmit,
		draft:    domain.NewDraft(),
		errs:     domain.FieldErrors{},
	}
}

// Load replaces the draft with a fetched record, switching to update mode.
func (p *Pipeline) Load(record domain.Record) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting {
		return ErrSubmitInFlight
	}
	p.draft = domain.DraftFromRecord(record)
	p.errs = domain.FieldErrors{}
	return nil
}

// SetField updates one scalar field. It does not validate.
func (p *Pipeline) SetField(name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting {
		return ErrSubmitInFlight
	}
	return p.draft.Set(name, value)
}

// SetFields applies a batch of scalar updates. Unknown names are rejected
// before anything is applied.
func (p *Pipeline) SetFields(values map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting {
		return ErrSubmitInFlight
	}
	next := p.draft.Clone()
	for name, value := range values {
		if err := next.Set(name, value); err != nil {
			return err
		}
	}
	p.draft = next
	return nil
}

// AddImages encodes files and appends them in selection order. The draft
// is frozen while a submit is in flight, including one that starts while
// the files are being encoded.
func (p *Pipeline) AddImages(ctx context.Context, files []ImageFile) error {
	if p.Submitting() {
		return ErrSubmitInFlight
	}
	if len(files) == 0 {
		return nil
	}
	encoded, err := encodeImages(ctx, files, p.maxImage)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting {
		return ErrSubmitInFlight
	}
	p.draft.ProductImages = append(p.draft.ProductImages, encoded...)
	return nil
}

// RemoveImage drops the image at index. Out of range is a no-op.
func (p *Pipeline) RemoveImage(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting {
		return ErrSubmitInFlight
	}
	images := p.draft.ProductImages
	if index < 0 || index >= len(images) {
		return nil
	}
	next := make([]string, 0, len(images)-1)
	next = append(next, images[:index]...)
	next = append(next, images[index+1:]...)
	p.draft.ProductImages = next
	return nil
}

// Reset returns the form to create-mode defaults.
func (p *Pipeline) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.submitting {
		return ErrSubmitInFlight
	}
	p.draft = domain.NewDraft()
	p.errs = domain.FieldErrors{}
	return nil
}

func (p *Pipeline) Submitting() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitting
}

func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return State{
		Draft:      p.draft.Clone(),
		Errors:     p.errs.Clone(),
		Submitting: p.submitting,
		Mode:       modeOf(p.draft),
	}
}

// Submit validates the draft and, when valid, sends it to the catalog. Errors
// end up in the form state and notifications; the only error returned is
// ErrSubmitInFlight.
func (p *Pipeline) Submit(ctx context.Context) (Result, error) {
	p.mu.Lock()
	if p.submitting {
		p.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}
	draft := p.draft.Clone()
	mode := modeOf(draft)
	record, errs := domain.ValidateDraft(draft)
	if !errs.Empty() {
		p.errs = errs
		p.mu.Unlock()
		res := Result{Mode: mode, Outcome: OutcomeRejectedLocally, Record: record, Errors: errs.Clone()}
		p.finish(ctx, res)
		return res, nil
	}
	p.errs = domain.FieldErrors{}
	p.submitting = true
	p.mu.Unlock()

	// once started, a submit runs to completion even if the caller goes away
	callCtx := context.WithoutCancel(ctx)

	p.notifier.Notify(notify.Info(MsgSubmitting))
	if p.delay > 0 {
		_ = p.clock.Sleep(callCtx, p.delay)
	}

	var (
		saved domain.Record
		err   error
	)
	if mode == ModeUpdate {
		saved, err = p.saver.Update(callCtx, *draft.ID, record)
	} else {
		saved, err = p.saver.Create(callCtx, record)
	}

	res := p.apply(mode, record, saved, err)
	p.finish(ctx, res)
	return res, nil
}

func (p *Pipeline) apply(mode Mode, sent, saved domain.Record, err error) Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitting = false

	res := Result{Mode: mode, Record: sent}
	if err == nil {
		res.Outcome = OutcomeSucceeded
		res.Record = saved
		if mode == ModeCreate {
			res.Message = MsgCreated
			p.draft = domain.NewDraft()
		} else {
			res.Message = MsgUpdated
		}
		p.errs = domain.FieldErrors{}
		p.notifier.Notify(notify.Success(res.Message))
		return res
	}

	res.Outcome = OutcomeFailed
	res.Message = MsgServerError
	if apiErr, ok := catalogapi.AsAPIError(err); ok && apiErr.Structured {
		res.Outcome = OutcomeRejectedByServer
		res.Message = apiErr.Message
		if res.Message == "" {
			res.Message = MsgGenericError
		}
		if apiErr.HasSubErrors() {
			p.errs = apiErr.FieldErrors()
			res.Errors = p.errs.Clone()
		}
	}
	p.notifier.Notify(notify.Error(res.Message))
	return res
}

func (p *Pipeline) finish(ctx context.Context, res Result) {
	log := logger.WithContext(ctx, p.log)
	fields := []zap.Field{
		zap.String("mode", string(res.Mode)),
		zap.String("outcome", string(res.Outcome)),
		zap.String("sku", res.Record.SKU),
	}
	if !res.Errors.Empty() {
		fields = append(fields, zap.Strings("fields", res.Errors.Fields()))
	}
	switch res.Outcome {
	case OutcomeFailed:
		log.Warn("product submit failed", fields...)
	default:
		log.Info("product submit", fields...)
	}

	p.metrics.RecordSubmit(ctx, string(res.Mode), string(res.Outcome))
	if p.onSubmit != nil {
		p.onSubmit(ctx, res)
	}
}

func modeOf(d domain.Draft) Mode {
	if d.IsUpdate() {
		return ModeUpdate
	}
	return ModeCreate
}
