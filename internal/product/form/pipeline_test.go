package form

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/smallbiznis/catalogadmin/internal/catalogapi"
	"github.com/smallbiznis/catalogadmin/internal/clock"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	gifBytes = []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00\xff\xff\xff\x00\x00\x00!")
)

type mockSaver struct {
	mock.Mock
}

func (m *mockSaver) Create(ctx context.Context, record domain.Record) (domain.Record, error) {
	args := m.Called(ctx, record)
	return args.Get(0).(domain.Record), args.Error(1)
}

func (m *mockSaver) Update(ctx context.Context, id int64, record domain.Record) (domain.Record, error) {
	args := m.Called(ctx, id, record)
	return args.Get(0).(domain.Record), args.Error(1)
}

type fixture struct {
	saver    *mockSaver
	queue    *notify.Queue
	clock    *clock.FakeClock
	results  []Result
	pipeline *Pipeline
}

func newFixture(delay time.Duration) *fixture {
	f := &fixture{
		saver: &mockSaver{},
		queue: notify.NewQueue(0),
		clock: clock.NewFakeClock(time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.pipeline = NewPipeline(Deps{
		Saver:    f.saver,
		Notifier: f.queue,
		Clock:    f.clock,
		Delay:    delay,
		OnSubmit: func(_ context.Context, res Result) { f.results = append(f.results, res) },
	})
	return f
}

func fill(t *testing.T, p *Pipeline, values map[string]string) {
	t.Helper()
	require.NoError(t, p.SetFields(values))
}

func TestMissingRequiredFieldsNeverCallServer(t *testing.T) {
	f := newFixture(0)

	res, err := f.pipeline.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejectedLocally, res.Outcome)
	state := f.pipeline.State()
	assert.Equal(t, "Name is required", state.Errors.Get("name"))
	assert.Equal(t, "SKU is required", state.Errors.Get("sku"))
	assert.False(t, state.Submitting)
	f.saver.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, f.queue.Drain())
	require.Len(t, f.results, 1)
}

func TestNegativePriceIsRejectedLocally(t *testing.T) {
	f := newFixture(0)
	fill(t, f.pipeline, map[string]string{"name": "Lamp", "sku": "L-1", "price": "-5"})

	res, err := f.pipeline.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejectedLocally, res.Outcome)
	assert.Equal(t, "Price must be positive", f.pipeline.State().Errors.Get("price"))
	f.saver.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateSuccessResetsForm(t *testing.T) {
	f := newFixture(2 * time.Second)
	fill(t, f.pipeline, map[string]string{"name": "Lamp", "sku": "L-1", "price": "12.5"})
	require.NoError(t, f.pipeline.AddImages(context.Background(), []ImageFile{{Name: "a.png", Data: pngBytes}}))

	f.saver.On("Create", mock.Anything, mock.MatchedBy(func(r domain.Record) bool {
		return r.Name == "Lamp" && r.Price != nil && *r.Price == 12.5 && len(r.ProductImages) == 1
	})).Return(domain.Record{Name: "Lamp", SKU: "L-1"}, nil).Once()

	res, err := f.pipeline.Submit(context.Background())
	require.NoError(t, err)

	f.saver.AssertExpectations(t)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	assert.Equal(t, ModeCreate, res.Mode)
	assert.Equal(t, []time.Duration{2 * time.Second}, f.clock.Sleeps())

	state := f.pipeline.State()
	assert.Equal(t, domain.NewDraft(), state.Draft)
	assert.Equal(t, []string{}, state.Draft.ProductImages)
	assert.True(t, state.Errors.Empty())
	assert.Equal(t, []notify.Notification{
		notify.Info(MsgSubmitting),
		notify.Success(MsgCreated),
	}, f.queue.Drain())
}

func TestUpdateSuccessKeepsValues(t *testing.T) {
	f := newFixture(0)
	id := int64(42)
	price := 9.0
	require.NoError(t, f.pipeline.Load(domain.Record{ID: &id, Name: "Lamp", SKU: "L-1", Price: &price}))
	require.NoError(t, f.pipeline.SetField("name", "Desk lamp"))

	f.saver.On("Update", mock.Anything, int64(42), mock.MatchedBy(func(r domain.Record) bool {
		return r.Name == "Desk lamp"
	})).Return(domain.Record{}, nil).Once()

	res, err := f.pipeline.Submit(context.Background())
	require.NoError(t, err)

	f.saver.AssertExpectations(t)
	assert.Equal(t, ModeUpdate, res.Mode)
	state := f.pipeline.State()
	assert.Equal(t, "Desk lamp", state.Draft.Name)
	assert.Equal(t, ModeUpdate, state.Mode)
	assert.Contains(t, f.queue.Drain(), notify.Success(MsgUpdated))
}

func TestServerSubErrorsReplaceFieldErrors(t *testing.T) {
	f := newFixture(0)
	fill(t, f.pipeline, map[string]string{"name": "Lamp", "sku": "DUP-1"})

	f.saver.On("Create", mock.Anything, mock.Anything).Return(domain.Record{}, &catalogapi.APIError{
		StatusCode: http.StatusBadRequest,
		Message:    "Validation failed",
		SubErrors:  []catalogapi.SubError{{Field: "sku", Message: "SKU already exists"}},
		Structured: true,
	}).Once()

	res, err := f.pipeline.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejectedByServer, res.Outcome)
	state := f.pipeline.State()
	assert.Equal(t, domain.FieldErrors{"sku": "SKU already exists"}, state.Errors)
	assert.Equal(t, "Lamp", state.Draft.Name)
	assert.Equal(t, "DUP-1", state.Draft.SKU)
	assert.False(t, state.Submitting)
	assert.Equal(t, []notify.Notification{
		notify.Info(MsgSubmitting),
		notify.Error("Validation failed"),
	}, f.queue.Drain())
}

func TestStructuredErrorWithoutSubErrorsUsesFallback(t *testing.T) {
	f := newFixture(0)
	fill(t, f.pipeline, map[string]string{"name": "Lamp", "sku": "L-1"})

	f.saver.On("Create", mock.Anything, mock.Anything).Return(domain.Record{}, &catalogapi.APIError{
		StatusCode: http.StatusConflict,
		Structured: true,
	}).Once()

	res, err := f.pipeline.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeRejectedByServer, res.Outcome)
	assert.True(t, f.pipeline.State().Errors.Empty())
	assert.Contains(t, f.queue.Drain(), notify.Error(MsgGenericError))
}

func TestTransportFailureKeepsDraft(t *testing.T) {
	f := newFixture(0)
	fill(t, f.pipeline, map[string]string{"name": "Lamp", "sku": "L-1"})

	f.saver.On("Create", mock.Anything, mock.Anything).
		Return(domain.Record{}, &catalogapi.TransportError{Op: "create", Err: errors.New("connection refused")}).Once()

	res, err := f.pipeline.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Equal(t, "Lamp", f.pipeline.State().Draft.Name)
	assert.Contains(t, f.queue.Drain(), notify.Error(MsgServerError))
}

func TestSubmitSurvivesCallerCancel(t *testing.T) {
	f := newFixture(0)
	fill(t, f.pipeline, map[string]string{"name": "Lamp", "sku": "L-1"})

	ctx, cancel := context.WithCancel(context.Background())
	f.saver.On("Create", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(domain.Record{}, nil).Once()

	res, err := f.pipeline.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, res.Outcome)
	f.saver.AssertExpectations(t)
}

func TestSecondSubmitWhileInFlightIsRefused(t *testing.T) {
	f := newFixture(0)
	fill(t, f.pipeline, map[string]string{"name": "Lamp", "sku": "L-1"})

	entered := make(chan struct{})
	release := make(chan struct{})
	f.saver.On("Create", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(domain.Record{}, nil).Once()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.pipeline.Submit(context.Background())
	}()
	<-entered

	assert.True(t, f.pipeline.State().Submitting)
	_, err := f.pipeline.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmitInFlight)

	close(release)
	<-done
	assert.False(t, f.pipeline.State().Submitting)
	f.saver.AssertNumberOfCalls(t, "Create", 1)
}

func TestDraftIsFrozenWhileSubmitting(t *testing.T) {
	f := newFixture(0)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.saver.On("Update", mock.Anything, int64(4), mock.Anything).
		Run(func(mock.Arguments) {
			close(entered)
			<-release
		}).
		Return(domain.Record{}, nil).Once()

	id := int64(4)
	require.NoError(t, f.pipeline.Load(domain.Record{ID: &id, Name: "Lamp", SKU: "L-1", ProductImages: []string{"https://cdn.example.com/lamp.png"}}))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.pipeline.Submit(context.Background())
	}()
	<-entered

	assert.ErrorIs(t, f.pipeline.SetFields(map[string]string{"name": "Desk", "sku": "D-9"}), ErrSubmitInFlight)
	assert.ErrorIs(t, f.pipeline.SetField("name", "Desk"), ErrSubmitInFlight)
	assert.ErrorIs(t, f.pipeline.AddImages(context.Background(), []ImageFile{{Name: "b.gif", Data: gifBytes}}), ErrSubmitInFlight)
	assert.ErrorIs(t, f.pipeline.RemoveImage(0), ErrSubmitInFlight)
	assert.ErrorIs(t, f.pipeline.Reset(), ErrSubmitInFlight)
	assert.ErrorIs(t, f.pipeline.Load(domain.Record{Name: "Other"}), ErrSubmitInFlight)

	state := f.pipeline.State()
	assert.Equal(t, "Lamp", state.Draft.Name)
	assert.Equal(t, "L-1", state.Draft.SKU)
	assert.Len(t, state.Draft.ProductImages, 1)

	close(release)
	<-done
	assert.False(t, f.pipeline.Submitting())
	assert.Equal(t, "Lamp", f.pipeline.State().Draft.Name)
	require.NoError(t, f.pipeline.SetField("name", "Desk"))
}

func TestAddThenRemoveImage(t *testing.T) {
	f := newFixture(0)

	err := f.pipeline.AddImages(context.Background(), []ImageFile{
		{Name: "a.png", Data: pngBytes},
		{Name: "b.gif", Data: gifBytes},
	})
	require.NoError(t, err)
	require.Len(t, f.pipeline.State().Draft.ProductImages, 2)

	require.NoError(t, f.pipeline.RemoveImage(0))

	want := "data:image/gif;base64," + base64.StdEncoding.EncodeToString(gifBytes)
	assert.Equal(t, []string{want}, f.pipeline.State().Draft.ProductImages)
}

func TestRemoveImageOutOfRangeIsNoop(t *testing.T) {
	f := newFixture(0)
	require.NoError(t, f.pipeline.AddImages(context.Background(), []ImageFile{{Name: "a.png", Data: pngBytes}}))

	assert.NoError(t, f.pipeline.RemoveImage(5))
	assert.NoError(t, f.pipeline.RemoveImage(-1))

	assert.Len(t, f.pipeline.State().Draft.ProductImages, 1)
}

func TestAddImagesIsAllOrNothing(t *testing.T) {
	f := newFixture(0)

	err := f.pipeline.AddImages(context.Background(), []ImageFile{
		{Name: "a.png", Data: pngBytes},
		{Name: "notes.txt", Data: []byte("just some text")},
	})

	assert.ErrorIs(t, err, ErrUnsupportedImage)
	assert.Empty(t, f.pipeline.State().Draft.ProductImages)
}

func TestEncodeImageLimits(t *testing.T) {
	_, err := EncodeImage(ImageFile{Name: "empty.png"}, 0)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = EncodeImage(ImageFile{Name: "a.png", Data: pngBytes}, 4)
	assert.ErrorIs(t, err, ErrImageTooLarge)

	encoded, err := EncodeImage(ImageFile{Name: "a.png", Data: pngBytes}, 0)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes), encoded)
}

func TestSetFieldsRejectsUnknownAtomically(t *testing.T) {
	f := newFixture(0)

	err := f.pipeline.SetFields(map[string]string{"name": "Lamp", "colour": "red"})

	assert.ErrorIs(t, err, domain.ErrUnknownField)
	assert.Empty(t, f.pipeline.State().Draft.Name)
}

func TestResetClearsErrors(t *testing.T) {
	f := newFixture(0)
	_, _ = f.pipeline.Submit(context.Background())
	require.False(t, f.pipeline.State().Errors.Empty())

	require.NoError(t, f.pipeline.Reset())

	state := f.pipeline.State()
	assert.True(t, state.Errors.Empty())
	assert.Equal(t, "0", state.Draft.OnHand)
}
