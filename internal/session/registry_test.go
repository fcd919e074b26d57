package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smallbiznis/catalogadmin/internal/clock"
	"github.com/smallbiznis/catalogadmin/internal/config"
	"github.com/smallbiznis/catalogadmin/internal/notify"
	"github.com/smallbiznis/catalogadmin/internal/product/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	mu    sync.Mutex
	lists int
}

func (s *stubRepository) List(ctx context.Context, q domain.ListQuery) (domain.PagedResult, error) {
	s.mu.Lock()
	s.lists++
	s.mu.Unlock()
	return domain.PagedResult{Content: []domain.Record{}, TotalPages: 1}, nil
}

func (s *stubRepository) Get(ctx context.Context, id int64) (domain.Record, error) {
	return domain.Record{ID: &id}, nil
}

func (s *stubRepository) Create(ctx context.Context, r domain.Record) (domain.Record, error) {
	return r, nil
}

func (s *stubRepository) Update(ctx context.Context, id int64, r domain.Record) (domain.Record, error) {
	return r, nil
}

func newRegistry(fake *clock.FakeClock) *Registry {
	return New(Deps{
		Repository:      &stubRepository{},
		Clock:           fake,
		TTL:             time.Minute,
		PageSizes:       func() []int { return []int{5, 10, 25, 50} },
		DefaultPageSize: func() int { return 25 },
	})
}

func TestResolveCreatesAndReuses(t *testing.T) {
	r := newRegistry(clock.NewFakeClock(time.Now()))

	view, created := r.Resolve("")
	require.True(t, created)
	_, err := uuid.Parse(view.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, view.Query.Snapshot().Query.PageSize)

	again, created := r.Resolve(view.ID)
	assert.False(t, created)
	assert.Same(t, view, again)
}

func TestResolveReplacesMalformedID(t *testing.T) {
	r := newRegistry(clock.NewFakeClock(time.Now()))

	view, created := r.Resolve("not-a-uuid")

	assert.True(t, created)
	assert.NotEqual(t, "not-a-uuid", view.ID)
}

func TestResolveKeepsUnknownValidID(t *testing.T) {
	r := newRegistry(clock.NewFakeClock(time.Now()))
	id := uuid.NewString()

	view, created := r.Resolve(id)

	assert.True(t, created)
	assert.Equal(t, id, view.ID)
}

func TestIdleViewExpiresAndCloses(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	r := newRegistry(fake)

	view, _ := r.Resolve("")
	fake.Advance(30 * time.Second)
	_, created := r.Resolve(view.ID)
	require.False(t, created)

	fake.Advance(45 * time.Second)
	_, ok := r.Lookup(view.ID)
	assert.True(t, ok)

	fake.Advance(time.Minute)
	assert.Equal(t, 1, r.Sweep())
	assert.True(t, view.Query.Closed())
	assert.Equal(t, 0, r.Len())

	next, created := r.Resolve(view.ID)
	assert.True(t, created)
	assert.NotSame(t, view, next)
}

func TestCloseRemovesView(t *testing.T) {
	r := newRegistry(clock.NewFakeClock(time.Now()))
	view, _ := r.Resolve("")

	r.Close(view.ID)

	_, ok := r.Lookup(view.ID)
	assert.False(t, ok)
	assert.True(t, view.Query.Closed())
}

func TestViewsAreIsolated(t *testing.T) {
	r := newRegistry(clock.NewFakeClock(time.Now()))
	a, _ := r.Resolve("")
	b, _ := r.Resolve("")

	require.NoError(t, a.Form.SetField("name", "Lamp"))
	a.Notices.Notify(notify.Info("hello"))

	assert.Empty(t, b.Form.State().Draft.Name)
	assert.Empty(t, b.Notices.Peek())
}

func TestCookieManager(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewManager(config.Config{ViewSessionTTL: time.Hour, CookieSecure: true})
	id := uuid.NewString()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	m.Set(c, id)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, DefaultCookieName, cookies[0].Name)
	assert.Equal(t, 3600, cookies[0].MaxAge)
	assert.True(t, cookies[0].HttpOnly)
	assert.True(t, cookies[0].Secure)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: id})
	c, _ = gin.CreateTestContext(httptest.NewRecorder())
	c.Request = req
	got, ok := m.ReadID(c)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: DefaultCookieName, Value: "garbage"})
	c.Request = req
	_, ok = m.ReadID(c)
	assert.False(t, ok)
}
