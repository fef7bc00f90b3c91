package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	gh "verifiedorgs/internal/adapters/github"
	perr "verifiedorgs/internal/platform/errors"
	pstrings "verifiedorgs/internal/platform/strings"
	"verifiedorgs/internal/services/harvest/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceCursor hands out a fixed list
type sliceCursor struct {
	mu    sync.Mutex
	items []domain.Candidate
	err   error
}

func (c *sliceCursor) Next() (domain.Candidate, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return domain.Candidate{}, false, c.err
	}
	next := c.items[0]
	c.items = c.items[1:]
	return next, true, nil
}

func (c *sliceCursor) left() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

type orgReply struct {
	org gh.Organization
	err error
}

// fakeDir answers from maps keyed by handle
type fakeDir struct {
	mu      sync.Mutex
	exists  map[string]error // nil error means present
	absent  map[string]bool
	orgs    map[string]orgReply
	fetched []string
	panicOn string
}

func (d *fakeDir) Exists(_ context.Context, handle string) (bool, error) {
	if handle == d.panicOn {
		panic("directory exploded")
	}
	if d.absent[handle] {
		return false, nil
	}
	if err, ok := d.exists[handle]; ok && err != nil {
		return false, err
	}
	return true, nil
}

func (d *fakeDir) Organization(_ context.Context, login string) (gh.Organization, error) {
	d.mu.Lock()
	d.fetched = append(d.fetched, login)
	d.mu.Unlock()
	r, ok := d.orgs[login]
	if !ok {
		return gh.Organization{}, perr.Wrap(&gh.StatusError{Status: 404}, perr.ErrorCodeNotFound, "github unexpected status")
	}
	return r.org, r.err
}

type countingPacer struct{ n atomic.Int32 }

func (p *countingPacer) Pace(ctx context.Context) error {
	p.n.Add(1)
	return ctx.Err()
}

type memSink struct {
	mu   sync.Mutex
	recs []domain.OrganizationRecord
	err  error
}

func (s *memSink) Append(_ context.Context, rec domain.OrganizationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.recs = append(s.recs, rec)
	return nil
}

func (s *memSink) Close() error { return nil }

func (s *memSink) records() []domain.OrganizationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrganizationRecord(nil), s.recs...)
}

func verified(login string, id int64) gh.Organization {
	yes := true
	return gh.Organization{
		Login:                   login,
		ID:                      id,
		Name:                    pstrings.Ptr("Name " + login),
		Company:                 pstrings.Ptr("Co"),
		Blog:                    pstrings.Ptr("https://" + login + ".dev"),
		Email:                   nil,
		TwitterUsername:         pstrings.Ptr("@" + login),
		IsVerified:              &yes,
		HasOrganizationProjects: true,
		HasRepositoryProjects:   true,
		PublicRepos:             7,
		PublicGists:             2,
		HTMLURL:                 "https://github.com/" + login,
		CreatedAt:               "2012-03-04T05:06:07Z",
		UpdatedAt:               "2023-08-09T10:11:12Z",
		Type:                    "Organization",
		Raw:                     []byte(`{"login":"` + login + `"}`),
	}
}

func newWorker(cur domain.Cursor, dir Directory, p domain.Pacer, s domain.Sink) *worker {
	tr := NewTracker(1000)
	tr.Begin("run", 1, 0, 1)
	return &worker{id: 0, cursor: cur, dir: dir, pacer: p, sink: s, progress: tr}
}

func TestWorker_VerifiedRecordCopiedUnchanged(t *testing.T) {
	org := verified("acme", 42)
	dir := &fakeDir{orgs: map[string]orgReply{"acme": {org: org}}}
	cur := &sliceCursor{items: []domain.Candidate{{ID: 42, Handle: "acme"}}}
	out := &memSink{}
	pacer := &countingPacer{}

	w := newWorker(cur, dir, pacer, out)
	require.NoError(t, w.run(context.Background()))

	recs := out.records()
	require.Len(t, recs, 1)
	assert.Equal(t, domain.OrganizationRecord{
		Login:                   "acme",
		ID:                      42,
		Name:                    org.Name,
		Company:                 org.Company,
		Blog:                    org.Blog,
		Email:                   nil,
		TwitterUsername:         org.TwitterUsername,
		IsVerified:              true,
		HasOrganizationProjects: true,
		HasRepositoryProjects:   true,
		PublicRepos:             7,
		PublicGists:             2,
		HTMLURL:                 "https://github.com/acme",
		CreatedAt:               "2012-03-04T05:06:07Z",
		UpdatedAt:               "2023-08-09T10:11:12Z",
		Type:                    "Organization",
	}, recs[0])
	assert.Len(t, recs[0].Row(), len(domain.Columns))
	assert.Equal(t, int32(1), pacer.n.Load())

	snap := w.progress.Snapshot()
	assert.Equal(t, int64(1), snap.Written)
	assert.Equal(t, domain.WorkerExhausted, snap.Workers[0].State)
	assert.InDelta(t, 4.2, snap.Percent, 1e-9)
}

func TestWorker_NotFoundOnEitherHostSkipsAndAdvances(t *testing.T) {
	dir := &fakeDir{
		absent: map[string]bool{"ghost": true},
		orgs:   map[string]orgReply{"real": {org: verified("real", 3)}},
	}
	cur := &sliceCursor{items: []domain.Candidate{
		{ID: 1, Handle: "ghost"},  // 404 on the web host
		{ID: 2, Handle: "usernm"}, // exists on web, 404 on API
		{ID: 3, Handle: "real"},
	}}
	out := &memSink{}
	pacer := &countingPacer{}

	w := newWorker(cur, dir, pacer, out)
	require.NoError(t, w.run(context.Background()))

	recs := out.records()
	require.Len(t, recs, 1)
	assert.Equal(t, int64(3), recs[0].ID)
	assert.Equal(t, []string{"usernm", "real"}, dir.fetched, "web 404 must not reach the API")
	assert.Equal(t, int32(2), pacer.n.Load(), "pace after every detail fetch")
	assert.Equal(t, int64(2), w.progress.Snapshot().NotFound)
	assert.Zero(t, cur.left())
}

func TestWorker_UnverifiedSkipped(t *testing.T) {
	no := false
	org := verified("plain", 5)
	org.IsVerified = &no
	dir := &fakeDir{orgs: map[string]orgReply{"plain": {org: org}}}
	cur := &sliceCursor{items: []domain.Candidate{{ID: 5, Handle: "plain"}}}
	out := &memSink{}

	w := newWorker(cur, dir, &countingPacer{}, out)
	require.NoError(t, w.run(context.Background()))
	assert.Empty(t, out.records())
	assert.Equal(t, int64(1), w.progress.Snapshot().Unverified)
}

func TestWorker_MissingVerifiedFieldStopsWithoutWriting(t *testing.T) {
	drift := verified("drift", 8)
	drift.IsVerified = nil
	dir := &fakeDir{orgs: map[string]orgReply{
		"drift": {org: drift},
		"later": {org: verified("later", 9)},
	}}
	cur := &sliceCursor{items: []domain.Candidate{{ID: 8, Handle: "drift"}, {ID: 9, Handle: "later"}}}
	out := &memSink{}

	w := newWorker(cur, dir, &countingPacer{}, out)
	require.NotPanics(t, func() {
		require.NoError(t, w.run(context.Background()))
	})
	assert.Empty(t, out.records())
	assert.Equal(t, 1, cur.left(), "worker must stop at the drifted document")

	wp := w.progress.Snapshot().Workers[0]
	assert.Equal(t, domain.WorkerFailed, wp.State)
	assert.Contains(t, wp.Reason, "is_verified")
}

func TestWorker_FatalConditionsEndOnlyThisWorker(t *testing.T) {
	cases := map[string]struct {
		dir  *fakeDir
		sink *memSink
	}{
		"existence transport": {
			dir:  &fakeDir{exists: map[string]error{"a": perr.Unavailablef("dial tcp: refused")}},
			sink: &memSink{},
		},
		"existence unexpected status": {
			dir: &fakeDir{exists: map[string]error{"a": perr.Wrap(&gh.StatusError{Status: 500, Body: "oops"},
				perr.ErrorCodeUnavailable, "github unexpected status")}},
			sink: &memSink{},
		},
		"detail unexpected status": {
			dir: &fakeDir{orgs: map[string]orgReply{"a": {err: perr.Wrap(&gh.StatusError{Status: 401, Body: "Bad credentials"},
				perr.ErrorCodeUnauthorized, "github unexpected status")}}},
			sink: &memSink{},
		},
		"durability": {
			dir:  &fakeDir{orgs: map[string]orgReply{"a": {org: verified("a", 1)}}},
			sink: &memSink{err: perr.IOf("sync row: disk full")},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cur := &sliceCursor{items: []domain.Candidate{{ID: 1, Handle: "a"}, {ID: 2, Handle: "b"}}}
			w := newWorker(cur, tc.dir, &countingPacer{}, tc.sink)
			require.NoError(t, w.run(context.Background()))
			assert.Equal(t, 1, cur.left())
			assert.Equal(t, domain.WorkerFailed, w.progress.Snapshot().Workers[0].State)
		})
	}
}

func TestWorker_CursorErrorEndsWorker(t *testing.T) {
	cur := &sliceCursor{err: perr.IOf("read seed row")}
	w := newWorker(cur, &fakeDir{}, &countingPacer{}, &memSink{})
	require.NoError(t, w.run(context.Background()))
	assert.Equal(t, domain.WorkerFailed, w.progress.Snapshot().Workers[0].State)
}

func TestWorker_PanicEscalates(t *testing.T) {
	cur := &sliceCursor{items: []domain.Candidate{{ID: 1, Handle: "boom"}}}
	w := newWorker(cur, &fakeDir{panicOn: "boom"}, &countingPacer{}, &memSink{})
	err := w.run(context.Background())
	require.Error(t, err)
	assert.True(t, perr.IsCode(err, perr.ErrorCodePanic))
}

func TestWorker_CanceledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cur := &sliceCursor{items: []domain.Candidate{{ID: 1, Handle: "a"}}}
	w := newWorker(cur, &fakeDir{}, &countingPacer{}, &memSink{})
	require.NoError(t, w.run(ctx))
	assert.Equal(t, 1, cur.left())
	assert.Equal(t, domain.WorkerStopped, w.progress.Snapshot().Workers[0].State)
}

func TestWorker_PaceCanceledMidFetch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	dir := &fakeDir{orgs: map[string]orgReply{"a": {org: verified("a", 1)}}}
	cur := &sliceCursor{items: []domain.Candidate{{ID: 1, Handle: "a"}}}
	out := &memSink{}
	p := pacerFunc(func(context.Context) error {
		cancel()
		return context.Canceled
	})

	w := newWorker(cur, dir, p, out)
	require.NoError(t, w.run(ctx))
	assert.Empty(t, out.records())
	assert.Equal(t, domain.WorkerStopped, w.progress.Snapshot().Workers[0].State)
}

type pacerFunc func(context.Context) error

func (f pacerFunc) Pace(ctx context.Context) error { return f(ctx) }

func TestRecordFrom_NilVerifiedIsFalse(t *testing.T) {
	org := verified("x", 1)
	org.IsVerified = nil
	assert.False(t, recordFrom(org).IsVerified)
}
