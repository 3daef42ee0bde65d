package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydeckapp/querydeck-server/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})
	return s
}

func testQuery(id, creator string) *domain.Query {
	q := &domain.Query{
		ID:      id,
		Title:   "Active users last week",
		Creator: creator,
		Text:    "SELECT * FROM users WHERE last_seen > now() - interval '7 days'",
		Tags:    []string{"users", "activity"},
	}
	q.InitTimestamps()
	return q
}

func TestQueryCRUD(t *testing.T) {
	s := newTestStore(t)

	q := testQuery("qry-1", "usr-1")
	require.NoError(t, s.CreateQuery(q))

	// Duplicate ID is rejected.
	assert.ErrorIs(t, s.CreateQuery(q), ErrAlreadyExists)

	got, err := s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Equal(t, "Active users last week", got.Title)
	assert.Equal(t, "usr-1", got.Creator)

	got.Title = "Weekly active users"
	require.NoError(t, s.UpdateQuery(got))

	got, err = s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Equal(t, "Weekly active users", got.Title)

	require.NoError(t, s.DeleteQuery("qry-1"))
	_, err = s.GetQuery("qry-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteQuery("qry-1"), ErrNotFound)
}

func TestQueryNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetQuery("qry-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	q := testQuery("qry-missing", "usr-1")
	assert.ErrorIs(t, s.UpdateQuery(q), ErrNotFound)
	assert.ErrorIs(t, s.IncrementQueryStars("qry-missing", 1), ErrNotFound)

	_, err = s.AddStaredBy("qry-missing", "usr-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListQueriesFilter(t *testing.T) {
	s := newTestStore(t)

	public := testQuery("qry-public", "usr-1")
	private := testQuery("qry-private", "usr-1")
	private.Private = true
	other := testQuery("qry-other", "usr-2")

	require.NoError(t, s.CreateQuery(public))
	require.NoError(t, s.CreateQuery(private))
	require.NoError(t, s.CreateQuery(other))

	all, err := s.ListQueries(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	visible, err := s.ListQueries(func(q *domain.Query) bool {
		return !q.Private
	})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	for _, q := range visible {
		assert.False(t, q.Private)
	}

	mine, err := s.ListQueries(func(q *domain.Query) bool {
		return q.Creator == "usr-2"
	})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "qry-other", mine[0].ID)
}

func TestStarMembership(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateQuery(testQuery("qry-1", "usr-1")))

	added, err := s.AddStaredBy("qry-1", "usr-2")
	require.NoError(t, err)
	assert.True(t, added)

	// Second add is a no-op.
	added, err = s.AddStaredBy("qry-1", "usr-2")
	require.NoError(t, err)
	assert.False(t, added)

	q, err := s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"usr-2"}, q.StaredBy)

	removed, err := s.RemoveStaredBy("qry-1", "usr-2")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.RemoveStaredBy("qry-1", "usr-2")
	require.NoError(t, err)
	assert.False(t, removed)

	q, err = s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Empty(t, q.StaredBy)
}

func TestForkMembership(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateQuery(testQuery("qry-1", "usr-1")))

	added, err := s.AddForkedBy("qry-1", "usr-2")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddForkedBy("qry-1", "usr-2")
	require.NoError(t, err)
	assert.False(t, added)

	q, err := s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"usr-2"}, q.ForkedBy)
}

func TestCountersClampAtZero(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateQuery(testQuery("qry-1", "usr-1")))

	require.NoError(t, s.IncrementQueryStars("qry-1", 1))
	require.NoError(t, s.IncrementQueryStars("qry-1", 1))
	require.NoError(t, s.IncrementQueryStars("qry-1", -1))

	q, err := s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Equal(t, 1, q.Stars)

	// Decrementing past zero clamps instead of going negative.
	require.NoError(t, s.IncrementQueryStars("qry-1", -5))
	q, err = s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Equal(t, 0, q.Stars)

	require.NoError(t, s.IncrementQueryForks("qry-1", 3))
	q, err = s.GetQuery("qry-1")
	require.NoError(t, err)
	assert.Equal(t, 3, q.Forks)
}

func TestUserCRUD(t *testing.T) {
	s := newTestStore(t)

	u := &domain.User{ID: "usr-1", Username: "ada", Role: domain.RoleMember}
	require.NoError(t, s.CreateUser(u))
	assert.ErrorIs(t, s.CreateUser(u), ErrAlreadyExists)

	got, err := s.GetUser("usr-1")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)

	got.Username = "ada.l"
	require.NoError(t, s.UpdateUser(got))

	got, err = s.GetUser("usr-1")
	require.NoError(t, err)
	assert.Equal(t, "ada.l", got.Username)

	_, err = s.GetUser("usr-missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserCounters(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateUser(&domain.User{ID: "usr-1", Username: "ada"}))

	require.NoError(t, s.IncrementUserStars("usr-1", 1))
	require.NoError(t, s.IncrementUserForks("usr-1", 1))
	require.NoError(t, s.IncrementUserForks("usr-1", 1))

	u, err := s.GetUser("usr-1")
	require.NoError(t, err)
	assert.Equal(t, 1, u.Stars)
	assert.Equal(t, 2, u.Forks)

	require.NoError(t, s.IncrementUserStars("usr-1", -2))
	u, err = s.GetUser("usr-1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Stars)

	assert.ErrorIs(t, s.IncrementUserStars("usr-missing", 1), ErrNotFound)
}

func TestRevisionLog(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateQuery(testQuery("qry-1", "usr-1")))

	rev1, err := s.AppendRevision("qry-1", "SELECT 1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev1.Seq)

	rev2, err := s.AppendRevision("qry-1", "SELECT 2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev2.Seq)

	revs, err := s.ListRevisions("qry-1")
	require.NoError(t, err)
	require.Len(t, revs, 2)
	assert.Equal(t, "SELECT 1", revs[0].Text)
	assert.Equal(t, "SELECT 2", revs[1].Text)

	// Logs are per query.
	other, err := s.ListRevisions("qry-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRevisionLogKeyIsolation(t *testing.T) {
	s := newTestStore(t)

	// "qry-1" must not pick up revisions of "qry-10".
	_, err := s.AppendRevision("qry-1", "one")
	require.NoError(t, err)
	_, err = s.AppendRevision("qry-10", "ten")
	require.NoError(t, err)

	revs, err := s.ListRevisions("qry-1")
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "one", revs[0].Text)
}

func TestRevisionOrderSurvivesManyAppends(t *testing.T) {
	s := newTestStore(t)

	// Enough entries that unpadded sequence numbers would sort wrong
	// (e.g. "10" before "2").
	for range 15 {
		_, err := s.AppendRevision("qry-1", "v")
		require.NoError(t, err)
	}

	revs, err := s.ListRevisions("qry-1")
	require.NoError(t, err)
	require.Len(t, revs, 15)
	for i, rev := range revs {
		assert.Equal(t, int64(i+1), rev.Seq)
	}
}

func TestDeleteRevisions(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AppendRevision("qry-1", "a")
	require.NoError(t, err)
	_, err = s.AppendRevision("qry-1", "b")
	require.NoError(t, err)
	_, err = s.AppendRevision("qry-keep", "c")
	require.NoError(t, err)

	require.NoError(t, s.DeleteRevisions("qry-1"))

	revs, err := s.ListRevisions("qry-1")
	require.NoError(t, err)
	assert.Empty(t, revs)

	// The sequence counter resets along with the log.
	rev, err := s.AppendRevision("qry-1", "fresh")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev.Seq)

	kept, err := s.ListRevisions("qry-keep")
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	page, err := Paginate(items, 3, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, page)

	page, err = Paginate(items, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5, 6}, page)

	// Last page is short.
	page, err = Paginate(items, 3, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, page)

	// Past the end: empty, not an error.
	page, err = Paginate(items, 3, 4)
	require.NoError(t, err)
	assert.Empty(t, page)

	// pageSize <= 0 disables pagination.
	page, err = Paginate(items, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, items, page)

	_, err = Paginate(items, 3, 0)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = Paginate(items, 3, -1)
	assert.ErrorIs(t, err, ErrInvalidPage)
}
