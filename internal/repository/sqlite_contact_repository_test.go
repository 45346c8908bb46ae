package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/contactbook/backend/internal/model"
)

func newTestSqliteRepo(t *testing.T) *SqliteContactRepository {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "contacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = NewSqliteMigrator(db).Up(ctx)
	require.NoError(t, err)
	return NewSqliteContactRepository(db)
}

func mustCreate(t *testing.T, r ContactRepository, first, last, phone, email string) *model.Contact {
	t.Helper()
	c, err := r.Create(context.Background(), model.ContactForm{
		FirstName: first, LastName: last, Phone: phone, Email: email,
	})
	require.NoError(t, err)
	return c
}

func TestSqliteContactRepository_CreateAssignsID(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	a := mustCreate(t, r, "testa", "Lovelace", "555-0100", "ada@example.com")
	b := mustCreate(t, r, "testb", "", "555-0101", "grace@example.com")

	require.NotZero(t, a.ID)
	require.NotEqual(t, a.ID, b.ID)

	got, err := r.GetByID(ctx, a.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(a, got); diff != "" {
		t.Errorf("GetByID mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteContactRepository_GetByID_NotFound(t *testing.T) {
	r := newTestSqliteRepo(t)

	_, err := r.GetByID(context.Background(), 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSqliteContactRepository_IDOutsideSerialRange(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()
	// A closed store would answer any real query with a StoreError.
	require.NoError(t, r.db.Close())

	for _, id := range []int64{0, -1, 3000000000} {
		_, err := r.GetByID(ctx, id)
		require.ErrorIs(t, err, ErrNotFound, "id %d", id)

		_, err = r.Update(ctx, &model.Contact{ID: id, First: "testa"})
		require.ErrorIs(t, err, ErrNotFound, "id %d", id)

		require.False(t, r.Delete(ctx, &model.Contact{ID: id}), "id %d", id)
	}
}

func TestSqliteContactRepository_Count(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	n, err := r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 0, n)

	for i := 0; i < 3; i++ {
		mustCreate(t, r, fmt.Sprintf("test%d", i), "", "", "")
	}
	n, err = r.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, n)
}

func TestSqliteContactRepository_ListPage_PartitionsRows(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	var all []*model.Contact
	for i := 0; i < 12; i++ {
		all = append(all, mustCreate(t, r, fmt.Sprintf("test%02d", i), "", "", ""))
	}

	var seen []*model.Contact
	for page, wantLen := range map[int]int{1: 5, 2: 5, 3: 2, 4: 0} {
		got, err := r.ListPage(ctx, model.Offset(page))
		require.NoError(t, err)
		require.Len(t, got, wantLen, "page %d", page)
	}
	for page := 1; page <= 3; page++ {
		got, err := r.ListPage(ctx, model.Offset(page))
		require.NoError(t, err)
		seen = append(seen, got...)
	}
	if diff := cmp.Diff(all, seen); diff != "" {
		t.Errorf("pages do not partition the table (-want +got):\n%s", diff)
	}
}

func TestSqliteContactRepository_Search_MatchesAnyField(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	byFirst := mustCreate(t, r, "testJoe", "Smith", "555-1111", "joe@example.com")
	byLast := mustCreate(t, r, "testAnn", "Joestar", "555-2222", "ann@example.com")
	byPhone := mustCreate(t, r, "testBo", "Li", "555-Joe", "bo@example.com")
	byEmail := mustCreate(t, r, "testCy", "Wu", "555-3333", "Joe.cy@example.com")
	mustCreate(t, r, "testDee", "joe", "555-4444", "dee@example.com")

	got, err := r.Search(ctx, "Joe")
	require.NoError(t, err)
	if diff := cmp.Diff([]*model.Contact{byFirst, byLast, byPhone, byEmail}, got); diff != "" {
		t.Errorf("Search mismatch (-want +got):\n%s", diff)
	}
}

func TestSqliteContactRepository_Search_IsNotPaginated(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	for i := 0; i < model.PageSize*2+1; i++ {
		mustCreate(t, r, fmt.Sprintf("test%d", i), "Match", "", "")
	}
	got, err := r.Search(ctx, "Match")
	require.NoError(t, err)
	require.Len(t, got, model.PageSize*2+1)
}

func TestSqliteContactRepository_NullLast(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (first, last, phone, email) VALUES ('testnull', NULL, '1', 'n@example.com')`)
	require.NoError(t, err)

	got, err := r.Search(ctx, "testnull")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "", got[0].Last)
}

func TestSqliteContactRepository_FindByExactEmail(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "testa", "", "", "a@example.com")
	mustCreate(t, r, "testb", "", "", "aa@example.com")

	got, err := r.FindByExactEmail(ctx, "a@example.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "testa", got[0].First)

	got, err = r.FindByExactEmail(ctx, "example.com")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestSqliteContactRepository_Update(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	c := mustCreate(t, r, "testa", "Old", "1", "old@example.com")
	edited := model.NewContactForm(c)
	edited.LastName = "New"
	edited.Email = "new@example.com"

	got, err := r.Update(ctx, edited.Contact(c.ID))
	require.NoError(t, err)
	want := &model.Contact{ID: c.ID, First: "testa", Last: "New", Phone: "1", Email: "new@example.com"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Update mismatch (-want +got):\n%s", diff)
	}

	_, err = r.Update(ctx, &model.Contact{ID: c.ID + 100, First: "testx"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSqliteContactRepository_Delete(t *testing.T) {
	r := newTestSqliteRepo(t)
	ctx := context.Background()

	c := mustCreate(t, r, "testa", "", "", "")
	require.True(t, r.Delete(ctx, c))
	require.False(t, r.Delete(ctx, c), "second delete removes nothing")

	_, err := r.GetByID(ctx, c.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSqliteContactRepository_StoreError(t *testing.T) {
	r := newTestSqliteRepo(t)
	require.NoError(t, r.db.Close())

	_, err := r.Count(context.Background())
	var se *StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "count", se.Op)
}
