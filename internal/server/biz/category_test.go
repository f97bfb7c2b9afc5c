package biz

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatohq/mercato/internal/authz"
	"github.com/mercatohq/mercato/internal/contexts"
	"github.com/mercatohq/mercato/internal/objects"
	"github.com/mercatohq/mercato/internal/server/db"
)

func newMockDB(t *testing.T) (*db.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	t.Cleanup(func() { _ = sqlDB.Close() })

	return db.New(sqlDB, time.Second), mock
}

func editorContext() context.Context {
	return contexts.WithIdentity(context.Background(),
		&authz.Identity{SubjectID: "7", Role: authz.RoleEditor})
}

func adminContext() context.Context {
	return contexts.WithIdentity(context.Background(),
		&authz.Identity{SubjectID: "1", Role: authz.RoleAdmin})
}

func expectIdentity(mock sqlmock.Sqlmock, subject, role string) {
	mock.ExpectExec(regexp.QuoteMeta(`SELECT set_config('app.user_id', $1, true), set_config('app.user_role', $2, true)`)).
		WithArgs(subject, role).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

var categoryColumns = []string{"id", "slug", "name", "description", "parent_id", "position", "published", "created_at", "updated_at"}

func TestCreateCategoryDerivesSlug(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewCategoryService(CategoryServiceParams{DB: database})

	now := time.Now()

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories`)).
		WithArgs("industrial-machinery", "Industrial Machinery", "", nil, 0, true).
		WillReturnRows(sqlmock.NewRows(categoryColumns).
			AddRow(1, "industrial-machinery", "Industrial Machinery", "", nil, 0, true, now, now))
	mock.ExpectCommit()

	info, err := svc.CreateCategory(editorContext(), CreateCategoryInput{
		Name:      "Industrial Machinery",
		Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "industrial-machinery", info.Slug)
	assert.Equal(t, int64(1), info.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCategoryRejectsInvalidInput(t *testing.T) {
	database, _ := newMockDB(t)
	svc := NewCategoryService(CategoryServiceParams{DB: database})

	_, err := svc.CreateCategory(context.Background(), CreateCategoryInput{Name: "   "})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)

	_, err = svc.CreateCategory(context.Background(), CreateCategoryInput{
		Name: "Pumps",
		Slug: "Not A Slug",
	})
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "slug", vErr.Field)
}

func TestCreateCategorySlugConflict(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewCategoryService(CategoryServiceParams{DB: database})

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO categories`)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key"})
	mock.ExpectRollback()

	_, err := svc.CreateCategory(editorContext(), CreateCategoryInput{Name: "Industrial Machinery"})
	assert.ErrorIs(t, err, ErrSlugConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCategoryNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewCategoryService(CategoryServiceParams{DB: database})

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE categories SET`)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	name := "Renamed"

	_, err := svc.UpdateCategory(editorContext(), 99, UpdateCategoryInput{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCategoryNotFound(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewCategoryService(CategoryServiceParams{DB: database})

	mock.ExpectBegin()
	expectIdentity(mock, "7", "editor")
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM categories WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := svc.DeleteCategory(editorContext(), 99)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryTreeCachesAnonymousResult(t *testing.T) {
	database, mock := newMockDB(t)
	svc := NewCategoryService(CategoryServiceParams{DB: database})

	now := time.Now()

	// One query expectation only: the second call must come from cache.
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, slug, name, description, parent_id, position, published, created_at, updated_at`)).
		WillReturnRows(sqlmock.NewRows(categoryColumns).
			AddRow(1, "machines", "Machines", "", nil, 0, true, now, now))
	mock.ExpectCommit()

	first, err := svc.CategoryTree(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := svc.CategoryTree(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBuildCategoryTree(t *testing.T) {
	id := func(v int64) *int64 { return &v }

	flat := []objects.CategoryInfo{
		{ID: 1, Slug: "machines"},
		{ID: 2, Slug: "pumps", ParentID: id(1)},
		{ID: 3, Slug: "valves", ParentID: id(1)},
		{ID: 4, Slug: "gear-pumps", ParentID: id(2)},
		{ID: 5, Slug: "orphan", ParentID: id(42)},
	}

	tree := buildCategoryTree(flat)

	require.Len(t, tree, 2)
	assert.Equal(t, "machines", tree[0].Slug)
	// A node whose parent is invisible is promoted to the root, not dropped.
	assert.Equal(t, "orphan", tree[1].Slug)

	machines := tree[0]
	require.Len(t, machines.Children, 2)
	assert.Equal(t, "pumps", machines.Children[0].Slug)
	assert.Equal(t, "valves", machines.Children[1].Slug)

	pumps := machines.Children[0]
	require.Len(t, pumps.Children, 1)
	assert.Equal(t, "gear-pumps", pumps.Children[0].Slug)
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "industrial-machinery", Slugify("Industrial Machinery"))
	assert.Equal(t, "cafe-glace", Slugify("Café Glacé"))
	assert.Equal(t, "a-b-c", Slugify("a   b / c"))
}
