package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/contactbook/backend/internal/model"
)

// SqliteContactRepository is the SQLite implementation of ContactRepository,
// used for local development and tests.
type SqliteContactRepository struct {
	db *sqlx.DB
	q  contactQueries
}

// NewSqliteContactRepository creates a SqliteContactRepository backed by db.
func NewSqliteContactRepository(db *sqlx.DB) *SqliteContactRepository {
	return &SqliteContactRepository{db: db, q: sqliteQueries}
}

var _ ContactRepository = (*SqliteContactRepository)(nil)

func (r *SqliteContactRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SqliteContactRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := r.q.count()
	if err != nil {
		return 0, storeErr("count", err)
	}
	var n int64
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

func (r *SqliteContactRepository) ListPage(ctx context.Context, offset int) ([]*model.Contact, error) {
	query, args, err := r.q.listPage(offset)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return r.selectContacts(ctx, "list", query, args)
}

func (r *SqliteContactRepository) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	if !model.ValidID(id) {
		return nil, ErrNotFound
	}
	query, args, err := r.q.byID(id)
	if err != nil {
		return nil, storeErr("get", err)
	}
	return r.getContact(ctx, "get", query, args)
}

func (r *SqliteContactRepository) Search(ctx context.Context, text string) ([]*model.Contact, error) {
	query, args, err := r.q.search(text)
	if err != nil {
		return nil, storeErr("search", err)
	}
	return r.selectContacts(ctx, "search", query, args)
}

func (r *SqliteContactRepository) FindByExactEmail(ctx context.Context, email string) ([]*model.Contact, error) {
	query, args, err := r.q.byEmail(email)
	if err != nil {
		return nil, storeErr("find by email", err)
	}
	return r.selectContacts(ctx, "find by email", query, args)
}

func (r *SqliteContactRepository) Create(ctx context.Context, form model.ContactForm) (*model.Contact, error) {
	query, args, err := r.q.insert(form)
	if err != nil {
		return nil, storeErr("create", err)
	}
	return r.getContact(ctx, "create", query, args)
}

func (r *SqliteContactRepository) Update(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	if !model.ValidID(c.ID) {
		return nil, ErrNotFound
	}
	query, args, err := r.q.update(c)
	if err != nil {
		return nil, storeErr("update", err)
	}
	return r.getContact(ctx, "update", query, args)
}

func (r *SqliteContactRepository) Delete(ctx context.Context, c *model.Contact) bool {
	if !model.ValidID(c.ID) {
		return false
	}
	query, args, err := r.q.delete(c.ID)
	if err != nil {
		slog.WarnContext(ctx, "contact delete failed", "id", c.ID, "error", err)
		return false
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		slog.WarnContext(ctx, "contact delete failed", "id", c.ID, "error", err)
		return false
	}
	n, err := res.RowsAffected()
	return err == nil && n == 1
}

func (r *SqliteContactRepository) getContact(ctx context.Context, op, query string, args []any) (*model.Contact, error) {
	var c model.Contact
	err := r.db.GetContext(ctx, &c, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	return &c, nil
}

func (r *SqliteContactRepository) selectContacts(ctx context.Context, op, query string, args []any) ([]*model.Contact, error) {
	contacts := []*model.Contact{}
	if err := r.db.SelectContext(ctx, &contacts, query, args...); err != nil {
		return nil, storeErr(op, err)
	}
	return contacts, nil
}
