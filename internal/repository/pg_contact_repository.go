package repository

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contactbook/backend/internal/model"
)

// PgContactRepository is the PostgreSQL implementation of ContactRepository.
type PgContactRepository struct {
	pool *pgxpool.Pool
	q    contactQueries
}

// NewPgContactRepository creates a PgContactRepository backed by the given pool.
func NewPgContactRepository(pool *pgxpool.Pool) *PgContactRepository {
	return &PgContactRepository{pool: pool, q: postgresQueries}
}

// Ensure PgContactRepository implements ContactRepository at compile time.
var _ ContactRepository = (*PgContactRepository)(nil)

// Ping は DB 接続を確認する（DB インターフェース実装）
func (r *PgContactRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *PgContactRepository) Count(ctx context.Context) (int64, error) {
	query, args, err := r.q.count()
	if err != nil {
		return 0, storeErr("count", err)
	}
	var n int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

func (r *PgContactRepository) ListPage(ctx context.Context, offset int) ([]*model.Contact, error) {
	query, args, err := r.q.listPage(offset)
	if err != nil {
		return nil, storeErr("list", err)
	}
	return r.queryContacts(ctx, "list", query, args)
}

func (r *PgContactRepository) GetByID(ctx context.Context, id int64) (*model.Contact, error) {
	if !model.ValidID(id) {
		return nil, ErrNotFound
	}
	query, args, err := r.q.byID(id)
	if err != nil {
		return nil, storeErr("get", err)
	}
	return r.queryContact(ctx, "get", query, args)
}

func (r *PgContactRepository) Search(ctx context.Context, text string) ([]*model.Contact, error) {
	query, args, err := r.q.search(text)
	if err != nil {
		return nil, storeErr("search", err)
	}
	return r.queryContacts(ctx, "search", query, args)
}

func (r *PgContactRepository) FindByExactEmail(ctx context.Context, email string) ([]*model.Contact, error) {
	query, args, err := r.q.byEmail(email)
	if err != nil {
		return nil, storeErr("find by email", err)
	}
	return r.queryContacts(ctx, "find by email", query, args)
}

// Create inserts a new contacts row; the id comes from the RETURNING clause.
func (r *PgContactRepository) Create(ctx context.Context, form model.ContactForm) (*model.Contact, error) {
	query, args, err := r.q.insert(form)
	if err != nil {
		return nil, storeErr("create", err)
	}
	return r.queryContact(ctx, "create", query, args)
}

func (r *PgContactRepository) Update(ctx context.Context, c *model.Contact) (*model.Contact, error) {
	if !model.ValidID(c.ID) {
		return nil, ErrNotFound
	}
	query, args, err := r.q.update(c)
	if err != nil {
		return nil, storeErr("update", err)
	}
	return r.queryContact(ctx, "update", query, args)
}

func (r *PgContactRepository) Delete(ctx context.Context, c *model.Contact) bool {
	if !model.ValidID(c.ID) {
		return false
	}
	query, args, err := r.q.delete(c.ID)
	if err != nil {
		slog.WarnContext(ctx, "contact delete failed", "id", c.ID, "error", err)
		return false
	}
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		slog.WarnContext(ctx, "contact delete failed", "id", c.ID, "error", err)
		return false
	}
	return tag.RowsAffected() == 1
}

func (r *PgContactRepository) queryContact(ctx context.Context, op, query string, args []any) (*model.Contact, error) {
	c, err := scanContact(r.pool.QueryRow(ctx, query, args...).Scan)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storeErr(op, err)
	}
	return c, nil
}

func (r *PgContactRepository) queryContacts(ctx context.Context, op, query string, args []any) ([]*model.Contact, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	contacts := []*model.Contact{}
	for rows.Next() {
		c, err := scanContact(rows.Scan)
		if err != nil {
			return nil, storeErr(op, err)
		}
		contacts = append(contacts, c)
	}
	return contacts, storeErr(op, rows.Err())
}
