package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/contactbook/backend/internal/model"
)

// ContactRepository defines the persistence interface for contacts.
// It is defined here (in repository) to avoid an import cycle with service.
type ContactRepository interface {
	Count(ctx context.Context) (int64, error)
	// ListPage returns at most model.PageSize contacts starting offset rows in.
	ListPage(ctx context.Context, offset int) ([]*model.Contact, error)
	// GetByID returns ErrNotFound for a missing row, and without querying
	// for an id outside model.ValidID.
	GetByID(ctx context.Context, id int64) (*model.Contact, error)
	// Search returns every contact whose first, last, phone or email contains
	// text. Results are not paginated.
	Search(ctx context.Context, text string) ([]*model.Contact, error)
	FindByExactEmail(ctx context.Context, email string) ([]*model.Contact, error)
	Create(ctx context.Context, form model.ContactForm) (*model.Contact, error)
	// Update overwrites every mutable field of the row with c.ID.
	Update(ctx context.Context, c *model.Contact) (*model.Contact, error)
	// Delete reports whether exactly one row was removed. Failures are
	// reported as false, never as an error.
	Delete(ctx context.Context, c *model.Contact) bool
}

const contactTable = "contacts"

var contactColumns = []string{"id", "first", "COALESCE(last, '') AS last", "phone", "email"}

// contactQueries builds the SQL for ContactRepository in a given dialect.
type contactQueries struct {
	qb sq.StatementBuilderType
	// contains is a fmt template taking a column name; its single ? is the needle.
	contains string
}

var (
	postgresQueries = contactQueries{
		qb:       sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		contains: "position(? in %s) > 0",
	}
	sqliteQueries = contactQueries{
		qb:       sq.StatementBuilder.PlaceholderFormat(sq.Question),
		contains: "instr(%s, ?) > 0",
	}
)

func (q contactQueries) selectContacts() sq.SelectBuilder {
	return q.qb.Select(contactColumns...).From(contactTable)
}

func (q contactQueries) count() (string, []any, error) {
	return q.qb.Select("count(id)").From(contactTable).ToSql()
}

// listPage orders by id so consecutive pages never overlap.
func (q contactQueries) listPage(offset int) (string, []any, error) {
	if offset < 0 {
		offset = 0
	}
	return q.selectContacts().
		OrderBy("id").
		Limit(model.PageSize).
		Offset(uint64(offset)).
		ToSql()
}

func (q contactQueries) byID(id int64) (string, []any, error) {
	return q.selectContacts().Where(sq.Eq{"id": id}).ToSql()
}

func (q contactQueries) search(text string) (string, []any, error) {
	var match sq.Or
	for _, col := range []string{"first", "last", "phone", "email"} {
		match = append(match, sq.Expr(fmt.Sprintf(q.contains, col), text))
	}
	return q.selectContacts().Where(match).OrderBy("id").ToSql()
}

func (q contactQueries) byEmail(email string) (string, []any, error) {
	return q.selectContacts().Where(sq.Eq{"email": email}).OrderBy("id").ToSql()
}

func (q contactQueries) insert(f model.ContactForm) (string, []any, error) {
	return q.qb.Insert(contactTable).
		Columns("first", "last", "phone", "email").
		Values(f.FirstName, f.LastName, f.Phone, f.Email).
		Suffix(returningContact).
		ToSql()
}

func (q contactQueries) update(c *model.Contact) (string, []any, error) {
	return q.qb.Update(contactTable).
		Set("first", c.First).
		Set("last", c.Last).
		Set("phone", c.Phone).
		Set("email", c.Email).
		Where(sq.Eq{"id": c.ID}).
		Suffix(returningContact).
		ToSql()
}

func (q contactQueries) delete(id int64) (string, []any, error) {
	return q.qb.Delete(contactTable).Where(sq.Eq{"id": id}).ToSql()
}

const returningContact = "RETURNING id, first, COALESCE(last, '') AS last, phone, email"

func scanContact(scan func(...any) error) (*model.Contact, error) {
	var c model.Contact
	if err := scan(&c.ID, &c.First, &c.Last, &c.Phone, &c.Email); err != nil {
		return nil, err
	}
	return &c, nil
}
