package service

import (
	"context"

	"github.com/contactbook/backend/internal/model"
)

// EmailTakenMessage is the advisory shown when another contact already uses an email.
const EmailTakenMessage = "This email is already taken"

// ListParams carries the request inputs of the contact listing.
type ListParams struct {
	// Page is 1-based and clamped to [1, model.MaxPage].
	Page    int
	Query   string
	Trigger model.Trigger
}

// ListView selects how a listing is rendered.
type ListView int

const (
	// ListViewPage renders the whole list page.
	ListViewPage ListView = iota
	// ListViewRows renders only the table rows, for live search.
	ListViewRows
)

// Listing is the resolved contact listing.
type Listing struct {
	Contacts []*model.Contact
	Page     int
	View     ListView
}

// DeleteResponse is the response shape of a single delete.
type DeleteResponse int

const (
	// DeleteRespondEmpty tells the client to drop the row in place.
	DeleteRespondEmpty DeleteResponse = iota
	// DeleteRespondRedirect sends the client back to the listing.
	DeleteRespondRedirect
)

// ContactService defines the business logic of the contact directory.
type ContactService interface {
	// List returns search results when params.Query is non-empty, otherwise
	// the requested page. The view depends only on params.Trigger.
	List(ctx context.Context, params ListParams) (*Listing, error)

	Count(ctx context.Context) (int64, error)

	// Get returns repository.ErrNotFound when no contact has the id.
	Get(ctx context.Context, id int64) (*model.Contact, error)

	// Create validates and stores a new contact. An invalid form yields a
	// *ValidationError and nothing is written.
	Create(ctx context.Context, form model.ContactForm) (*model.Contact, error)

	// Edit validates the form and overwrites contact id with it.
	Edit(ctx context.Context, id int64, form model.ContactForm) (*model.Contact, error)

	// Delete removes contact id if it exists. A missing id is not an error.
	Delete(ctx context.Context, id int64, trigger model.Trigger) (DeleteResponse, error)

	// BulkDelete removes every contact selected in the raw form body.
	// Only an undecodable body is reported.
	BulkDelete(ctx context.Context, body []byte) error

	// CheckEmailTaken returns "" or EmailTakenMessage.
	CheckEmailTaken(ctx context.Context, email string) (string, error)
}
