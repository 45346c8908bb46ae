package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/contactbook/backend/internal/model"
	"github.com/contactbook/backend/internal/repository"
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	repo repository.ContactRepository
}

// NewContactService creates a ContactService backed by the given repository.
func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactServiceImpl{repo: repo}
}

// ListPlan is the repository call and view a listing request resolves to.
type ListPlan struct {
	// Search is the query text; when empty, Offset selects a page instead.
	Search string
	Offset int
	Page   int
	View   ListView
}

// ResolveList maps listing params to a plan without touching the store.
func ResolveList(params ListParams) ListPlan {
	page := model.ClampPage(params.Page)
	plan := ListPlan{Page: page, View: ListViewPage}
	if params.Trigger == model.TriggerSearch {
		plan.View = ListViewRows
	}
	if params.Query != "" {
		plan.Search = params.Query
	} else {
		plan.Offset = model.Offset(page)
	}
	return plan
}

func (s *contactServiceImpl) List(ctx context.Context, params ListParams) (*Listing, error) {
	plan := ResolveList(params)

	var (
		contacts []*model.Contact
		err      error
	)
	if plan.Search != "" {
		contacts, err = s.repo.Search(ctx, plan.Search)
	} else {
		contacts, err = s.repo.ListPage(ctx, plan.Offset)
	}
	if err != nil {
		return nil, err
	}
	return &Listing{Contacts: contacts, Page: plan.Page, View: plan.View}, nil
}

func (s *contactServiceImpl) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

func (s *contactServiceImpl) Get(ctx context.Context, id int64) (*model.Contact, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *contactServiceImpl) Create(ctx context.Context, form model.ContactForm) (*model.Contact, error) {
	if valid, errs := form.Validate(); !valid {
		return nil, &ValidationError{Errors: errs}
	}
	return s.repo.Create(ctx, form)
}

func (s *contactServiceImpl) Edit(ctx context.Context, id int64, form model.ContactForm) (*model.Contact, error) {
	if valid, errs := form.Validate(); !valid {
		return nil, &ValidationError{Errors: errs}
	}
	return s.repo.Update(ctx, form.Contact(id))
}

func (s *contactServiceImpl) Delete(ctx context.Context, id int64, trigger model.Trigger) (DeleteResponse, error) {
	resp := DeleteRespondEmpty
	if trigger == model.TriggerDeleteButton {
		resp = DeleteRespondRedirect
	}

	if !model.ValidID(id) {
		return resp, nil
	}
	c, err := s.repo.GetByID(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return resp, nil
	case err != nil:
		return resp, err
	}
	if !s.repo.Delete(ctx, c) {
		slog.WarnContext(ctx, "contact not deleted", "id", id)
	}
	return resp, nil
}

func (s *contactServiceImpl) BulkDelete(ctx context.Context, body []byte) error {
	ids, err := DecodeSelectedIDs(body)
	if err != nil {
		return err
	}

	// Each id is an independent get+delete; one failure never stops the rest.
	for _, id := range ids {
		c, err := s.repo.GetByID(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			slog.WarnContext(ctx, "bulk delete: lookup failed", "id", id, "error", err)
			continue
		}
		if !s.repo.Delete(ctx, c) {
			slog.WarnContext(ctx, "bulk delete: contact not deleted", "id", id)
		}
	}
	return nil
}

func (s *contactServiceImpl) CheckEmailTaken(ctx context.Context, email string) (string, error) {
	contacts, err := s.repo.FindByExactEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if len(contacts) == 0 {
		return "", nil
	}
	return EmailTakenMessage, nil
}
