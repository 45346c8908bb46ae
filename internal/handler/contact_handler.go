package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/contactbook/backend/internal/model"
	"github.com/contactbook/backend/internal/repository"
	"github.com/contactbook/backend/internal/service"
	"github.com/contactbook/backend/internal/view"
)

const (
	contactsPath    = "/contacts"
	maxBulkBodySize = 1 << 20
)

// ContactHandler serves the contact directory pages and fragments.
type ContactHandler struct {
	contactService service.ContactService
	renderer       view.Renderer
}

// NewContactHandler creates a ContactHandler with the given service and renderer.
func NewContactHandler(contactService service.ContactService, renderer view.Renderer) *ContactHandler {
	return &ContactHandler{contactService: contactService, renderer: renderer}
}

// requestTrigger reads the htmx HX-Trigger header.
func requestTrigger(r *http.Request) model.Trigger {
	return model.Trigger(r.Header.Get("HX-Trigger"))
}

// Root handles GET / by sending the browser to the listing.
func (h *ContactHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, contactsPath, http.StatusMovedPermanently)
}

// List handles GET /contacts.
// Query params: page (default 1), q (free-text search). An HX-Trigger of
// "search" selects the rows-only fragment.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		switch {
		case errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(p, "-"):
			page = model.MaxPage
		case err == nil:
			page = model.ClampPage(n)
		}
	}
	q := r.URL.Query().Get("q")

	listing, err := h.contactService.List(r.Context(), service.ListParams{
		Page:    page,
		Query:   q,
		Trigger: requestTrigger(r),
	})
	if err != nil {
		h.serverError(w, r, "list contacts failed", err)
		return
	}

	name := view.ContactList
	if listing.View == service.ListViewRows {
		name = view.ContactRows
	}
	h.render(w, r, http.StatusOK, name, view.Data{
		"contacts": listing.Contacts,
		"page":     listing.Page,
		"q":        q,
	})
}

// Count handles GET /contacts/count.
func (h *ContactHandler) Count(w http.ResponseWriter, r *http.Request) {
	n, err := h.contactService.Count(r.Context())
	if err != nil {
		h.serverError(w, r, "count contacts failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "%d total contacts", n)
}

// Get handles GET /contacts/{id}.
func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.contactService.Get(r.Context(), id)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.ContactDetail, view.Data{"contact": c})
}

// CheckEmail handles GET /contacts/email?email=.
// The body is empty or an advisory message; it never blocks a save.
func (h *ContactHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	msg, err := h.contactService.CheckEmailTaken(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.serverError(w, r, "email check failed", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, msg)
}

// GetCreate handles GET /contacts/create.
func (h *ContactHandler) GetCreate(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, view.ContactCreate, view.Data{
		"form":   model.ContactForm{},
		"errors": map[string]string{},
	})
}

// Create handles POST /contacts/create.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	form, ok := parseContactForm(w, r)
	if !ok {
		return
	}

	_, err := h.contactService.Create(r.Context(), form)
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		h.render(w, r, http.StatusOK, view.ContactCreate, view.Data{
			"form":   form,
			"errors": ve.Errors,
		})
	case err != nil:
		h.serverError(w, r, "create contact failed", err)
	default:
		http.Redirect(w, r, contactsPath, http.StatusSeeOther)
	}
}

// GetEdit handles GET /contacts/{id}/edit.
func (h *ContactHandler) GetEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.contactService.Get(r.Context(), id)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, view.ContactEdit, view.Data{
		"contact": c,
		"form":    model.NewContactForm(c),
		"errors":  map[string]string{},
	})
}

// Edit handles POST /contacts/{id}/edit.
func (h *ContactHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	form, ok := parseContactForm(w, r)
	if !ok {
		return
	}

	_, err := h.contactService.Edit(r.Context(), id, form)
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		h.render(w, r, http.StatusOK, view.ContactEdit, view.Data{
			"contact": &model.Contact{ID: id},
			"form":    form,
			"errors":  ve.Errors,
		})
	case err != nil:
		h.lookupError(w, r, err)
	default:
		http.Redirect(w, r, contactsPath, http.StatusSeeOther)
	}
}

// Delete handles DELETE /contacts/{id}.
// A delete button (HX-Trigger: delete-btn) is redirected to the listing;
// inline row deletes get an empty body so the client drops the row.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := deleteTarget(w, r)
	if !ok {
		return
	}
	resp, err := h.contactService.Delete(r.Context(), id, requestTrigger(r))
	if err != nil {
		h.serverError(w, r, "delete contact failed", err)
		return
	}
	if resp == service.DeleteRespondRedirect {
		http.Redirect(w, r, contactsPath, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// BulkDelete handles POST /contacts/delete and DELETE /contacts.
// The raw body is decoded as-is; DELETE requests without a body fall back
// to the query string.
func (h *ContactHandler) BulkDelete(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBulkBodySize))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	if len(body) == 0 && r.Method == http.MethodDelete {
		body = []byte(r.URL.RawQuery)
	}

	err = h.contactService.BulkDelete(r.Context(), body)
	var de *service.DecodeError
	switch {
	case errors.As(err, &de):
		http.Error(w, de.Error(), http.StatusBadRequest)
	case err != nil:
		h.serverError(w, r, "bulk delete failed", err)
	default:
		http.Redirect(w, r, contactsPath, http.StatusSeeOther)
	}
}

func parseContactForm(w http.ResponseWriter, r *http.Request) (model.ContactForm, bool) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return model.ContactForm{}, false
	}
	return model.ContactForm{
		FirstName: r.PostForm.Get("first_name"),
		LastName:  r.PostForm.Get("last_name"),
		Email:     r.PostForm.Get("email"),
		Phone:     r.PostForm.Get("phone"),
	}, true
}

// pathID parses the {id} path value. Ids outside the store's serial range
// cannot name a contact and are answered with 404 before reaching the store.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 32)
	if err != nil || !model.ValidID(id) {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

// deleteTarget parses {id} for a single delete. Deleting a contact that does
// not exist is a no-op with the usual response, so a number too large for
// int64 is passed on as 0; only non-numeric ids get 404.
func deleteTarget(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if errors.Is(err, strconv.ErrRange) {
		return 0, true
	}
	if err != nil {
		http.NotFound(w, r)
		return 0, false
	}
	return id, true
}

func (h *ContactHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, data view.Data) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	rw := &deferredWriter{ResponseWriter: w, status: status}
	if err := h.renderer.Render(rw, name, data); err != nil {
		h.serverError(w, r, "render failed", err)
	}
}

func (h *ContactHandler) lookupError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		http.Error(w, "contact not found", http.StatusNotFound)
		return
	}
	h.serverError(w, r, "contact lookup failed", err)
}

func (h *ContactHandler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "error", err, "path", r.URL.Path)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// deferredWriter sends the status code with the first body write, so a
// renderer failure can still answer 500.
type deferredWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (d *deferredWriter) Write(b []byte) (int, error) {
	if !d.wroteHeader {
		d.wroteHeader = true
		d.ResponseWriter.WriteHeader(d.status)
	}
	return d.ResponseWriter.Write(b)
}
