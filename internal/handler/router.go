package handler

import "net/http"

// NewRouter wires the contact UI routes. Mutating routes pass through rl
// when it is non-nil.
func NewRouter(h *Handler, contacts *ContactHandler, rl *RateLimiter) http.Handler {
	limit := func(f http.HandlerFunc) http.Handler {
		if rl == nil {
			return f
		}
		return rl.Middleware(f)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /{$}", contacts.Root)

	mux.HandleFunc("GET /contacts", contacts.List)
	mux.HandleFunc("GET /contacts/count", contacts.Count)
	mux.HandleFunc("GET /contacts/email", contacts.CheckEmail)
	mux.HandleFunc("GET /contacts/create", contacts.GetCreate)
	mux.Handle("POST /contacts/create", limit(contacts.Create))
	mux.HandleFunc("GET /contacts/{id}", contacts.Get)
	mux.HandleFunc("GET /contacts/{id}/edit", contacts.GetEdit)
	mux.Handle("POST /contacts/{id}/edit", limit(contacts.Edit))
	mux.Handle("DELETE /contacts/{id}", limit(contacts.Delete))
	mux.Handle("POST /contacts/delete", limit(contacts.BulkDelete))
	mux.Handle("DELETE /contacts", limit(contacts.BulkDelete))

	return RequestLogger(SecurityHeaders(mux))
}
