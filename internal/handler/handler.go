package handler

import (
	"github.com/contactbook/backend/internal/repository"
)

// Handler serves the operational endpoints that sit next to the contact UI.
type Handler struct {
	db repository.DB
}

func New(db repository.DB) *Handler {
	return &Handler{db: db}
}
