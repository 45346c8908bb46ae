package model

// Trigger identifies the UI interaction that issued a request. Handlers read
// it from the HX-Trigger header; everything below the handler only sees this type.
type Trigger string

const (
	TriggerNone         Trigger = ""
	TriggerSearch       Trigger = "search"
	TriggerDeleteButton Trigger = "delete-btn"
)
