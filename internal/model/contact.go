package model

import "math"

// PageSize is the number of contacts shown per listing page.
const PageSize = 5

// MaxID is the largest id the store assigns; contacts.id is a 4-byte serial.
const MaxID = math.MaxInt32

// MaxPage is the last page that could hold a contact.
const MaxPage = MaxID/PageSize + 1

// Contact is a single directory entry. ID is assigned by the store on insert
// and never changes afterwards. A NULL last name is read back as "".
type Contact struct {
	ID    int64  `json:"id" db:"id"`
	First string `json:"first" db:"first"`
	Last  string `json:"last" db:"last"`
	Phone string `json:"phone" db:"phone"`
	Email string `json:"email" db:"email"`
}

// ValidID reports whether id is in the range the store assigns ids from.
// Anything outside it names no contact.
func ValidID(id int64) bool {
	return id >= 1 && id <= MaxID
}

// ClampPage limits page to [1, MaxPage].
func ClampPage(page int) int {
	switch {
	case page < 1:
		return 1
	case page > MaxPage:
		return MaxPage
	}
	return page
}

// Offset returns the row offset of the given 1-based page.
func Offset(page int) int {
	return (ClampPage(page) - 1) * PageSize
}
