package service

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// SelectedContactIDsKey is the form key carrying the ids of a bulk delete.
const SelectedContactIDsKey = "selected_contact_ids"

// DecodeSelectedIDs extracts the selected contact ids from a raw
// application/x-www-form-urlencoded body. The key may repeat, so the body is
// scanned pair by pair: a pair is kept only when it splits into exactly two
// parts on "=" and its key is selected_contact_ids; values that are not
// integers are skipped. Ids come back in body order, duplicates included.
// Only a body that is not valid UTF-8 is an error.
func DecodeSelectedIDs(body []byte) ([]int64, error) {
	if !utf8.Valid(body) {
		return nil, &DecodeError{Reason: "body is not valid UTF-8"}
	}

	ids := []int64{}
	for _, pair := range strings.Split(string(body), "&") {
		parts := strings.Split(pair, "=")
		if len(parts) != 2 || parts[0] != SelectedContactIDsKey {
			continue
		}
		id, err := strconv.ParseInt(parts[1], 10, 32)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
