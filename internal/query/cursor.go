package query

import (
	"bytes"
	"encoding/base64"
	"errors"

	"github.com/goccy/go-json"
)

var errBadCursor = errors.New("bad cursor")

// cursor состояние постраничного обхода. Offset число уже выданных объявлений,
// After значения сортировки последнего из них.
type cursor struct {
	Offset int   `json:"o"`
	After  []any `json:"a,omitempty"`
}

// encodeCursor кодирует состояние следующей страницы в непрозрачную строку.
func encodeCursor(c cursor) string {
	raw, err := json.Marshal(c)
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(raw)
}

// decodeCursor разбирает курсор. Числа сохраняются как json.Number, чтобы
// значения сортировки вида 9223372036854775807 не теряли точность.
func decodeCursor(s string) (cursor, error) {
	if s == "" {
		return cursor{}, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return cursor{}, errBadCursor
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var c cursor
	if err := dec.Decode(&c); err != nil || c.Offset < 0 {
		return cursor{}, errBadCursor
	}
	return c, nil
}
