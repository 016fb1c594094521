package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Ошибки доменного уровня. Только ErrInvalidFilterSpec отклоняет запрос,
// остальные состояния возвращаются в теле ответа.
var (
	ErrNotFound          = errors.New("not found")
	ErrAmbiguous         = errors.New("ambiguous")
	ErrInsufficientData  = errors.New("insufficient data")
	ErrPartialFailure    = errors.New("partial failure")
	ErrInvalidFilterSpec = errors.New("invalid filter spec")
)

// FilterSpecError содержит поля, не прошедшие проверку.
type FilterSpecError struct {
	Fields map[string]string
}

// NewFilterSpecError создает ошибку с одним полем.
func NewFilterSpecError(field, reason string) *FilterSpecError {
	return &FilterSpecError{Fields: map[string]string{field: reason}}
}

// Add добавляет описание поля.
func (e *FilterSpecError) Add(field, reason string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = reason
}

func (e *FilterSpecError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return fmt.Sprintf("%s: %s", ErrInvalidFilterSpec, strings.Join(parts, "; "))
}

// Is позволяет сравнивать через errors.Is(err, ErrInvalidFilterSpec).
func (e *FilterSpecError) Is(target error) bool {
	return target == ErrInvalidFilterSpec
}
