package common

import (
	"errors"

	"github.com/lib/pq"
)

const pqUniqueViolation = pq.ErrorCode("23505")

// IsUniqueViolation сообщает, что err - нарушение уникальности.
// Пустой constraint совпадает с любым ограничением.
func IsUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != pqUniqueViolation {
		return false
	}
	return constraint == "" || pqErr.Constraint == constraint
}
