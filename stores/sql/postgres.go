package sql

import (
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"
)

// Postgres is the alternate Dialect. Grounded on Kostassoid-go-eventually,
// the original teacher candidate for this concern, whose postgres store
// uses lib/pq.
type Postgres struct{}

func (Postgres) Name() string                                { return "postgres" }
func (Postgres) DriverName() string                           { return "postgres" }
func (Postgres) MigrationsPath() string                       { return "migrations/postgres" }
func (Postgres) PlaceholderFormat() squirrel.PlaceholderFormat { return squirrel.Dollar }

func (Postgres) IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

var _ Dialect = Postgres{}
