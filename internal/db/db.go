package db

import "database/sql"

// DB wraps the sql pool so internal packages share one handle type.
type DB struct {
	*sql.DB
}
