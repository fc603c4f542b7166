// Package migrations holds dialect-aware Go migrations for schema that cannot
// be written as one cross-database SQL statement.
package migrations

// dialect is set by the parent db package before goose.Up runs.
var dialect string

// SetDialect selects the SQL dialect used by Go migrations.
// Valid values: "sqlite3", "postgres", "mysql".
func SetDialect(d string) {
	dialect = d
}
