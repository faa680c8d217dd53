package supports

import "strings"

// MapPostgres normalizes the database dialect aliases accepted in URLs and
// config files to the three names used internally: sqlite, postgres, mysql.
func MapPostgres(dialect string) string {
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case "postgres", "postgresql", "pgsql", "pg":
		return "postgres"
	case "sqlite", "sqlite3", "file":
		return "sqlite"
	case "mysql", "mariadb":
		return "mysql"
	default:
		return strings.ToLower(dialect)
	}
}
