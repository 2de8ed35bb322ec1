package sessiongate

import "embed"

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS exposes the embedded schema migrations so host
// applications can register them with their persistence client.
func GetMigrationsFS() embed.FS {
	return migrationsFS
}
