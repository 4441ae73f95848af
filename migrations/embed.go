// Package migrations embeds the local database schema into the binary,
// so the checkpoint store needs no SQL files on disk at runtime.
package migrations

import (
	"embed"

	"github.com/twinbridge/twinbridge-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	// Register embedded migrations with the database package.
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "." // Files are at root of embedded FS
}
