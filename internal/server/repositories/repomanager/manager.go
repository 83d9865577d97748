package repomanager

import (
	"context"
	"database/sql"

	"github.com/indiarose/sync-server/internal/dbx"
	"github.com/indiarose/sync-server/internal/server/repositories/devices"
	"github.com/indiarose/sync-server/internal/server/repositories/indiagrams"
	"github.com/indiarose/sync-server/internal/server/repositories/settings"
	"github.com/indiarose/sync-server/internal/server/repositories/users"
	"github.com/indiarose/sync-server/internal/server/repositories/versions"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Devices(db dbx.DBTX) devices.Repository
	Settings(db dbx.DBTX) settings.Repository
	Versions(db dbx.DBTX) versions.Repository
	Indiagrams(db dbx.DBTX) indiagrams.Repository
}
