package migrations

import (
	"io/fs"

	cardfolio "github.com/cardfolio/go-cardfolio"
)

func init() {
	coreFS, err := fs.Sub(cardfolio.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return
	}
	Register(coreFS)
}
