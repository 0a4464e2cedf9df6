package root

import (
	"github.com/prosektorweb/inbox-api/apps/cli/cmd/auth"
	"github.com/prosektorweb/inbox-api/apps/cli/cmd/migrate"
	"github.com/prosektorweb/inbox-api/apps/cli/cmd/routes"
)

func init() {
	Root().AddCommand(auth.Command())
	Root().AddCommand(migrate.Command())
	Root().AddCommand(routes.Command())
}
