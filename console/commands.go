package console

import "github.com/galaplate/dbdeploy/console/commands"

// RegisterCommands registers all available console commands
func (k *Kernel) RegisterCommands() {
	// Deployment
	k.Register(&commands.DbSetupCommand{})

	// Database commands
	k.Register(&commands.DbInitCommand{})
	k.Register(&commands.DbRevisionCommand{})
	k.Register(&commands.DbUpCommand{})
	k.Register(&commands.DbDownCommand{})
	k.Register(&commands.DbStatusCommand{})

	// Other commands
	k.Register(&commands.ConfigShowCommand{})
}
