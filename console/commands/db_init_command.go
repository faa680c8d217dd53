package commands

import (
	"errors"

	"github.com/galaplate/dbdeploy/migrate"
)

type DbInitCommand struct {
	BaseCommand
}

func (c *DbInitCommand) GetSignature() string {
	return "db:init"
}

func (c *DbInitCommand) GetDescription() string {
	return "Create the migrations directory"
}

func (c *DbInitCommand) Execute(args []string) error {
	app, err := c.App()
	if err != nil {
		return err
	}

	if err := app.Tool.Init(c.Context()); err != nil {
		if errors.Is(err, migrate.ErrAlreadyInitialized) {
			c.PrintWarning("Migrations directory already initialized: " + app.Settings.Directory)
			return nil
		}
		return err
	}

	c.PrintSuccess("Migrations directory ready: " + app.Settings.Directory)
	return nil
}
