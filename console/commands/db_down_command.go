package commands

import (
	"slices"
)

type DbDownCommand struct {
	BaseCommand
}

func (c *DbDownCommand) GetSignature() string {
	return "db:down"
}

func (c *DbDownCommand) GetDescription() string {
	return "Rollback the latest database migration"
}

func (c *DbDownCommand) Execute(args []string) error {
	skipConfirmation := slices.Contains(args, "--force")

	if !skipConfirmation {
		c.PrintWarning("This will rollback the latest migration")
		confirmed := c.AskConfirmation("Are you sure you want to rollback?", false)
		if !confirmed {
			c.PrintInfo("Rollback cancelled")
			return nil
		}
	}

	app, err := c.App()
	if err != nil {
		return err
	}

	return app.Tool.Downgrade(c.Context())
}
