package commands

import (
	"errors"
	"strings"

	"github.com/galaplate/dbdeploy/migrate"
)

type DbRevisionCommand struct {
	BaseCommand
}

func (c *DbRevisionCommand) GetSignature() string {
	return "db:revision"
}

func (c *DbRevisionCommand) GetDescription() string {
	return "Generate a migration revision from the application models"
}

func (c *DbRevisionCommand) Execute(args []string) error {
	app, err := c.App()
	if err != nil {
		return err
	}

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		message = app.Settings.Message
	}

	err = app.Tool.Revision(c.Context(), message)
	switch {
	case errors.Is(err, migrate.ErrNoChanges):
		c.PrintInfo("No changes in schema detected")
		return nil
	case errors.Is(err, migrate.ErrNotUpToDate):
		c.PrintWarning("Database is not up to date, run db:up first")
		return err
	case err != nil:
		return err
	}

	c.PrintSuccess("Revision generated")
	return nil
}
