package commands

type DbStatusCommand struct {
	BaseCommand
}

func (c *DbStatusCommand) GetSignature() string {
	return "db:status"
}

func (c *DbStatusCommand) GetDescription() string {
	return "Show database migration status"
}

func (c *DbStatusCommand) Execute(args []string) error {
	app, err := c.App()
	if err != nil {
		return err
	}

	return app.Tool.Status(c.Context(), c.Out())
}
