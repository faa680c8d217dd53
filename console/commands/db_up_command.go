package commands

type DbUpCommand struct {
	BaseCommand
}

func (c *DbUpCommand) GetSignature() string {
	return "db:up"
}

func (c *DbUpCommand) GetDescription() string {
	return "Run pending database migrations"
}

func (c *DbUpCommand) Execute(args []string) error {
	app, err := c.App()
	if err != nil {
		return err
	}

	return app.Tool.Upgrade(c.Context())
}
