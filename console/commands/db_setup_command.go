package commands

type DbSetupCommand struct {
	BaseCommand
}

func (c *DbSetupCommand) GetSignature() string {
	return "db:setup"
}

func (c *DbSetupCommand) GetDescription() string {
	return "Initialize, revise and upgrade the database in one step"
}

func (c *DbSetupCommand) Execute(args []string) error {
	app, err := c.App()
	if err != nil {
		return err
	}

	report, err := app.Runner().Run(c.Context())
	if err != nil {
		return err
	}

	if report.RevisionErr != nil {
		c.PrintInfo("Revision skipped: " + report.RevisionErr.Error())
	}

	return nil
}
