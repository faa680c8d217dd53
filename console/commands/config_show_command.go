package commands

import (
	"fmt"

	"github.com/galaplate/dbdeploy/config"
	"github.com/galaplate/dbdeploy/supports"
)

type ConfigShowCommand struct {
	BaseCommand
}

func (c *ConfigShowCommand) GetSignature() string {
	return "config:show"
}

func (c *ConfigShowCommand) GetDescription() string {
	return "Print the resolved configuration, or one key of it, with secrets masked"
}

func (c *ConfigShowCommand) Execute(args []string) error {
	app, err := c.App()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		supports.Dump(c.Out(), app.Settings.Redacted())
		return nil
	}

	for _, key := range args {
		if !config.ConfigHas(key) {
			return fmt.Errorf("unknown config key %q", key)
		}
		fmt.Fprintf(c.Out(), "%s: ", key)
		supports.Dump(c.Out(), config.Redact(config.Config(key)))
	}
	return nil
}
