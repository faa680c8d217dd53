package config

// Config retrieves a configuration value using dot notation
// Example: config.Config("exec.command")
func Config(key string) any {
	return GetGlobal().Get(key)
}

// ConfigHas reports whether a configuration key is set
// Example: config.ConfigHas("migrations.directory")
func ConfigHas(key string) bool {
	return GetGlobal().Has(key)
}
