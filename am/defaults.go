package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Workspace defaults: empty dir resolves to ~/.lorekeep/worlds at use time
	v.SetDefault("workspace.dir", "")

	// Database defaults
	v.SetDefault("database.busy_timeout_ms", 5000)

	// Logging defaults
	v.SetDefault("logging.json", false)
}

// BindSensitiveEnvVars explicitly binds configuration to environment variables
// that operators commonly set without a config file.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("workspace.dir", "LOREKEEP_WORKSPACE_DIR")
	v.BindEnv("logging.json", "LOREKEEP_LOGGING_JSON")
}
