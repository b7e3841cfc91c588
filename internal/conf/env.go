package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. BIRDNET_ANNOTATIONS_DATABASE_TYPE.
const EnvPrefix = "BIRDNET_ANNOTATIONS"

// envBinding holds metadata for validated environment variable bindings
type envBinding struct {
	ConfigKey string
	Validate  func(string) error
}

func getEnvBindings() []envBinding {
	return []envBinding{
		{"database.type", validateEnvDatabaseType},
		{"database.mysql.port", validateEnvPort},
		{"import.batchsize", validateEnvPositiveInt},
		{"import.concurrency", validateEnvPositiveInt},
		{"debug", validateEnvBool},
	}
}

func envVarName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// bindEnvVars enables automatic env lookup and validates the variables that have constraints
func bindEnvVars(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var warnings []string
	for _, binding := range getEnvBindings() {
		name := envVarName(binding.ConfigKey)
		value := os.Getenv(name)
		if value == "" {
			continue
		}
		if err := binding.Validate(value); err != nil {
			warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", name, value, err))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true/false, 1/0, t/f")
	}
	return nil
}

func validateEnvDatabaseType(value string) error {
	switch strings.ToLower(value) {
	case DatabaseSQLite, DatabaseMySQL:
		return nil
	default:
		return fmt.Errorf("must be %q or %q", DatabaseSQLite, DatabaseMySQL)
	}
}

func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

func validateEnvPositiveInt(value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer: %w", err)
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1, got %d", n)
	}
	return nil
}
