package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

const (
	KeyAPIKey    = "api_key"
	KeyHost      = "host"
	KeyTimeout   = "timeout"
	KeySinceDays = "since_days"

	DefaultHost      = "alerting.sparkits.ca"
	DefaultTimeout   = 60
	DefaultSinceDays = 7
)

// InitConfig initializes the configuration
func InitConfig() {
	home, err := os.UserHomeDir()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	viper.AddConfigPath(home)
	viper.SetConfigType("yaml")
	viper.SetConfigName(".cetus")

	viper.SetEnvPrefix("cetus")
	viper.AutomaticEnv() // read in environment variables that match

	viper.SetDefault(KeyHost, DefaultHost)
	viper.SetDefault(KeyTimeout, DefaultTimeout)
	viper.SetDefault(KeySinceDays, DefaultSinceDays)

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		// fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// SetAPIKey sets the API key in the configuration file
func SetAPIKey(key string) error {
	return Set(KeyAPIKey, key)
}

// GetAPIKey returns the API key from the configuration
func GetAPIKey() string {
	return viper.GetString(KeyAPIKey)
}

func GetHost() string {
	return viper.GetString(KeyHost)
}

func GetTimeout() int {
	return viper.GetInt(KeyTimeout)
}

func GetSinceDays() int {
	return viper.GetInt(KeySinceDays)
}

// Set validates and persists one configuration value.
func Set(key, value string) error {
	switch key {
	case KeyAPIKey, KeyHost:
		viper.Set(key, value)
	case KeyTimeout, KeySinceDays:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %w", key, err)
		}
		viper.Set(key, n)
	default:
		return fmt.Errorf("unknown config key %q", key)
	}

	path, err := FilePath()
	if err != nil {
		return err
	}
	return viper.WriteConfigAs(path)
}

// FilePath returns the location of the config file.
func FilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cetus.yaml"), nil
}

// All returns the current settings for display. The API key is masked.
func All() map[string]string {
	key := GetAPIKey()
	if len(key) > 8 {
		key = key[:4] + "..." + key[len(key)-4:]
	}
	return map[string]string{
		KeyAPIKey:    key,
		KeyHost:      GetHost(),
		KeyTimeout:   strconv.Itoa(GetTimeout()),
		KeySinceDays: strconv.Itoa(GetSinceDays()),
	}
}
