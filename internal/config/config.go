// Package config loads global map settings from osmmap.yaml and OSMMAP_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/joeblew999/osm-map/internal/geocode"
	"github.com/joeblew999/osm-map/internal/service"
)

// FileName is the config file name without extension.
const FileName = "osmmap"

// EnvPrefix prefixes every environment override, e.g.
// OSMMAP_SETTINGS_GEOAPIFYKEY or OSMMAP_LOG_LEVEL.
const EnvPrefix = "OSMMAP"

// Load sets defaults and reads osmmap.yaml from configDir. A missing file is
// not an error; environment variables still apply.
func Load(configDir string) error {
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.pretty", true)

	viper.SetDefault("settings.geoapifyKey", "")
	viper.SetDefault("settings.mapboxToken", "")
	viper.SetDefault("settings.stadiaKey", "")
	viper.SetDefault("settings.customTileUrl", "")
	viper.SetDefault("settings.customAttribution", "")
	viper.SetDefault("settings.customAttributionUrl", "")
	viper.SetDefault("settings.enableFontAwesome", true)
	viper.SetDefault("settings.fallbackCenter", service.DefaultFallbackCenter)

	viper.SetDefault("geocode.endpoint", geocode.DefaultEndpoint)
	viper.SetDefault("geocode.timeout", "10s")

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(FileName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("error reading config file: %w", err)
	}
	return nil
}

// Settings returns the configured global settings, used to seed the
// settings store.
func Settings() service.Settings {
	return service.Settings{
		GeoapifyKey:          viper.GetString("settings.geoapifyKey"),
		MapboxToken:          viper.GetString("settings.mapboxToken"),
		StadiaKey:            viper.GetString("settings.stadiaKey"),
		CustomTileURL:        viper.GetString("settings.customTileUrl"),
		CustomAttribution:    viper.GetString("settings.customAttribution"),
		CustomAttributionURL: viper.GetString("settings.customAttributionUrl"),
		EnableFontAwesome:    viper.GetBool("settings.enableFontAwesome"),
		FallbackCenter:       viper.GetString("settings.fallbackCenter"),
	}
}

// GetString returns a string config value.
func GetString(key string) string {
	return viper.GetString(key)
}

// GetBool returns a bool config value.
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// ConfigFile returns the file that was read, or "" when none was found.
func ConfigFile() string {
	return viper.ConfigFileUsed()
}
