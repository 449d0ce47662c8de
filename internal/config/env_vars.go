package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar    = "PORT"
	appNameVar    = "APP_NAME"
	folderEnvVar  = "ARCFIT_DATA_FOLDER"
	baseURLEnvVar = "ARCFIT_API_URL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "ArcFit Admin")
}

// GetAPIBaseURL returns the base URL of the remote ArcFit API
// (e.g., "https://api.arcfit.in"). All SDK requests are made against it.
func (EnvVars) GetAPIBaseURL() string {
	return GetEnv(baseURLEnvVar, "http://localhost:8080")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
