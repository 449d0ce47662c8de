package config

type Config interface {
	EnvConfig
	SessionConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetAPIBaseURL() string
	GetDataFolder() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Session
}

func New() Config {
	return mainConfig{}
}
