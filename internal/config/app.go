package config

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Server ServerConfig
	Log    LogConfig
}

// LoadApp reads an optional .env file before parsing the environment.
// Variables already set in the process win over the file.
func LoadApp() (AppConfig, error) {
	if err := loadDotEnv(".env"); err != nil {
		return AppConfig{}, err
	}
	logCfg, err := LoadLog()
	if err != nil {
		return AppConfig{}, err
	}
	serverCfg, err := LoadServer()
	if err != nil {
		return AppConfig{}, err
	}
	return AppConfig{
		Server: serverCfg,
		Log:    logCfg,
	}, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
