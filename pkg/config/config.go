package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// DefaultEnvFile is loaded when no explicit file is given and it exists.
const DefaultEnvFile = ".env"

// Load fills T from the environment. An explicit file (.env, .yaml, .json)
// is exported into the environment first; values already set in the process
// environment win over values from the file.
func Load[T any](prefix, file string) (*T, error) {
	file = strings.TrimSpace(file)
	if file != "" {
		if err := exportFile(file); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", file, err)
		}
	} else if err := loadDefaultEnv(); err != nil {
		return nil, fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	return &conf, nil
}

func loadDefaultEnv() error {
	info, err := os.Stat(DefaultEnvFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	// godotenv.Load never overrides variables that are already set.
	return godotenv.Load(DefaultEnvFile)
}

func exportFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if strings.HasSuffix(path, ".env") || strings.HasPrefix(baseName(path), ".env") {
		v.SetConfigType("env")
	}
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for _, k := range v.AllKeys() {
		name := strings.ToUpper(strings.ReplaceAll(k, ".", "_"))
		if _, set := os.LookupEnv(name); set {
			continue
		}
		if err := os.Setenv(name, v.GetString(k)); err != nil {
			return err
		}
	}
	return nil
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
