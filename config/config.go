package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Http struct {
		Port           int           `yaml:"port"`
		Timeout        time.Duration `yaml:"timeout"`
		AllowedOrigins []string      `yaml:"allowed_origins"`
		MaxBodyBytes   int64         `yaml:"max_body_bytes"`
	} `yaml:"http"`
	Log struct {
		Level      string `yaml:"level"`
		File       string `yaml:"file"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"log"`
	Model struct {
		Path string `yaml:"path"`
	} `yaml:"model"`
	Dataset struct {
		Path         string `yaml:"path"`
		TargetColumn string `yaml:"target_column"`
		Delimiter    string `yaml:"delimiter"`
		Encoding     string `yaml:"encoding"`
	} `yaml:"dataset"`
	Training struct {
		TestRatio        float64 `yaml:"test_ratio"`
		Seed             *int64  `yaml:"seed"`
		C                float64 `yaml:"c"`
		Gamma            string  `yaml:"gamma"`
		Probability      *bool   `yaml:"probability"`
		ProbabilityFolds int     `yaml:"probability_folds"`
		Tolerance        float64 `yaml:"tolerance"`
		CacheRows        int     `yaml:"cache_rows"`
		MaxIter          int     `yaml:"max_iter"`
	} `yaml:"training"`
	Predictor struct {
		CacheSize *int `yaml:"cache_size"`
	} `yaml:"predictor"`
	History struct {
		Enabled bool   `yaml:"enabled"`
		DBPath  string `yaml:"db_path"`
	} `yaml:"history"`
	Locale string `yaml:"locale"`
}

// Default returns the configuration used when config.yaml leaves a value out.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

func (c *Config) applyDefaults() {
	if c.Http.Port == 0 {
		c.Http.Port = 8501
	}
	if c.Http.Timeout == 0 {
		c.Http.Timeout = 30 * time.Second
	}
	if len(c.Http.AllowedOrigins) == 0 {
		c.Http.AllowedOrigins = []string{"*"}
	}
	if c.Http.MaxBodyBytes == 0 {
		c.Http.MaxBodyBytes = 1 << 20
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAgeDays == 0 {
		c.Log.MaxAgeDays = 28
	}
	if c.Model.Path == "" {
		c.Model.Path = "models/svm_model.json"
	}
	if c.Dataset.Path == "" {
		c.Dataset.Path = "dataset.csv"
	}
	if c.Dataset.TargetColumn == "" {
		c.Dataset.TargetColumn = "Target"
	}
	if c.Training.TestRatio == 0 {
		c.Training.TestRatio = 0.2
	}
	if c.Training.Seed == nil {
		seed := int64(42)
		c.Training.Seed = &seed
	}
	if c.Training.C == 0 {
		c.Training.C = 1.0
	}
	if c.Training.Gamma == "" {
		c.Training.Gamma = "scale"
	}
	if c.Training.Probability == nil {
		on := true
		c.Training.Probability = &on
	}
	if c.Training.ProbabilityFolds == 0 {
		c.Training.ProbabilityFolds = 5
	}
	if c.Training.Tolerance == 0 {
		c.Training.Tolerance = 1e-3
	}
	if c.Training.CacheRows == 0 {
		c.Training.CacheRows = 1024
	}
	if c.Predictor.CacheSize == nil {
		size := 256
		c.Predictor.CacheSize = &size
	}
	if c.History.DBPath == "" {
		c.History.DBPath = "data/history.db"
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
}

func (c *Config) Validate() error {
	if c.Http.Port <= 0 || c.Http.Port > 65535 {
		return fmt.Errorf("http.port out of range: %d", c.Http.Port)
	}
	if c.Training.TestRatio <= 0 || c.Training.TestRatio >= 1 {
		return fmt.Errorf("training.test_ratio must be in (0,1), got %v", c.Training.TestRatio)
	}
	if c.Training.C <= 0 {
		return fmt.Errorf("training.c must be positive, got %v", c.Training.C)
	}
	if _, err := c.GammaValue(); err != nil {
		return err
	}
	if _, err := c.DelimiterRune(); err != nil {
		return err
	}
	if *c.Predictor.CacheSize < 0 {
		return fmt.Errorf("predictor.cache_size must not be negative")
	}
	return nil
}

// Load reads path and fills defaults for anything it leaves out.
func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Locate looks for name in the working directory and then its parent, so
// binaries work when started from cmd/.
func Locate(name string) string {
	if _, err := os.Stat(name); err == nil {
		return name
	}
	parent := filepath.Join("..", name)
	if _, err := os.Stat(parent); err == nil {
		return parent
	}
	return name
}

// LoadOrDefault loads path when it exists and falls back to Default otherwise.
func LoadOrDefault(path string) (*Config, bool, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), false, nil
	}
	c, err := Load(path)
	return c, err == nil, err
}
