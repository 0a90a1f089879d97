package config

import (
	"encoding/json"
	"errors"
	"os"
)

type SpamConfig struct {
	RequestCooldown      string `json:"request_cooldown"`
	RejectionCooldown    string `json:"rejection_cooldown"`
	RateWindow           string `json:"rate_window"`
	MaxRequestsPerWindow int    `json:"max_requests_per_window"`
	StaleAfter           string `json:"stale_after"`
	SweepInterval        string `json:"sweep_interval"`
}

type Config struct {
	Spam          SpamConfig `json:"spam"`
	DebugMode     bool       `json:"debug_mode"`
	AppName       string     `json:"app_name"`
	AppPort       int        `json:"app_port"`
	AllowedOrigin string     `json:"allowed_origin"`
}

var config = DefaultConfig()
var initialized = false

func DefaultConfig() Config {
	return Config{
		Spam: SpamConfig{
			RequestCooldown:      "5s",
			RejectionCooldown:    "30s",
			RateWindow:           "60s",
			MaxRequestsPerWindow: 10,
			StaleAfter:           "120s",
			SweepInterval:        "60s",
		},
		AppName: "peer-chat-signaling",
		AppPort: 3001,
	}
}

func ReadConfig() (Config, error) {
	bytes, err := os.ReadFile("config.json")

	if err != nil {
		writer, _ := os.OpenFile("config.json", os.O_RDONLY|os.O_CREATE, 0777)
		data, _ := json.MarshalIndent(config, "", "\t")
		_, _ = writer.Write(data)
		_ = writer.Close()
		return config, errors.New("the configuration file does not exist and has been created. Please try again after editing the configuration file")
	}

	err = json.Unmarshal(bytes, &config)

	if err != nil {
		return config, errors.New("the configuration file does not contain valid JSON")
	}

	initialized = true
	return config, nil
}

func GetConfig() (Config, error) {
	if initialized {
		return config, nil
	}
	return ReadConfig()
}
