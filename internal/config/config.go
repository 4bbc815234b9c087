package config

import (
	"github.com/spf13/viper"
)

// The agent runs on a field device; everything it needs arrives as
// environment variables set by the provisioning layer. Shift schedules are
// the one exception, they live in a YAML file next to the binary (see
// shifts.go).

type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	AttendanceAPIURL      string `mapstructure:"ATTENDANCE_API_URL"`
	LocationBridgeURL     string `mapstructure:"LOCATION_BRIDGE_URL"`
	CameraBridgeURL       string `mapstructure:"CAMERA_BRIDGE_URL"`
	SiteID                int64  `mapstructure:"SITE_ID"`
	RoleType              string `mapstructure:"ROLE_TYPE"`
	GraceMinutes          int    `mapstructure:"GRACE_MINUTES"`
	ShiftsFile            string `mapstructure:"SHIFTS_FILE"`
	StatusRefreshSeconds  int    `mapstructure:"STATUS_REFRESH_SECONDS"`
	LocationTimeoutMillis int    `mapstructure:"LOCATION_TIMEOUT_MS"`
	AWSRegion             string `mapstructure:"AWS_REGION"`
	ReviewSQSQueueURL     string `mapstructure:"REVIEW_SQS_QUEUE_URL"`
	AWSEndpoint           string `mapstructure:"AWS_ENDPOINT"`
	OTLPEndpoint          string `mapstructure:"OTLP_ENDPOINT"`
	IsLocalDev            bool   `mapstructure:"IS_LOCAL_DEV"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (config Config, err error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("ATTENDANCE_API_URL", "http://localhost:8081")
	viper.SetDefault("LOCATION_BRIDGE_URL", "http://localhost:9090")
	viper.SetDefault("CAMERA_BRIDGE_URL", "http://localhost:9091")
	viper.SetDefault("SITE_ID", 1)
	viper.SetDefault("ROLE_TYPE", "SECURITY")
	viper.SetDefault("GRACE_MINUTES", 10)
	viper.SetDefault("SHIFTS_FILE", "")
	viper.SetDefault("STATUS_REFRESH_SECONDS", 60)
	viper.SetDefault("LOCATION_TIMEOUT_MS", 15000)
	viper.SetDefault("AWS_REGION", "us-east-1")
	viper.SetDefault("REVIEW_SQS_QUEUE_URL", "http://localstack:4566/000000000000/attendance-review-queue")
	viper.SetDefault("AWS_ENDPOINT", "")
	viper.SetDefault("OTLP_ENDPOINT", "jaeger:4317")
	viper.SetDefault("IS_LOCAL_DEV", false)

	// Read in environment variables that match the keys.
	viper.AutomaticEnv()

	err = viper.Unmarshal(&config)
	return
}
