/**
 * @description
 * This package handles the configuration management for the service. It uses
 * the Viper library to read configuration from environment variables and an
 * optional .env file, providing a centralized and straightforward way to
 * manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the ledger service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	AerospikeHost            string `mapstructure:"AEROSPIKE_HOST"`
	AerospikePort            int    `mapstructure:"AEROSPIKE_PORT"`
	AerospikeNamespace       string `mapstructure:"AEROSPIKE_NAMESPACE"`
	AerospikeUsersSet        string `mapstructure:"AEROSPIKE_USERS_SET"`
	AerospikeTransactionsSet string `mapstructure:"AEROSPIKE_TRANSACTIONS_SET"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`

	RedisURL                    string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix        string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	LifecycleRateLimitPerMinute int    `mapstructure:"LIFECYCLE_RATE_LIMIT_PER_MINUTE"`
}

// LoadConfig reads configuration from environment variables from the given
// path. It uses Viper to automatically bind environment variables to the
// Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("AEROSPIKE_HOST", "localhost")
	viper.SetDefault("AEROSPIKE_PORT", 3000)
	viper.SetDefault("AEROSPIKE_NAMESPACE", "banking")
	viper.SetDefault("AEROSPIKE_USERS_SET", "users")
	viper.SetDefault("AEROSPIKE_TRANSACTIONS_SET", "transactions")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "onlinebanking:rate_limit")
	viper.SetDefault("LIFECYCLE_RATE_LIMIT_PER_MINUTE", 0)

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("AEROSPIKE_HOST")
	_ = viper.BindEnv("AEROSPIKE_PORT")
	_ = viper.BindEnv("AEROSPIKE_NAMESPACE")
	_ = viper.BindEnv("AEROSPIKE_USERS_SET")
	_ = viper.BindEnv("AEROSPIKE_TRANSACTIONS_SET")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("LIFECYCLE_RATE_LIMIT_PER_MINUTE")

	// The .env file is optional; environment variables alone are fine.
	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	err = viper.Unmarshal(&config)
	return
}
