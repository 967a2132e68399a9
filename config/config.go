// config/config.go
package config

import (
	"log"

	"github.com/spf13/viper"
)

// Configuration stores all the configurations
type Configuration struct {
	Server        ServerConfiguration
	OAuth2        OAuth2Configuration
	Redis         RedisConfiguration
	Elasticsearch ElasticsearchConfiguration
	Security      SecurityConfiguration
}

// ServerConfiguration stores the port and other web server settings
type ServerConfiguration struct {
	Port string
}

// OAuth2Configuration stores the authorization-server endpoints and the
// resource-server credentials used for token introspection.
type OAuth2Configuration struct {
	OpenIDURL            string
	IntrospectEndpoint   string
	ResourceServerID     string
	ResourceServerSecret string
	OPAURL               string
}

// RedisConfiguration stores data for Redis connection
type RedisConfiguration struct {
	Addr            string
	DefaultCacheTTL string
}

// ElasticsearchConfiguration stores data for Elasticsearch connection
type ElasticsearchConfiguration struct {
	URL string
}

// SecurityConfiguration locates the declarative rules file and the URLs
// exempt from authorization.
type SecurityConfiguration struct {
	RulesFile          string
	WhiteListedURLs    []string
	AllowLocalhost     bool
	IntrospectCacheTTL string
}

var config *Configuration

func InitConfig() error {
	viper.AddConfigPath("config") // path to look for the config file in
	viper.SetConfigName("config") // name of the config file (without extension)
	viper.SetConfigType("yaml")   // REQUIRED if the config file does not have the extension in the name

	viper.AutomaticEnv() // read in environment variables that match

	// Set default configurations
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.defaultCacheTTL", "10m")
	viper.SetDefault("elasticsearch.url", "http://localhost:9200")
	viper.SetDefault("security.rulesFile", "config/rules.yaml")
	viper.SetDefault("security.allowLocalhost", true)
	viper.SetDefault("security.introspectCacheTTL", "1m")
	viper.SetDefault("oauth2.introspectTimeout", "5s")
	viper.SetDefault("log.file", "logging/api.log")

	// Attempt to read the config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found. Using default settings and environment variables.")
		} else {
			return err
		}
	}

	// Unmarshal the configuration into the Configuration struct
	err := viper.Unmarshal(&config)
	if err != nil {
		return err
	}

	return nil
}

// GetConfig returns the loaded configuration
func GetConfig() *Configuration {
	return config
}

// GetString retrieves a string value from the configuration
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt retrieves an integer value from the configuration
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool retrieves a boolean value from the configuration
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetStringSlice retrieves a list value from the configuration
func GetStringSlice(key string) []string {
	return viper.GetStringSlice(key)
}
