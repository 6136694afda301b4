// Package config loads sleepy configuration from a YAML file, a .env file
// and the environment using Viper.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("sleepy", &cfg, config.WithEnvPrefix("SLEEPY"))
//
// Environment variables override file values. With the SLEEPY prefix,
// SLEEPY_CLIENT_SERVER sets client.server.
package config
