// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv, which reads an optional .env file, and
// github.com/caarlos0/env/v11, which maps variables onto struct fields through `env` tags.
// Structs that implement Validator are checked after parsing.
//
//	type HTTP struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	cfg := config.MustLoad[HTTP]()
//
// Tests pass variables explicitly instead of touching the process environment:
//
//	cfg, err := config.Load[HTTP](config.WithEnvironment(map[string]string{"HTTP_ADDR": ":9000"}))
package config
