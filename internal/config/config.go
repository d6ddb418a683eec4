package config

import "time"

type AppConfig struct {
	InputDir  string
	OutputDir string
	Format    string
	Port      int
	Settle    time.Duration
}
