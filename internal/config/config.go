package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	RabbitMQ  RabbitMQConfig  `yaml:"rabbitmq"`
	HTTP      HTTPConfig      `yaml:"http"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

// SchedulerConfig carries the intervals of the periodic jobs and the shared
// retry policy. Intervals are in seconds to keep the YAML flat.
type SchedulerConfig struct {
	SweepIntervalSeconds       int `yaml:"sweep_interval_seconds"`
	ExpiryCheckIntervalSeconds int `yaml:"expiry_check_interval_seconds"`
	ExpiryDaysAhead            int `yaml:"expiry_days_ahead"`
	RecomputeIntervalSeconds   int `yaml:"recompute_interval_seconds"`
	DispatchIntervalSeconds    int `yaml:"dispatch_interval_seconds"`
	DispatchLeadMinutes        int `yaml:"dispatch_lead_minutes"`
	CleanupIntervalSeconds     int `yaml:"cleanup_interval_seconds"`
	CleanupAgeDays             int `yaml:"cleanup_age_days"`
	ReportIntervalSeconds      int `yaml:"report_interval_seconds"`
	JobRetries                 int `yaml:"job_retries"`
	RetryDelaySeconds          int `yaml:"retry_delay_seconds"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	s := &c.Scheduler
	if s.SweepIntervalSeconds <= 0 {
		s.SweepIntervalSeconds = 3600
	}
	if s.ExpiryCheckIntervalSeconds <= 0 {
		s.ExpiryCheckIntervalSeconds = 3600
	}
	if s.ExpiryDaysAhead <= 0 {
		s.ExpiryDaysAhead = 3
	}
	if s.RecomputeIntervalSeconds <= 0 {
		s.RecomputeIntervalSeconds = 300
	}
	if s.DispatchIntervalSeconds <= 0 {
		s.DispatchIntervalSeconds = 300
	}
	if s.DispatchLeadMinutes <= 0 {
		s.DispatchLeadMinutes = 30
	}
	if s.CleanupIntervalSeconds <= 0 {
		s.CleanupIntervalSeconds = 86400
	}
	if s.CleanupAgeDays <= 0 {
		s.CleanupAgeDays = 30
	}
	if s.ReportIntervalSeconds <= 0 {
		s.ReportIntervalSeconds = 86400
	}
	if s.JobRetries <= 0 {
		s.JobRetries = 3
	}
	if s.RetryDelaySeconds <= 0 {
		s.RetryDelaySeconds = 30
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
}

func (s SchedulerConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

func (s SchedulerConfig) ExpiryCheckInterval() time.Duration {
	return time.Duration(s.ExpiryCheckIntervalSeconds) * time.Second
}

func (s SchedulerConfig) RecomputeInterval() time.Duration {
	return time.Duration(s.RecomputeIntervalSeconds) * time.Second
}

func (s SchedulerConfig) DispatchInterval() time.Duration {
	return time.Duration(s.DispatchIntervalSeconds) * time.Second
}

func (s SchedulerConfig) DispatchLead() time.Duration {
	return time.Duration(s.DispatchLeadMinutes) * time.Minute
}

func (s SchedulerConfig) CleanupInterval() time.Duration {
	return time.Duration(s.CleanupIntervalSeconds) * time.Second
}

func (s SchedulerConfig) ReportInterval() time.Duration {
	return time.Duration(s.ReportIntervalSeconds) * time.Second
}

func (s SchedulerConfig) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySeconds) * time.Second
}
