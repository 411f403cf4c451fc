package producer

import (
	"errors"
	"time"
)

type Config struct {
	Brokers      []string
	Topic        string
	RequiredAcks int
	BatchTimeout time.Duration
	RetryLimit   int
	RetryDelay   time.Duration
	Timeout      time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		RequiredAcks: -1, // 等待所有副本確認
		BatchTimeout: 10 * time.Millisecond,
		RetryLimit:   3,
		RetryDelay:   200 * time.Millisecond,
		Timeout:      5 * time.Second,
	}
}

func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka brokers is required")
	}
	if c.Topic == "" {
		return errors.New("kafka topic is required")
	}
	if c.RetryLimit < 0 {
		return errors.New("retry limit must not be negative")
	}
	return nil
}
