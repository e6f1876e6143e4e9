package config

import (
	"fmt"

	kcfg "wordsmith/source/kafka"
)

// LoadKafkaConfig delegates to the Kafka source loader so every loader entry
// point lives under internal/config.
func LoadKafkaConfig(path string) (kcfg.Config, error) {
	c, err := kcfg.LoadConfig(path)
	if err != nil {
		return c, fmt.Errorf("kafka source config: %w", err)
	}
	return c, nil
}
