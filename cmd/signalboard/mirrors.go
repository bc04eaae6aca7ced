package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jpalmerr/signalboard"
	"github.com/jpalmerr/signalboard/config"
	"github.com/jpalmerr/signalboard/mirror"
)

// openMirrors connects every mirror enabled in cfg. On error, mirrors
// already opened are closed.
func openMirrors(ctx context.Context, cfg *config.Config) ([]signalboard.Mirror, error) {
	var mirrors []signalboard.Mirror

	if cfg.MQTT.Enabled() {
		m, err := mirror.DialMQTT(mirror.MQTTOptions{
			Broker:      cfg.MQTT.Broker,
			ClientID:    cfg.MQTT.ClientID,
			Username:    cfg.MQTT.Username,
			Password:    cfg.MQTT.Password,
			TopicPrefix: cfg.MQTT.TopicPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open mqtt mirror: %w", err)
		}
		mirrors = append(mirrors, m)
	}

	if cfg.Redis.Enabled() {
		r, err := mirror.DialRedis(ctx, mirror.RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
		})
		if err != nil {
			closeMirrors(mirrors, slog.Default())
			return nil, fmt.Errorf("failed to open redis mirror: %w", err)
		}
		mirrors = append(mirrors, r)
	}

	return mirrors, nil
}

func closeMirrors(mirrors []signalboard.Mirror, logger *slog.Logger) {
	for _, m := range mirrors {
		if err := m.Close(); err != nil {
			logger.Warn("mirror close failed", "error", err)
		}
	}
}
