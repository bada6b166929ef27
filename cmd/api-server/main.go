// Command api-server runs the Modelado Pao storefront API.
package main

import (
	"context"

	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"

	pao "github.com/xenking/modelado-pao/internal/app"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, t *app.Telemetry) error {
		cfg, err := pao.LoadConfig()
		if err != nil {
			return err
		}
		lg.Info("Configuration loaded",
			zap.String("addr", cfg.Addr),
			zap.Bool("redis", cfg.Redis.Addr != ""),
			zap.Bool("kafka", cfg.Kafka.Brokers != ""),
		)
		return pao.Run(ctx, lg, t, cfg)
	})
}
