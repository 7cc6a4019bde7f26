package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/opencampus/tuition/internal/config"
	"github.com/opencampus/tuition/internal/observability/logger"
	"github.com/opencampus/tuition/internal/server"
	"github.com/opencampus/tuition/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(logger.New),
		fx.Provide(newSnowflakeNode),
		db.Module,
		server.Module,
	)
	app.Run()
}

func newSnowflakeNode(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
