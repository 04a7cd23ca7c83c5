package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/clock"
	"github.com/smallfirm/fakturo/internal/config"
	"github.com/smallfirm/fakturo/internal/migration"
	"github.com/smallfirm/fakturo/internal/observability"
	"github.com/smallfirm/fakturo/internal/scheduler"
	"github.com/smallfirm/fakturo/internal/server"
	"github.com/smallfirm/fakturo/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
