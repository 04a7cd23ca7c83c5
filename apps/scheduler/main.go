package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallfirm/fakturo/internal/client"
	"github.com/smallfirm/fakturo/internal/clock"
	"github.com/smallfirm/fakturo/internal/config"
	"github.com/smallfirm/fakturo/internal/invoice"
	"github.com/smallfirm/fakturo/internal/migration"
	"github.com/smallfirm/fakturo/internal/observability"
	"github.com/smallfirm/fakturo/internal/profile"
	"github.com/smallfirm/fakturo/internal/recurring"
	"github.com/smallfirm/fakturo/internal/scheduler"
	"github.com/smallfirm/fakturo/pkg/db"
	"go.uber.org/fx"
)

// Headless sweep worker: runs recurring invoice generation and trash
// retention without serving HTTP.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		profile.Module,
		client.Module,
		invoice.Module,
		recurring.Module,

		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}
