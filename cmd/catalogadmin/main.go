package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalogadmin/internal/catalogapi"
	"github.com/smallbiznis/catalogadmin/internal/clock"
	"github.com/smallbiznis/catalogadmin/internal/config"
	"github.com/smallbiznis/catalogadmin/internal/journal"
	"github.com/smallbiznis/catalogadmin/internal/migration"
	"github.com/smallbiznis/catalogadmin/internal/observability"
	"github.com/smallbiznis/catalogadmin/internal/product"
	"github.com/smallbiznis/catalogadmin/internal/ratelimit"
	"github.com/smallbiznis/catalogadmin/internal/server"
	"github.com/smallbiznis/catalogadmin/internal/session"
	"github.com/smallbiznis/catalogadmin/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		catalogapi.Module,
		product.Module,
		journal.Module,
		ratelimit.Module,
		session.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
