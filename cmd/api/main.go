package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/heshbon/internal/analysis"
	"github.com/MrJamesThe3rd/heshbon/internal/config"
	"github.com/MrJamesThe3rd/heshbon/internal/database"
	"github.com/MrJamesThe3rd/heshbon/internal/export"
	heshbonHttp "github.com/MrJamesThe3rd/heshbon/internal/http"
	analysisHandler "github.com/MrJamesThe3rd/heshbon/internal/http/analysis"
	exportHandler "github.com/MrJamesThe3rd/heshbon/internal/http/export"
	rulesHandler "github.com/MrJamesThe3rd/heshbon/internal/http/rules"
	"github.com/MrJamesThe3rd/heshbon/internal/rules/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var db *sql.DB

	if cfg.Rules.Backend == config.BackendPostgres {
		db, err = database.New(context.Background(), cfg.ConnectionString())
		if err != nil {
			slog.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var (
		locator         = store.NewLocator(cfg.Workspace.Dir, db)
		analysisService = analysis.NewService(cfg.MatchOptions(), slog.Default())
		exportService   = export.NewService(analysisService)
	)

	var (
		analysisH = analysisHandler.NewHandler(analysisService, locator)
		rulesH    = rulesHandler.NewHandler(locator)
		exportH   = exportHandler.NewHandler(exportService, locator)
	)

	router := heshbonHttp.New(analysisH, rulesH, exportH, cfg.Server.CORSOrigins)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	slog.Info("starting server", "port", server.Addr, "workspace", cfg.Workspace.Dir, "rules", cfg.Rules.Backend)

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
