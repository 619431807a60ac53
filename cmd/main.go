package main

import (
	"context"
	"net/http"
	"os"
	"strconv"

	"github.com/hendrisulistya/asset-maintenance/internal/auth"
	"github.com/hendrisulistya/asset-maintenance/internal/db"
	"github.com/hendrisulistya/asset-maintenance/internal/events"
	"github.com/hendrisulistya/asset-maintenance/internal/handlers"
	"github.com/hendrisulistya/asset-maintenance/internal/middleware"
	"github.com/hendrisulistya/asset-maintenance/internal/schedule"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func horizonYears() int {
	if raw := os.Getenv("HORIZON_YEARS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
		log.WithField("horizon_years", raw).Warn("Invalid HORIZON_YEARS, using default")
	}
	return schedule.DefaultHorizonYears
}

// sweepSchedules re-reconciles every asset that has drifted from its derived
// schedule. In-sync assets are skipped so their pending record identities
// survive the sweep.
func sweepSchedules(engine *schedule.Engine, assets db.AssetCollection) {
	ctx := context.Background()
	all, err := assets.FindAssets(ctx)
	if err != nil {
		log.WithError(err).Error("Schedule sweep failed to list assets")
		return
	}
	regenerated := 0
	for _, asset := range all {
		drifted, err := engine.NeedsRegenerate(ctx, asset)
		if err != nil {
			log.WithField("asset_id", asset.ID.Hex()).WithError(err).Error("Schedule sweep check failed")
			continue
		}
		if !drifted {
			continue
		}
		if err := engine.Regenerate(ctx, asset); err != nil {
			log.WithField("asset_id", asset.ID.Hex()).WithError(err).Error("Schedule sweep regenerate failed")
			continue
		}
		regenerated++
	}
	log.WithFields(log.Fields{"assets": len(all), "regenerated": regenerated}).Info("Schedule sweep finished")
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, using environment")
	}
	if os.Getenv("LOG_LEVEL") == "debug" {
		log.SetLevel(log.DebugLevel)
	}

	client, err := db.ConnectMongo()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	log.Info("Connected to MongoDB")

	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "asset_maintenance"
	}
	database := client.Database(dbName)

	transactor := &db.MongoTransactor{Client: client}
	categories := &db.MongoCategoryCollection{Collection: database.Collection("categories")}
	assets := &db.MongoAssetCollection{Collection: database.Collection("assets")}
	records := &db.MongoMaintenanceCollection{Collection: database.Collection("maintenance_records")}
	users := &db.MongoUserCollection{Collection: database.Collection("users")}

	publisher, err := events.ConnectMQTT()
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MQTT broker")
	}

	engine := schedule.NewEngine(transactor, categories, records, horizonYears())
	lifecycle := schedule.NewLifecycle(transactor, records, assets, publisher)

	authService, err := auth.NewService()
	if err != nil {
		log.WithError(err).Fatal("Failed to create auth service")
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	authHandler := handlers.NewAuthHandler(authService, users)
	categoryHandler := handlers.NewCategoryHandler(categories, assets, engine)
	assetHandler := handlers.NewAssetHandler(assets, categories, engine)
	maintenanceHandler := handlers.NewMaintenanceHandler(records, lifecycle)

	perm := func(action string, h http.HandlerFunc) http.Handler {
		return authMiddleware.RequirePermission(action)(h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)

	mux.Handle("POST /api/categories", perm("manage_categories", categoryHandler.Create))
	mux.Handle("GET /api/categories", perm("view_categories", categoryHandler.List))
	mux.Handle("PUT /api/categories/{id}/frequency", perm("manage_categories", categoryHandler.UpdateFrequency))

	mux.Handle("POST /api/assets", perm("manage_assets", assetHandler.Create))
	mux.Handle("GET /api/assets", perm("view_assets", assetHandler.List))
	mux.Handle("GET /api/assets/{id}", perm("view_assets", assetHandler.Get))
	mux.Handle("DELETE /api/assets/{id}", perm("manage_assets", assetHandler.Retire))

	mux.Handle("GET /api/maintenance", perm("view_maintenance", maintenanceHandler.List))
	mux.Handle("GET /api/maintenance/{id}", perm("view_maintenance", maintenanceHandler.Get))
	mux.Handle("POST /api/maintenance/{id}/findings", perm("submit_findings", maintenanceHandler.SubmitFindings))
	mux.Handle("POST /api/maintenance/{id}/repairs", perm("resolve_refinement", maintenanceHandler.ResolveRefinement))
	mux.Handle("POST /api/maintenance/{id}/confirm", perm("confirm_maintenance", maintenanceHandler.Confirm))
	mux.Handle("POST /api/maintenance/{id}/cancel", perm("manage_assets", maintenanceHandler.Cancel))

	handler := middleware.RequestLogger(authMiddleware.Authenticate(mux))

	// Optional periodic sweep keeps long-lived schedules reconciled, e.g.
	// after an operator raises HORIZON_YEARS.
	if spec := os.Getenv("SWEEP_CRON"); spec != "" {
		c := cron.New()
		if _, err := c.AddFunc(spec, func() { sweepSchedules(engine, assets) }); err != nil {
			log.WithError(err).Fatal("Invalid SWEEP_CRON expression")
		}
		c.Start()
		log.WithField("cron", spec).Info("Schedule sweep enabled")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.WithField("port", port).Info("HTTP server listening")
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
