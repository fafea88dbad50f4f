package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/questline-hq/taskhunt-backend/internal/auth"
	"github.com/questline-hq/taskhunt-backend/internal/game"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/clock"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/events"
	"github.com/questline-hq/taskhunt-backend/internal/pkg/middleware"
	"github.com/questline-hq/taskhunt-backend/internal/player"
	"github.com/questline-hq/taskhunt-backend/internal/scheduler"
	postgresstore "github.com/questline-hq/taskhunt-backend/internal/storage/postgres"
)

func main() {
	setupViper()
	setupZerolog()

	db := setupDb()
	store := postgresstore.New(db)

	clk := clock.New()
	tokens := auth.NewTokenService(
		[]byte(viper.Get("JWT_ACCESS_SECRET").(string)),
		[]byte(viper.Get("JWT_REFRESH_SECRET").(string)),
		clk)

	gateway := setupScheduler()
	sink := setupEvents()
	defer func() {
		if publisher, ok := sink.(*events.Publisher); ok {
			publisher.Close()
		}
	}()

	cfg := game.Config{
		AdminCode: viper.Get("ADMIN_CODE").(string),
		MaxGames:  viper.GetInt("MAX_GAMES"),
		MaxAdmins: viper.GetInt("MAX_ADMINS"),
	}

	apiRouter := setupApiRouter(store, tokens, gateway, sink, clk, cfg)

	port := viper.Get("PORT").(string)
	server := &http.Server{
		Addr:         port,
		Handler:      apiRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	server.ListenAndServe()
}

func setupDb() *gorm.DB {
	dbUrl := viper.Get("DB_URL").(string)

	db, err := gorm.Open(postgres.Open(dbUrl), &gorm.Config{})

	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	sqlDb, _ := db.DB()

	sqlDb.SetMaxOpenConns(50)
	sqlDb.SetConnMaxLifetime(time.Minute * 10)

	return db
}

func setupScheduler() scheduler.Gateway {
	group := viper.Get("SCHEDULER_GROUP").(string)

	gateway, err := scheduler.NewEventBridgeGateway(context.Background(), group)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler gateway")
	}
	return gateway
}

func setupEvents() events.Sink {
	projectId := viper.GetString("GOOGLE_PROJECT_ID")
	topic := viper.GetString("EVENTS_TOPIC")
	if projectId == "" || topic == "" {
		log.Warn().Msg("Lifecycle event publishing disabled: missing project id or topic")
		return events.NopSink{}
	}

	publisher, err := events.NewPublisher(context.Background(), projectId, topic)
	if err != nil {
		log.Error().Err(err).Msg("Error initializing event publisher")
		return events.NopSink{}
	}
	return publisher
}

func setupApiRouter(
	store *postgresstore.Storage,
	tokens *auth.TokenService,
	gateway scheduler.Gateway,
	sink events.Sink,
	clk clock.Clock,
	cfg game.Config,
) *gin.Engine {
	apiRouter := gin.Default()
	routerGroup := apiRouter.Group("/taskhunt-api")

	middleware.RegisterGlobalMiddleware(apiRouter)

	auth.RegisterRoutes(routerGroup, tokens)
	game.RegisterRoutes(routerGroup, store, tokens, gateway, sink, clk, cfg)
	player.RegisterRoutes(routerGroup, store, tokens)

	return apiRouter
}

func setupViper() {
	viper.AutomaticEnv()
	viper.SetConfigFile("./.env")
}

func setupZerolog() {
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
