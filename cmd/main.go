package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solarcleaner/internal/handlers"
	"solarcleaner/internal/logger"
	"solarcleaner/internal/mqtt"
	"solarcleaner/internal/repository"
	"solarcleaner/internal/repository/db"
	"solarcleaner/internal/server"
	"solarcleaner/internal/service"
	"solarcleaner/internal/ws"

	"github.com/spf13/viper"
)

const defaultPollTick = 5 * time.Second

func main() {
	// load config.yml
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log.level"))

	// open store; an unreachable store at boot aborts startup
	store, err := openDB()
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// notification sink for connected observers
	hub := ws.NewHub(log)

	// broker connection; an unreachable broker at boot aborts startup
	bridge, err := mqtt.NewBridge(mqttConfig(), log)
	if err != nil {
		log.Fatalw("failed to connect to mqtt broker", "err", err)
	}
	defer bridge.Close()

	// wire dependencies
	repos := repository.NewRepository(store)
	services := service.NewService(repos, bridge, hub, log)
	bridge.Route(services.Cleaner)
	apiHandler := handlers.NewHandler(services, hub, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// start the schedule poller
	go services.Poller.Run(ctx, pollTick())

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")

	viper.SetDefault("port", "8080")
	viper.SetDefault("log.level", logger.InfoLevel)
	viper.SetDefault("db.path", "solarcleaner.db")
	viper.SetDefault("mqtt.broker", "tcp://localhost:1883")
	viper.SetDefault("mqtt.command_topic", "robot/command")
	viper.SetDefault("mqtt.status_topic", "robot/status")
	viper.SetDefault("poll.interval", defaultPollTick)

	// MQTT_BROKER, DB_PATH etc. override the file
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	return viper.ReadInConfig()
}

func openDB() (*sql.DB, error) {
	return db.InitDB(viper.GetString("db.path"))
}

func mqttConfig() mqtt.Config {
	return mqtt.Config{
		Broker:       viper.GetString("mqtt.broker"),
		ClientID:     viper.GetString("mqtt.client_id"),
		Username:     viper.GetString("mqtt.username"),
		Password:     viper.GetString("mqtt.password"),
		CommandTopic: viper.GetString("mqtt.command_topic"),
		StatusTopic:  viper.GetString("mqtt.status_topic"),
		QoS:          byte(viper.GetUint("mqtt.qos")),
	}
}

func pollTick() time.Duration {
	if d := viper.GetDuration("poll.interval"); d > 0 {
		return d
	}
	return defaultPollTick
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful
// shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
