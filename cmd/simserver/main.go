package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"skirmish/internal/api"
	"skirmish/internal/command"
	"skirmish/internal/config"
	"skirmish/internal/sim"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Println("no .env file found, using environment variables only")
		} else {
			log.Println("loaded environment from .env")
		}
	} else {
		log.Println("loaded environment from ../.env")
	}

	log.Println("================================")
	log.Println(" SKIRMISH - SIMULATION ENGINE")
	log.Println("================================")

	appConfig := config.Load()
	simCfg := appConfig.Sim
	serverCfg := appConfig.Server

	port := strconv.Itoa(serverCfg.Port)

	log.Printf("sim config: seed=%d world=%gx%g max_units=%d tick_rate=%d",
		simCfg.Seed, simCfg.WorldWidth, simCfg.WorldHeight, simCfg.MaxUnits, simCfg.TickRate)

	s := sim.New(sim.Config{
		Seed:        simCfg.Seed,
		WorldWidth:  simCfg.WorldWidth,
		WorldHeight: simCfg.WorldHeight,
		MaxUnits:    simCfg.MaxUnits,
	})

	queue := command.NewQueue(command.QueueConfig{BufferSize: appConfig.Limits.MaxCommandQueue})

	// Start debug server (metrics + pprof on localhost).
	debugCfg := api.DefaultObservabilityConfig()
	if os.Getenv("DISABLE_DEBUG_SERVER") != "true" {
		if err := api.StartDebugServer(debugCfg); err != nil {
			log.Printf("debug server disabled: %v", err)
		}
	}

	// Operator session auth is off by default; a deployer fronting this
	// process with a real identity provider can turn it on and is
	// responsible for gating who reaches /api/auth/login.
	authEnabled := os.Getenv("OPERATOR_AUTH_ENABLED") == "true"
	var sessionMgr *api.SessionManager
	if authEnabled {
		sessionMgr = api.NewSessionManager()
		log.Println("operator session auth ENABLED (set OPERATOR_AUTH_ENABLED=false to disable)")
	} else {
		log.Println("operator session auth disabled (set OPERATOR_AUTH_ENABLED=true to enable)")
	}

	server := api.NewServerWithAuth(s, queue, sessionMgr, authEnabled)

	tickInterval := time.Second / time.Duration(simCfg.TickRate)

	go func() {
		addr := ":" + port
		log.Printf("api server on http://localhost%s", addr)
		log.Printf("snapshot feed: ws://localhost%s/ws/snapshots", addr)
		if err := server.Start(addr, tickInterval); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("server ready, press Ctrl+C to stop")
	<-quit

	log.Println("shutting down...")
	server.Stop()
	log.Println("goodbye")
}
