package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"ticketcore/src/boot"
	"ticketcore/src/config"
	"ticketcore/src/lib"
	"ticketcore/src/middlewares"
	"ticketcore/src/services"
	"ticketcore/src/types"
	"time"
	"unicode"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const apiPrefix = "/api/v1"

type application struct {
	cfg         *config.Config
	users       middlewares.UserResolver
	inventory   *services.InventoryService
	validations *services.ValidationService
	tickets     *services.TicketService
}

// ticketkey accepts the printable, unpadded keys a scanner or staff member
// can submit: a credential or a ticket id.
var ticketkey validator.Func = func(fl validator.FieldLevel) bool {
	key := fl.Field().String()
	if key == "" || len(key) > 128 {
		return false
	}
	for _, r := range key {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func setupRouter(app *application) *gin.Engine {
	router := gin.Default()

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("ticketkey", ticketkey)
	}

	if app.cfg.AppEnv == "local" {
		router.Use(cors.Default())
	} else {
		cc := cors.DefaultConfig()
		cc.AllowOrigins = app.cfg.CorsOrigins
		cc.AllowHeaders = append(cc.AllowHeaders, "Authorization")
		cc.AllowCredentials = true
		router.Use(cors.New(cc))
	}

	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Use(middlewares.MaintenanceMiddleware(app.cfg.MaintenanceMode))

	authorized := router.Group(apiPrefix)
	authorized.Use(middlewares.AuthMiddleware([]byte(app.cfg.JWTSecret), app.users))
	{
		purchaseHandlers(authorized, app)
		ticketHandlers(authorized, app)

		staff := authorized.Group("", middlewares.RequireRole(types.ROLE_STAFF))
		validationHandlers(staff, app)
	}
	return router
}

func main() {
	cfg := config.Load()
	logs := lib.SetupLogger(cfg.LogFile)
	defer logs.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := boot.InitStore(cfg)
	creds, err := boot.InitCredentials(ctx, cfg)
	if err != nil {
		log.Fatalf("Could not initialize QR credentials: %s", err)
	}
	publisher, closePublisher := boot.InitPublisher(ctx, cfg)
	defer closePublisher()

	app := &application{
		cfg:         cfg,
		users:       store,
		inventory:   services.NewInventoryService(store, creds, services.WithPublisher(publisher)),
		validations: services.NewValidationService(store, creds, services.WithPublisher(publisher)),
		tickets:     services.NewTicketService(store, lib.NewQrRenderer(), services.WithImageCache(boot.InitQrCache(cfg))),
	}

	boot.InitScheduler(cfg, app.inventory)
	defer boot.StopScheduler()

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: setupRouter(app),
	}
	go func() {
		log.Printf("Listening on %s\n", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %s", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %s\n", err.Error())
	}
}
