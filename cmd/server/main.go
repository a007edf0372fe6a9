package main // Entry point package

import (
    "context"
    "log"
    "os"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/matchpoint/court-reservation/internal/config"
    "github.com/matchpoint/court-reservation/internal/database"
    "github.com/matchpoint/court-reservation/internal/handler"
    "github.com/matchpoint/court-reservation/internal/middleware"
    "github.com/matchpoint/court-reservation/internal/queue"
    "github.com/matchpoint/court-reservation/internal/repository"
    "github.com/matchpoint/court-reservation/internal/router"
    "github.com/matchpoint/court-reservation/internal/service"
)

func main() {
    // Load a local .env in development; in production the variables
    // come from the environment directly.
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("warning: could not load .env: %v", err)
    }
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connection failed: %v", err)
    }
    defer db.Close()

    // Redis backs the rate limiter and the response cache.  A nil
    // client disables both rather than blocking startup.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Println("redis unavailable: rate limiting and response caching disabled")
    }

    // Repositories
    resourceRepo := repository.NewResourceRepo(db)
    holdRepo := repository.NewHoldRepo(db)
    bookingRepo := repository.NewBookingRepo(db)
    ruleRepo := repository.NewPricingRuleRepo(db)
    waitlistRepo := repository.NewWaitlistRepo(db)

    // Services
    publisher := queue.NewPublisher(os.Getenv("RABBITMQ_URL"))
    waitlistSvc := service.NewWaitlistService(waitlistRepo, resourceRepo, publisher)
    holdSvc := service.NewHoldService(holdRepo, resourceRepo, waitlistSvc)
    pricingSvc := service.NewPricingService(resourceRepo, ruleRepo)
    bookingSvc := service.NewBookingService(bookingRepo, holdRepo, pricingSvc, waitlistSvc, waitlistSvc, publisher)
    availabilitySvc := service.NewAvailabilityService(resourceRepo, holdRepo, bookingRepo, cfg.DayStartHour, cfg.DayEndHour)

    // Background sweep: ages out expired holds and waitlist entries and
    // completes elapsed bookings.  Correctness never depends on it.
    sweep := service.NewSweep(holdRepo, bookingSvc, waitlistSvc, cfg.SweepInterval, cfg.SweepMinInterval)
    sweepCtx, stopSweep := context.WithCancel(context.Background())
    defer stopSweep()
    go sweep.Run(sweepCtx)

    e := echo.New()
    e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

    router.RegisterRoutes(e)
    router.RegisterPublic(e, handler.NewAvailabilityHandler(availabilitySvc), rdb, config.LoadCacheConfig())
    router.RegisterMember(e,
        handler.NewHoldHandler(holdSvc),
        handler.NewBookingHandler(bookingSvc),
        handler.NewAvailabilityHandler(availabilitySvc),
        handler.NewPricingHandler(pricingSvc),
        handler.NewWaitlistHandler(waitlistSvc),
        cfg.JWTSecret)
    router.RegisterAdmin(e, handler.NewPricingHandler(pricingSvc), cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
