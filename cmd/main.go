package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/RoyceAzure/lab/grocery/internal/api"
	"github.com/RoyceAzure/lab/grocery/internal/api/handler"
	"github.com/RoyceAzure/lab/grocery/internal/api/router"
	"github.com/RoyceAzure/lab/grocery/internal/appcontext"
	"github.com/RoyceAzure/lab/grocery/internal/config"
	"github.com/RoyceAzure/lab/grocery/internal/constants"
	"golang.org/x/sync/errgroup"
)

// @title grocery
// @version 1.0
// @description 雜貨商店 訂單與會員服務
// @BasePath  /api/v1

// @securityDefinitions.apikey  ApiKeyAuth
// @in                          header
// @name                        Authorization

func main() {
	ctx := context.Background()
	app, err := appcontext.NewApplicationContext(ctx, config.GetConfig())
	if err != nil {
		log.Fatal(err)
		return
	}

	// 初始化 handler
	server := api.NewServer(
		handler.NewAuthHandler(app.IdentityService),
		handler.NewLoyaltyHandler(app.IdentityService),
		handler.NewCatalogHandler(app.CatalogService),
		handler.NewCartHandler(app.CartService, app.CatalogService),
		handler.NewCheckoutHandler(app.CheckoutService),
		handler.NewOrderHandler(app.OrderService, app.TrackingHub, app.Logger),
		handler.NewAdminHandler(app.OrderService, app.IdentityService),
	)

	// 設置路由
	r := router.SetupRouter(server, app.IdentityService, app.RegisterLimiter, app.Logger)
	if err := router.PrintRoutes(r, app.Logger); err != nil {
		log.Printf("walk routes error: %v", err)
	}

	// 設定服務器參數
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler: r,
	}

	// 設置訊號監聽
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	// 啟動服務
	g.Go(func() error {
		log.Printf("Server starting on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	// 監聽退出訊號, 或服務啟動失敗
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownDuration)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if err := app.Shutdown(shutdownCtx); err != nil {
			log.Printf("Application shutdown error: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Printf("closed completed")
}
