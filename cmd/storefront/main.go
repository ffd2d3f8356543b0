package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/cache"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/config"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/engine"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/gateway"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/identity"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/logger"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/notify"
	"github.com/ngoquangphuc29306/MiniMartChipChip-Ecommerce-sub001/internal/poller"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logg := logger.New("storefront-sync", cfg.LogLevel)

	ctx := context.Background()
	mongoDB, err := gateway.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	if err := gateway.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("Failed to create indexes: %v", err)
	}
	logg.Info("connected to MongoDB", "uri", cfg.MongoURI)

	cartStore := gateway.NewMongoCartStore(mongoDB)
	wishlistStore := gateway.NewMongoWishlistStore(mongoDB)

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Redis connection failed:", err)
	}
	logg.Info("redis ping succeeded", "addr", cfg.RedisAddr)

	snapshots := cache.NewRedisCache(redisClient)
	sink := notify.NewSlogSink(logg)

	cart := engine.NewCart(cartStore, snapshots, sink, logg)
	wishlist := engine.NewWishlist(wishlistStore, sink, logg)

	provider := identity.NewTokenProvider([]byte(cfg.SessionSecret))
	reactor := identity.NewReactor(provider, cart, wishlist)
	reactor.Start(ctx)
	defer reactor.Stop()

	pollerCtx, cancelPoller := context.WithCancel(ctx)
	checkoutPoller := poller.New(cartStore, snapshots, logg, func(ownerID string) {
		if cart.Owner() == ownerID {
			cart.Load(ctx)
		}
	}, cfg.KafkaBrokers...)
	go checkoutPoller.Run(pollerCtx)

	logg.Info("storefront sync engine running")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logg.Info("shutting down")
	cancelPoller()
	checkoutPoller.Close()
	if err := mongoDB.Client().Disconnect(ctx); err != nil {
		logg.Warn("mongo disconnect failed", "error", err)
	}
	logg.Info("stopped")
}
