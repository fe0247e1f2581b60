package scraper

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Stevem319/Stevechatravel/models"
)

type Cache interface {
	Get(ctx context.Context, req models.SearchRequest) ([]models.RawItinerary, bool)
	Set(ctx context.Context, req models.SearchRequest, itineraries []models.RawItinerary) error
	Close() error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration
}

func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:     "localhost",
		Port:     "6379",
		Password: "",
		DB:       0,
		TTL:      30 * time.Minute,
	}
}

func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, req models.SearchRequest) ([]models.RawItinerary, bool) {
	data, err := c.client.Get(ctx, CacheKey(req)).Bytes()
	if err != nil {
		return nil, false
	}

	var itineraries []models.RawItinerary
	if err := json.Unmarshal(data, &itineraries); err != nil {
		return nil, false
	}
	return itineraries, true
}

func (c *RedisCache) Set(ctx context.Context, req models.SearchRequest, itineraries []models.RawItinerary) error {
	data, err := json.Marshal(itineraries)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, CacheKey(req), data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

type NoOpCache struct{}

func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

func (c *NoOpCache) Get(ctx context.Context, req models.SearchRequest) ([]models.RawItinerary, bool) {
	return nil, false
}

func (c *NoOpCache) Set(ctx context.Context, req models.SearchRequest, itineraries []models.RawItinerary) error {
	return nil
}

func (c *NoOpCache) Close() error {
	return nil
}

// CacheKey hashes every request field that changes the result
func CacheKey(req models.SearchRequest) string {
	keyData := struct {
		Origin        string
		Destination   string
		DepartureDate string
		ReturnDate    string
		Trip          string
		Seat          string
		Adults        int
		CarryOnBags   int
		CheckedBags   int
	}{
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureDate: req.DepartureDate.String(),
		Trip:          req.Trip,
		Seat:          req.Seat,
		Adults:        req.Adults,
		CarryOnBags:   req.CarryOnBags,
		CheckedBags:   req.CheckedBags,
	}
	if req.ReturnDate != nil {
		keyData.ReturnDate = req.ReturnDate.String()
	}

	data, _ := json.Marshal(keyData)
	hash := sha256.Sum256(data)
	return "flight:" + hex.EncodeToString(hash[:])
}
