// Package redisstore persists device records in a single Redis hash keyed by MAC.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"wifitracker/internal/logger"
	"wifitracker/pkg/models"
)

// Config configures Redis access for device persistence.
type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	Timeout  time.Duration
}

// Store reads and writes device records in one Redis hash.
type Store struct {
	client  *redis.Client
	key     string
	timeout time.Duration
}

// New constructs a Redis-backed device store and checks connectivity.
func New(cfg Config) (*Store, error) {
	cfg = withDefaults(cfg)

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis device store: %w", err)
	}

	logger.Infof("Device redis store initialized: %s key=%s", cfg.Addr, cfg.Key)
	return NewWithClient(client, cfg.Key, cfg.Timeout), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, key string, timeout time.Duration) *Store {
	cfg := withDefaults(Config{Key: key, Timeout: timeout})
	return &Store{client: client, key: cfg.Key, timeout: cfg.Timeout}
}

func withDefaults(cfg Config) Config {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.Key) == "" {
		cfg.Key = "wifitracker:devices"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	cfg.Key = strings.TrimSpace(cfg.Key)
	return cfg
}

// Put writes one record into the hash.
func (s *Store) Put(ctx context.Context, rec models.DeviceRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode device record: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.client.HSet(ctx, s.key, rec.DeviceMAC, data).Err(); err != nil {
		return fmt.Errorf("write device record %s: %w", rec.DeviceMAC, err)
	}
	return nil
}

// Get reads one record.
func (s *Store) Get(ctx context.Context, mac string) (models.DeviceRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.client.HGet(ctx, s.key, mac).Bytes()
	if err == redis.Nil {
		return models.DeviceRecord{}, false, nil
	}
	if err != nil {
		return models.DeviceRecord{}, false, fmt.Errorf("read device record %s: %w", mac, err)
	}
	rec, err := decodeRecord(mac, raw)
	if err != nil {
		return models.DeviceRecord{}, false, err
	}
	return rec, true, nil
}

// All reads every record in MAC order, skipping entries that fail to decode.
func (s *Store) All(ctx context.Context) ([]models.DeviceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	hash, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("read device records: %w", err)
	}
	return decodeAll(hash), nil
}

func decodeAll(hash map[string]string) []models.DeviceRecord {
	macs := make([]string, 0, len(hash))
	for mac := range hash {
		macs = append(macs, mac)
	}
	sort.Strings(macs)

	out := make([]models.DeviceRecord, 0, len(macs))
	for _, mac := range macs {
		rec, err := decodeRecord(mac, []byte(hash[mac]))
		if err != nil {
			logger.Warnf("Skipping corrupt device record: %v", err)
			continue
		}
		out = append(out, rec)
	}
	return out
}

func decodeRecord(mac string, raw []byte) (models.DeviceRecord, error) {
	var rec models.DeviceRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return models.DeviceRecord{}, fmt.Errorf("decode device record %s: %w", mac, err)
	}
	if rec.DeviceMAC != mac {
		return models.DeviceRecord{}, fmt.Errorf("device record field %s holds %s", mac, rec.DeviceMAC)
	}
	return rec, nil
}

// Close closes Redis resources.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}
