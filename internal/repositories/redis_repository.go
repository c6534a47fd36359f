package repository

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/redis/go-redis/v9"
)

type RateLimitRepository interface {
	CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error)
	ResetLoginAttempts(ctx context.Context, email string) error
}

type redisRepository struct {
	client *redis.Client
	cfg    *config.Config
}

func NewRedisClient(cfg *config.Config) (*redis.Client, error) {

	redisURL := cfg.RedisConnect.GetDSN()
	slog.Info("Connecting to Redis", slog.String("url", fmt.Sprintf("redis://%s:<password>@%s:%s", cfg.RedisConnect.Username, cfg.RedisConnect.Host, cfg.RedisConnect.Port)))

	// Parse the Redis URL
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Error("Failed to parse Redis URL", slog.Any("error", err), slog.String("url", redisURL))
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opt.DB = cfg.RedisConnect.DB

	client := redis.NewClient(opt)

	// Connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Test the connection
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("Failed to connect to Redis", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Connected to Redis")
	return client, nil

}

func NewRateLimitRepo(client *redis.Client, cfg *config.Config) RateLimitRepository {
	return &redisRepository{client: client, cfg: cfg}
}

// CheckLoginRateLimit records an attempt for email in a sliding window and
// returns isAllowed, attempts left, seconds to wait.
func (r *redisRepository) CheckLoginRateLimit(ctx context.Context, email string) (bool, int, int, error) {

	logger := middleware.LoggerFromContext(ctx)

	key := loginAttemptsKey(email)

	now := time.Now()

	// This means only login attempts after 'this time' are counted.
	windowStart := now.Add(-r.cfg.RateConfig.WindowSize).UnixMicro()

	// redis pipeline for executing multiple commands
	pipe := r.client.Pipeline()

	// remove old entries from the pipeline
	pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))

	// scores are microseconds; nanosecond members keep near simultaneous attempts distinct
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.UnixMicro()), Member: now.UnixNano()})

	// count the number of login attempts, currently in the window
	count := pipe.ZCard(ctx, key)

	// delete the redis key after expiry
	pipe.Expire(ctx, key, r.cfg.RateConfig.WindowSize)

	// execute the commands
	_, err := pipe.Exec(ctx)
	if err != nil {
		logger.Error("Redis pipeline execution failed for rate limit", slog.String("key", key), slog.Any("error", err))
		return false, 0, 0, fmt.Errorf("redis pipeline error for rate limit check: %w", err)
	}

	// remaining attempts
	attempts := count.Val()
	remaining := r.cfg.RateConfig.MaxAttempts - attempts

	if attempts >= r.cfg.RateConfig.MaxAttempts {

		oldestScoreCmd := r.client.ZRangeArgsWithScores(ctx, redis.ZRangeArgs{
			Key: key, Start: 0, Stop: 0,
		})

		scores, err := oldestScoreCmd.Result()
		if err != nil || len(scores) == 0 {
			logger.Error("Failed to get oldest attempt time for rate limit", slog.String("key", key), slog.Any("error", err))
			return false, 0, int(r.cfg.RateConfig.WindowSize.Seconds()), fmt.Errorf("failed to get oldest attempt time: %w", err)
		}

		oldest := time.UnixMicro(int64(scores[0].Score))

		retryAfter := max(int(math.Ceil(time.Until(oldest.Add(r.cfg.RateConfig.WindowSize)).Seconds())), 0)

		logger.Warn("Login rate limit exceeded", slog.String("email", email), slog.Int64("attempts", attempts))
		return false, 0, retryAfter, nil
	}

	logger.Debug("Rate limit check passed", slog.String("email", email), slog.Int64("attempts", attempts), slog.Int64("remaining", remaining))
	return true, int(remaining), 0, nil
}

// ResetLoginAttempts clears the window after a successful login.
func (r *redisRepository) ResetLoginAttempts(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, loginAttemptsKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}

	return nil
}

func loginAttemptsKey(email string) string {
	return "storefront:login_attempts:" + email
}
