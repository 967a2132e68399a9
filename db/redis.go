// db/redis.go
package db

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/workfloworchestrator/oauth2-filter/accesscontrol"
	logger "github.com/workfloworchestrator/oauth2-filter/logging"
)

var (
	RedisClient   *redis.Client
	encryptionKey []byte
)

func InitRedis() error {
	RedisClient = redis.NewClient(&redis.Options{
		Addr:         viper.GetString("redis.addr"),
		Password:     viper.GetString("redis.password"),
		DB:           viper.GetInt("redis.db"),
		DialTimeout:  viper.GetDuration("redis.dialTimeout"),
		ReadTimeout:  viper.GetDuration("redis.readTimeout"),
		WriteTimeout: viper.GetDuration("redis.writeTimeout"),
		PoolSize:     viper.GetInt("redis.poolSize"),
		PoolTimeout:  viper.GetDuration("redis.poolTimeout"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := RedisClient.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	encryptionKey = []byte(viper.GetString("redis.encryptionKey"))
	if len(encryptionKey) != 32 {
		return fmt.Errorf("invalid encryption key length: must be 32 bytes")
	}

	logger.Info("Successfully connected to Redis")
	return nil
}

func CloseRedis() {
	if RedisClient != nil {
		if err := RedisClient.Close(); err != nil {
			logger.Error("Error closing Redis connection", zap.Error(err))
		}
	}
}

func encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decrypt(ciphertext []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, err
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]
	return gcm.Open(nil, nonce, ciphertext, nil)
}

// tokenInfoKey hashes the raw access token so the token itself is never
// stored as a Redis key.
func tokenInfoKey(token string) string {
	digest := sha256.Sum256([]byte(token))
	return fmt.Sprintf("tokeninfo:%s", base64.RawURLEncoding.EncodeToString(digest[:]))
}

// CacheTokenInfo stores an introspection payload, encrypted, under a
// digest of the access token.
func CacheTokenInfo(ctx context.Context, token string, claims *accesscontrol.Claims, ttl time.Duration) error {
	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return fmt.Errorf("failed to marshal token info: %w", err)
	}

	encryptedClaims, err := encrypt(claimsJSON)
	if err != nil {
		return fmt.Errorf("failed to encrypt token info: %w", err)
	}

	key := tokenInfoKey(token)
	err = RedisClient.Set(ctx, key, base64.StdEncoding.EncodeToString(encryptedClaims), ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to cache token info: %w", err)
	}

	logger.Debug("Token info cached successfully")
	return nil
}

// GetCachedTokenInfo returns the cached introspection payload for a
// token, or nil when the token is not cached.
func GetCachedTokenInfo(ctx context.Context, token string) (*accesscontrol.Claims, error) {
	key := tokenInfoKey(token)
	encryptedClaimsStr, err := RedisClient.Get(ctx, key).Result()
	if err == redis.Nil {
		logger.Debug("Token info not found in cache")
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to get token info from cache: %w", err)
	}

	encryptedClaims, err := base64.StdEncoding.DecodeString(encryptedClaimsStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode token info: %w", err)
	}

	claimsJSON, err := decrypt(encryptedClaims)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt token info: %w", err)
	}

	var claims accesscontrol.Claims
	err = json.Unmarshal(claimsJSON, &claims)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal token info: %w", err)
	}

	logger.Debug("Token info retrieved from cache")
	return &claims, nil
}

// DeleteCachedTokenInfo evicts a cached introspection payload, e.g. when
// the authorization server reports the token inactive.
func DeleteCachedTokenInfo(ctx context.Context, token string) error {
	key := tokenInfoKey(token)
	err := RedisClient.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("failed to delete token info from cache: %w", err)
	}
	logger.Debug("Token info deleted from cache")
	return nil
}

func RateLimit(ctx context.Context, key string, limit int, per time.Duration) (bool, error) {
	pipe := RedisClient.Pipeline()
	now := time.Now().UnixNano()
	key = fmt.Sprintf("ratelimit:%s", key)

	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", now-(per.Nanoseconds())))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: now})
	pipe.ZCard(ctx, key)
	pipe.Expire(ctx, key, per)

	cmds, err := pipe.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to execute rate limit commands: %w", err)
	}

	count := cmds[2].(*redis.IntCmd).Val()
	allowed := count <= int64(limit)
	logger.Debug("Rate limit check",
		zap.String("key", key),
		zap.Int64("count", count),
		zap.Int("limit", limit),
		zap.Bool("allowed", allowed))
	return allowed, nil
}
