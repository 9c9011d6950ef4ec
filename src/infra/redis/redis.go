package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cada invalidação incrementa versionSeqKey e grava o valor no marcador de
// cada registry invalidado.
const versionSeqKey = "version:seq"

type RedisClient struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	prefix     string
}

// NewRedisClient aceita um endereço (standalone) ou vários separados por vírgula (cluster).
func NewRedisClient(addrs string, poolSize int, defaultTTL time.Duration) *RedisClient {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: strings.Split(addrs, ","),

		PoolSize:     poolSize,
		MinIdleConns: 2,
		MaxRedirects: 3,

		// Timeouts curtos: cache indisponível não pode segurar a resolução
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,

		MaxRetries:      2,
		MinRetryBackoff: 20 * time.Millisecond,
		MaxRetryBackoff: 200 * time.Millisecond,
	})

	return &RedisClient{
		client:     client,
		defaultTTL: defaultTTL,
	}
}

// WithPrefix isola as chaves (usado pelos testes e por ambientes compartilhados).
func (rc *RedisClient) WithPrefix(prefix string) *RedisClient {
	return &RedisClient{client: rc.client, defaultTTL: rc.defaultTTL, prefix: prefix}
}

func (rc *RedisClient) key(k string) string {
	return rc.prefix + k
}

// SetWithRegistry grava o valor e registra a chave em cada set de registry,
// para que a invalidação encontre todas as chaves de uma entidade.
func (rc *RedisClient) SetWithRegistry(ctx context.Context, cacheKey string, cacheValue string, registryKeys []string) error {
	pipe := rc.client.Pipeline()

	fields := map[string]interface{}{
		"data":      cacheValue,
		"cached_at": time.Now().Unix(),
	}
	pipe.HSet(ctx, rc.key(cacheKey), fields)
	pipe.Expire(ctx, rc.key(cacheKey), rc.defaultTTL)

	for _, registryKey := range registryKeys {
		pipe.SAdd(ctx, rc.key(registryKey), cacheKey)
		pipe.Expire(ctx, rc.key(registryKey), rc.defaultTTL)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// SetWithRegistryIfCurrent grava como SetWithRegistry desde que nenhum dos
// registries tenha sido invalidado depois de version (lida com CurrentVersion
// antes de calcular o valor). Retorna false quando a escrita foi descartada.
func (rc *RedisClient) SetWithRegistryIfCurrent(ctx context.Context, cacheKey string, cacheValue string, registryKeys []string, version int64) (bool, error) {
	stale, err := rc.invalidatedAfter(ctx, registryKeys, version)
	if err != nil || stale {
		return false, err
	}

	if err := rc.SetWithRegistry(ctx, cacheKey, cacheValue, registryKeys); err != nil {
		return false, err
	}

	// Uma invalidação que marcou o registry entre a checagem e a escrita pode
	// ter lido os membros antes do SADD; nesse caso a entrada é apagada aqui
	stale, err = rc.invalidatedAfter(ctx, registryKeys, version)
	if err == nil && !stale {
		return true, nil
	}
	if delErr := rc.client.Del(ctx, rc.key(cacheKey)).Err(); delErr != nil {
		return false, delErr
	}
	return false, err
}

// CurrentVersion é o número da última invalidação; 0 se nunca houve.
func (rc *RedisClient) CurrentVersion(ctx context.Context) (int64, error) {
	version, err := rc.client.Get(ctx, rc.key(versionSeqKey)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return version, err
}

func (rc *RedisClient) invalidatedAfter(ctx context.Context, registryKeys []string, version int64) (bool, error) {
	if len(registryKeys) == 0 {
		return false, nil
	}

	pipe := rc.client.Pipeline()
	markers := make([]*redis.StringCmd, 0, len(registryKeys))
	for _, registryKey := range registryKeys {
		markers = append(markers, pipe.Get(ctx, rc.key(versionKey(registryKey))))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return false, err
	}

	for _, marker := range markers {
		invalidatedAt, err := marker.Int64()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return false, err
		}
		if invalidatedAt > version {
			return true, nil
		}
	}
	return false, nil
}

func versionKey(registryKey string) string {
	return "version:" + registryKey
}

func (rc *RedisClient) GetKey(ctx context.Context, key string) (string, bool, error) {
	result := rc.client.HGet(ctx, rc.key(key), "data")

	if result.Err() == redis.Nil {
		return "", false, nil
	}
	if result.Err() != nil {
		return "", false, result.Err()
	}

	return result.Val(), true, nil
}

// InvalidateRegistries apaga todas as chaves registradas nos registries e os próprios registries.
// Retorna quantas chaves foram apagadas.
// Antes de apagar, marca cada registry com uma nova versão para que escritas
// calculadas antes desta invalidação sejam recusadas.
func (rc *RedisClient) InvalidateRegistries(ctx context.Context, registryKeys []string) (int, error) {
	if len(registryKeys) == 0 {
		return 0, nil
	}

	version, err := rc.client.Incr(ctx, rc.key(versionSeqKey)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to bump invalidation version: %w", err)
	}

	// O marcador precisa sobreviver a qualquer resolução ainda em andamento
	markerTTL := rc.defaultTTL + time.Minute
	pipe := rc.client.Pipeline()
	for _, registryKey := range registryKeys {
		pipe.Set(ctx, rc.key(versionKey(registryKey)), version, markerTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to mark invalidated registries: %w", err)
	}

	toDelete := make(map[string]struct{})

	for _, registryKey := range registryKeys {
		members, err := rc.client.SMembers(ctx, rc.key(registryKey)).Result()
		if err != nil && err != redis.Nil {
			return 0, fmt.Errorf("failed to read registry %s: %w", registryKey, err)
		}
		toDelete[registryKey] = struct{}{}
		for _, member := range members {
			toDelete[member] = struct{}{}
		}
	}

	// Em cluster as chaves caem em slots diferentes, então o DEL é por chave
	var errors []string
	deleted := 0
	for key := range toDelete {
		n, err := rc.client.Del(ctx, rc.key(key)).Result()
		if err != nil {
			errors = append(errors, fmt.Sprintf("key %s: %v", key, err))
			continue
		}
		deleted += int(n)
	}

	if len(errors) > 0 {
		return deleted, fmt.Errorf("invalidation errors: %s", strings.Join(errors, "; "))
	}

	return deleted, nil
}

// FlushByPrefix remove todas as chaves do prefixo atual. Sem prefixo não faz nada.
func (rc *RedisClient) FlushByPrefix(ctx context.Context) error {
	if rc.prefix == "" {
		return nil
	}

	iter := rc.client.Scan(ctx, 0, rc.prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := rc.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Health check para o cluster
func (rc *RedisClient) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}
