package repositories

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"

	"chatstatus/src/domain"
	"chatstatus/src/helper/chatid"
	"chatstatus/src/infra/crmapi"
	"chatstatus/src/infra/redis"
)

// CachedStatusRepository guarda os ResolvedStatus já calculados. Com
// redisClient nil todas as operações viram no-op e toda leitura é MISS.
type CachedStatusRepository struct {
	logger      *slog.Logger
	redisClient *redis.RedisClient
}

func NewCachedStatusRepository(logger *slog.Logger, redisClient *redis.RedisClient) *CachedStatusRepository {
	return &CachedStatusRepository{
		logger:      logger,
		redisClient: redisClient,
	}
}

// StatusKey identifica uma entrada. Subject é o valor que a resolução
// consultou no backend e Canonical liga a entrada ao registry do chat.
type StatusKey struct {
	Kind      domain.IndicatorKind
	Subject   string
	Canonical string
}

func (r *CachedStatusRepository) Enabled() bool {
	return r != nil && r.redisClient != nil
}

// Version deve ser lida antes de consultar o backend e repassada ao Set.
// Retorna false quando não há cache ou a versão não pôde ser lida.
func (r *CachedStatusRepository) Version(ctx context.Context) (int64, bool) {
	if !r.Enabled() {
		return 0, false
	}

	version, err := r.redisClient.CurrentVersion(ctx)
	if err != nil {
		r.logger.Warn("Failed to read cache version", "error", err)
		return 0, false
	}
	return version, true
}

func (r *CachedStatusRepository) Get(ctx context.Context, key StatusKey) (domain.ResolvedStatus, bool) {
	if !r.Enabled() {
		return domain.ResolvedStatus{}, false
	}

	cacheKey := r.generateCacheKey(ctx, key)

	cachedJSON, found, err := r.redisClient.GetKey(ctx, cacheKey)
	if err != nil {
		// Erro de cache não impede a resolução pelo backend
		r.logger.Warn("Cache error", "key", cacheKey, "error", err)
		return domain.ResolvedStatus{}, false
	}
	if !found {
		r.logger.Debug("Cache MISS", "key", cacheKey, "kind", key.Kind)
		return domain.ResolvedStatus{}, false
	}

	var status domain.ResolvedStatus
	if err := json.Unmarshal([]byte(cachedJSON), &status); err != nil {
		r.logger.Warn("Failed to unmarshal cached status", "key", cacheKey, "error", err)
		return domain.ResolvedStatus{}, false
	}

	r.logger.Debug("Cache HIT", "key", cacheKey, "kind", key.Kind)
	return status, true
}

// Set grava o status registrando a chave no registry do chat e, quando a
// cadeia chegou a um contato, no registry do UUID do contato. A escrita é
// descartada (false) se algum desses registries foi invalidado depois de version.
func (r *CachedStatusRepository) Set(ctx context.Context, key StatusKey, status domain.ResolvedStatus, version int64) (bool, error) {
	if !r.Enabled() {
		return false, nil
	}

	cacheKey := r.generateCacheKey(ctx, key)

	dataJSON, err := json.Marshal(status)
	if err != nil {
		return false, fmt.Errorf("CachedStatusRepository.Set - failed to marshal status: %w", err)
	}

	registryKeys := []string{chatRegistryKey(key.Canonical)}
	if status.ContatoID != "" {
		registryKeys = append(registryKeys, contatoRegistryKey(status.ContatoID))
	}

	stored, err := r.redisClient.SetWithRegistryIfCurrent(ctx, cacheKey, string(dataJSON), registryKeys, version)
	if err != nil {
		return false, fmt.Errorf("CachedStatusRepository.Set - failed to set cache with registry: %w", err)
	}
	if !stored {
		r.logger.Debug("Cache SET discarded after invalidation", "key", cacheKey, "kind", key.Kind, "version", version)
		return false, nil
	}

	r.logger.Debug("Cache SET with registry", "key", cacheKey, "kind", key.Kind, "registries", len(registryKeys))
	return true, nil
}

// InvalidateByKeys apaga tudo que foi registrado para os identificadores
// informados. Cada chave pode ser um id de chat, um telefone canônico ou um
// UUID de contato, então os dois registries são tentados.
func (r *CachedStatusRepository) InvalidateByKeys(ctx context.Context, keys []string) (int, error) {
	if !r.Enabled() || len(keys) == 0 {
		return 0, nil
	}

	registryKeys := make([]string, 0, len(keys)*2)
	for _, key := range keys {
		if canonical, ok := chatid.Normalize(key); ok {
			registryKeys = append(registryKeys, chatRegistryKey(canonical))
		}
		registryKeys = append(registryKeys, contatoRegistryKey(key))
	}

	deleted, err := r.redisClient.InvalidateRegistries(ctx, registryKeys)
	if err != nil {
		return deleted, fmt.Errorf("CachedStatusRepository.InvalidateByKeys - %w", err)
	}

	r.logger.Debug("Cache invalidated", "keys", keys, "deleted", deleted)
	return deleted, nil
}

// A chave inclui o hash do token: quadros e contatos visíveis dependem do usuário.
func (r *CachedStatusRepository) generateCacheKey(ctx context.Context, key StatusKey) string {
	token, _ := crmapi.BearerTokenFrom(ctx)
	keyData := fmt.Sprintf("status:%s:%s:token:%x", key.Kind, key.Subject, md5.Sum([]byte(token)))

	hash := md5.Sum([]byte(keyData))
	return fmt.Sprintf("chatstatus:status:%x", hash)
}

func chatRegistryKey(canonicalKey string) string {
	return "registry:chat:" + canonicalKey
}

func contatoRegistryKey(contatoID string) string {
	return "registry:contato:" + contatoID
}
