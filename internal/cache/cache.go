package cache

import (
	"context"
	"time"
)

// BytesCache — кэш "сырых" байт (мы кладём туда JSON снапшота).
// Реализация не обязана быть надёжной: промах или ошибка кэша
// никогда не должны ломать запрос.
type BytesCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}
