package storage

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"petla/internal/platform/logger"
)

const prefijoRedis = "petla:"

// Redis guarda el contrato kv bajo un namespace propio.
// Sin presupuesto; la evicción no aplica acá.
type Redis struct {
	client *redis.Client
	log    logger.Logger
}

func NewRedis(addr, password string, log logger.Logger) *Redis {
	return &Redis{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		log: log,
	}
}

func (r *Redis) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

func (r *Redis) Get(clave string) (string, bool) {
	ctx, cancel := r.ctx()
	defer cancel()

	v, err := r.client.Get(ctx, prefijoRedis+clave).Result()
	if err != nil {
		if err != redis.Nil {
			r.log.Error("redis get", map[string]any{"clave": clave, "err": err.Error()})
		}
		return "", false
	}
	return v, true
}

func (r *Redis) Set(clave, valor string) error {
	ctx, cancel := r.ctx()
	defer cancel()

	return r.client.Set(ctx, prefijoRedis+clave, valor, 0).Err()
}

func (r *Redis) Remove(clave string) {
	ctx, cancel := r.ctx()
	defer cancel()

	if err := r.client.Del(ctx, prefijoRedis+clave).Err(); err != nil {
		r.log.Error("redis remove", map[string]any{"clave": clave, "err": err.Error()})
	}
}

func (r *Redis) Keys() []string {
	ctx, cancel := r.ctx()
	defer cancel()

	claves, err := r.client.Keys(ctx, prefijoRedis+"*").Result()
	if err != nil {
		r.log.Error("redis keys", map[string]any{"err": err.Error()})
		return nil
	}

	out := make([]string, 0, len(claves))
	for _, k := range claves {
		out = append(out, strings.TrimPrefix(k, prefijoRedis))
	}
	return out
}

func (r *Redis) UsageRatio() float64 { return 0 }

func (r *Redis) Close() error { return r.client.Close() }
