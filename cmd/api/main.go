package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"petla/internal/app"
	"petla/internal/platform/logger"
	"petla/internal/router"
	"petla/internal/storage"
)

// abrirKV elige el backend por KV_BACKEND. En memoria por defecto: útil
// para desarrollo y para los despliegues chicos donde el estado vive en
// un solo proceso.
func abrirKV(lg logger.Logger) (storage.KV, error) {
	switch os.Getenv("KV_BACKEND") {
	case "", "memory":
		return storage.NewMemoria(storage.PresupuestoDefecto), nil
	case "file":
		dir := os.Getenv("KV_DIR")
		if dir == "" {
			dir = "./data"
		}
		return storage.NewDirectorio(dir, storage.PresupuestoDefecto)
	case "sqlite":
		ruta := os.Getenv("KV_DSN")
		if ruta == "" {
			ruta = "./petla.db"
		}
		return storage.NewSQLite(ruta, lg)
	case "postgres":
		db, err := storage.AbrirPostgres(os.Getenv("KV_DSN"))
		if err != nil {
			return nil, err
		}
		return storage.NewPostgres(db, lg)
	case "redis":
		return storage.NewRedis(os.Getenv("REDIS_ADDR"), os.Getenv("REDIS_PASSWORD"), lg), nil
	default:
		log.Fatalf("KV_BACKEND desconocido: %q", os.Getenv("KV_BACKEND"))
		return nil, nil
	}
}

func main() {
	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	lg := logger.NewFromEnv()

	kv, err := abrirKV(lg)
	if err != nil {
		log.Fatalf("kv backend: %v", err)
	}

	ctx := app.New(kv, lg)
	r := router.NewRouter(ctx)

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lg.Info("starting server", map[string]any{"addr": addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
