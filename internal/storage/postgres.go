package storage

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"petla/internal/platform/logger"
)

// AbrirPostgres abre un pool a Postgres usando pgx (database/sql).
func AbrirPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// defaults razonables, ajustable luego
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Postgres guarda el mismo contrato kv en una tabla petla_kv.
// Sin presupuesto; la evicción no aplica acá.
type Postgres struct {
	db  *sql.DB
	log logger.Logger
}

func NewPostgres(db *sql.DB, log logger.Logger) (*Postgres, error) {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS petla_kv (
			clave TEXT PRIMARY KEY,
			valor TEXT NOT NULL
		)
	`); err != nil {
		return nil, err
	}
	return &Postgres{db: db, log: log}, nil
}

func (p *Postgres) Get(clave string) (string, bool) {
	var valor string
	err := p.db.QueryRow(`SELECT valor FROM petla_kv WHERE clave = $1`, clave).Scan(&valor)
	if err != nil {
		if err != sql.ErrNoRows {
			p.log.Error("postgres get", map[string]any{"clave": clave, "err": err.Error()})
		}
		return "", false
	}
	return valor, true
}

func (p *Postgres) Set(clave, valor string) error {
	_, err := p.db.Exec(`
		INSERT INTO petla_kv (clave, valor) VALUES ($1, $2)
		ON CONFLICT (clave) DO UPDATE SET valor = EXCLUDED.valor
	`, clave, valor)
	return err
}

func (p *Postgres) Remove(clave string) {
	if _, err := p.db.Exec(`DELETE FROM petla_kv WHERE clave = $1`, clave); err != nil {
		p.log.Error("postgres remove", map[string]any{"clave": clave, "err": err.Error()})
	}
}

func (p *Postgres) Keys() []string {
	rows, err := p.db.Query(`SELECT clave FROM petla_kv ORDER BY clave`)
	if err != nil {
		p.log.Error("postgres keys", map[string]any{"err": err.Error()})
		return nil
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var clave string
		if err := rows.Scan(&clave); err != nil {
			return out
		}
		out = append(out, clave)
	}
	return out
}

func (p *Postgres) UsageRatio() float64 { return 0 }
