package storage

import (
	"database/sql"

	_ "modernc.org/sqlite"

	"petla/internal/platform/logger"
)

// SQLite es el backend embebido: una tabla kv en un archivo sqlite.
// Sin presupuesto; la evicción no aplica acá.
type SQLite struct {
	db  *sql.DB
	log logger.Logger
}

// NewSQLite abre (o crea) el archivo y la tabla kv.
func NewSQLite(ruta string, log logger.Logger) (*SQLite, error) {
	db, err := sql.Open("sqlite", ruta)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS kv (
			clave TEXT PRIMARY KEY,
			valor TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, log: log}, nil
}

func (s *SQLite) Get(clave string) (string, bool) {
	var valor string
	err := s.db.QueryRow(`SELECT valor FROM kv WHERE clave = ?`, clave).Scan(&valor)
	if err != nil {
		if err != sql.ErrNoRows {
			s.log.Error("sqlite get", map[string]any{"clave": clave, "err": err.Error()})
		}
		return "", false
	}
	return valor, true
}

func (s *SQLite) Set(clave, valor string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (clave, valor) VALUES (?, ?)
		ON CONFLICT(clave) DO UPDATE SET valor = excluded.valor
	`, clave, valor)
	return err
}

func (s *SQLite) Remove(clave string) {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE clave = ?`, clave); err != nil {
		s.log.Error("sqlite remove", map[string]any{"clave": clave, "err": err.Error()})
	}
}

func (s *SQLite) Keys() []string {
	rows, err := s.db.Query(`SELECT clave FROM kv ORDER BY clave`)
	if err != nil {
		s.log.Error("sqlite keys", map[string]any{"err": err.Error()})
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

func (s *SQLite) UsageRatio() float64 { return 0 }

func (s *SQLite) Close() error { return s.db.Close() }
