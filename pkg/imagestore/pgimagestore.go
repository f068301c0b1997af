package imagestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	. "github.com/weberc2/sfs/pkg/types"
)

// PGImageStore keeps each volume's image as a `bytea` row in the `images`
// table.
type PGImageStore struct {
	DB     *sql.DB
	Volume string
}

type PGParams struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PGParamsFromEnv reads the same `PG_*` variables the other services use,
// falling back to a local, passwordless database.
func PGParamsFromEnv() PGParams {
	return PGParams{
		Host:     getEnv("PG_HOST", "localhost"),
		Port:     getEnv("PG_PORT", "5432"),
		User:     getEnv("PG_USER", "postgres"),
		Password: getEnv("PG_PASS", ""),
		DBName:   getEnv("PG_DB_NAME", "postgres"),
		SSLMode:  getEnv("PG_SSL_MODE", "disable"),
	}
}

func getEnv(env, def string) string {
	x := os.Getenv(env)
	if x == "" {
		return def
	}
	return x
}

func OpenPG(params *PGParams, volume string) (*PGImageStore, error) {
	db, err := sql.Open(
		"postgres",
		fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			params.Host,
			params.Port,
			params.User,
			params.Password,
			params.DBName,
			params.SSLMode,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("opening postgres database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres database: %w", err)
	}

	return &PGImageStore{DB: db, Volume: volume}, nil
}

func (pgis *PGImageStore) EnsureTable() error {
	if _, err := pgis.DB.Exec(
		"CREATE TABLE IF NOT EXISTS images (" +
			"volume VARCHAR(255) NOT NULL PRIMARY KEY, " +
			"data BYTEA NOT NULL, " +
			"updated TIMESTAMPTZ NOT NULL DEFAULT now())",
	); err != nil {
		return fmt.Errorf("creating `images` postgres table: %w", err)
	}
	return nil
}

func (pgis *PGImageStore) DropTable() error {
	if _, err := pgis.DB.Exec("DROP TABLE IF EXISTS images"); err != nil {
		return fmt.Errorf("dropping table `images`: %w", err)
	}
	return nil
}

func (pgis *PGImageStore) ClearTable() error {
	if _, err := pgis.DB.Exec("DELETE FROM images"); err != nil {
		return fmt.Errorf("clearing `images` postgres table: %w", err)
	}
	return nil
}

func (pgis *PGImageStore) ResetTable() error {
	if err := pgis.DropTable(); err != nil {
		return err
	}
	return pgis.EnsureTable()
}

func (pgis *PGImageStore) PutImage(data []byte) error {
	if _, err := pgis.DB.Exec(
		"INSERT INTO images (volume, data) VALUES($1, $2) "+
			"ON CONFLICT (volume) DO UPDATE "+
			"SET data = EXCLUDED.data, updated = now()",
		pgis.Volume,
		data,
	); err != nil {
		return fmt.Errorf(
			"upserting image for volume `%s` into postgres: %w",
			pgis.Volume,
			err,
		)
	}
	return nil
}

func (pgis *PGImageStore) GetImage() ([]byte, error) {
	var data []byte
	if err := pgis.DB.QueryRow(
		"SELECT data FROM images WHERE volume = $1",
		pgis.Volume,
	).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = NoImageErr
		}
		return nil, fmt.Errorf(
			"fetching image for volume `%s` from postgres: %w",
			pgis.Volume,
			err,
		)
	}
	return data, nil
}

func (pgis *PGImageStore) Close() error { return pgis.DB.Close() }
