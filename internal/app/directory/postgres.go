package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"hzroom/internal/app/db"
)

// ErrExists is returned by Add when the id is already taken.
var ErrExists = errors.New("directory: server already exists")

// Postgres reads servers from the servers table.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) List(ctx context.Context) ([]Server, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, display_name, address FROM servers ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}

	servers, err := pgx.CollectRows(rows, scanServer)
	if err != nil {
		return nil, fmt.Errorf("scan servers: %w", err)
	}
	return servers, nil
}

func (p *Postgres) Get(ctx context.Context, id string) (Server, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, display_name, address FROM servers WHERE id = $1`, id)
	if err != nil {
		return Server{}, fmt.Errorf("get server %s: %w", id, err)
	}

	srv, err := pgx.CollectExactlyOneRow(rows, scanServer)
	if errors.Is(err, pgx.ErrNoRows) {
		return Server{}, ErrNotFound
	}
	if err != nil {
		return Server{}, fmt.Errorf("scan server %s: %w", id, err)
	}
	return srv, nil
}

// Add inserts srv at the end of the list.
func (p *Postgres) Add(ctx context.Context, srv Server) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO servers (id, display_name, address, position)
		 VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position), 0) + 1 FROM servers))`,
		srv.ID, srv.DisplayName, srv.Address)
	if db.IsUniqueViolation(err) {
		return ErrExists
	}
	if err != nil {
		return fmt.Errorf("add server %s: %w", srv.ID, err)
	}
	return nil
}

// Seed adds every server of servers that is not in the table yet and returns how many were added.
func (p *Postgres) Seed(ctx context.Context, servers []Server) (int, error) {
	added := 0
	for _, srv := range servers {
		err := p.Add(ctx, srv)
		switch {
		case errors.Is(err, ErrExists):
		case err != nil:
			return added, err
		default:
			added++
		}
	}
	return added, nil
}

func scanServer(row pgx.CollectableRow) (Server, error) {
	var srv Server
	err := row.Scan(&srv.ID, &srv.DisplayName, &srv.Address)
	return srv, err
}
