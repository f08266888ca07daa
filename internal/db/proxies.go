package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Proxy is a stored proxy definition.
type Proxy struct {
	ID        int64
	Name      string
	Type      string
	Host      string
	Port      int
	Username  string
	Password  string
	CreatedAt time.Time
}

// ProxyParams holds the writable proxy columns.
type ProxyParams struct {
	Name     string
	Type     string
	Host     string
	Port     int
	Username string
	Password string
}

const proxyColumns = `id, name, type, host, port, username, password, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProxy(row rowScanner) (Proxy, error) {
	var (
		p          Proxy
		user, pass sql.NullString
		created    int64
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Type, &p.Host, &p.Port, &user, &pass, &created); err != nil {
		return Proxy{}, err
	}
	p.Username = user.String
	p.Password = pass.String
	p.CreatedAt = unix(created)
	return p, nil
}

// CreateProxy inserts a proxy and returns it with its assigned id.
func (s *Store) CreateProxy(ctx context.Context, arg ProxyParams) (Proxy, error) {
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO proxies (name, type, host, port, username, password)
		 VALUES (?, ?, ?, ?, ?, ?)
		 RETURNING `+proxyColumns,
		arg.Name, arg.Type, arg.Host, arg.Port, nullString(arg.Username), nullString(arg.Password))
	p, err := scanProxy(row)
	if err != nil {
		return Proxy{}, fmt.Errorf("create proxy: %w", err)
	}
	return p, nil
}

// GetProxy returns the proxy with the given id or ErrNotFound.
func (s *Store) GetProxy(ctx context.Context, id int64) (Proxy, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+proxyColumns+` FROM proxies WHERE id = ?`, id)
	p, err := scanProxy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Proxy{}, ErrNotFound
	}
	if err != nil {
		return Proxy{}, fmt.Errorf("get proxy %d: %w", id, err)
	}
	return p, nil
}

// ListProxies returns all proxies ordered by id.
func (s *Store) ListProxies(ctx context.Context) ([]Proxy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+proxyColumns+` FROM proxies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list proxies: %w", err)
	}
	defer rows.Close()

	var out []Proxy
	for rows.Next() {
		p, err := scanProxy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proxy: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProxy replaces every writable column of a proxy.
func (s *Store) UpdateProxy(ctx context.Context, id int64, arg ProxyParams) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE proxies SET name = ?, type = ?, host = ?, port = ?, username = ?, password = ? WHERE id = ?`,
		arg.Name, arg.Type, arg.Host, arg.Port, nullString(arg.Username), nullString(arg.Password), id)
	if err != nil {
		return fmt.Errorf("update proxy %d: %w", id, err)
	}
	return requireAffected(res)
}

// DeleteProxy clears every profile reference to the proxy and removes it in
// one transaction, so no profile is left pointing at a missing row.
func (s *Store) DeleteProxy(ctx context.Context, id int64) (detached int64, err error) {
	err = s.WithTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE profiles SET proxy_id = NULL, updated_at = unixepoch() WHERE proxy_id = ?`, id)
		if err != nil {
			return fmt.Errorf("detach proxy %d: %w", id, err)
		}
		detached, _ = res.RowsAffected()

		res, err = tx.ExecContext(ctx, `DELETE FROM proxies WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete proxy %d: %w", id, err)
		}
		return requireAffected(res)
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}

// CountProfilesUsingProxy reports how many profiles reference the proxy.
func (s *Store) CountProfilesUsingProxy(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE proxy_id = ?`, id).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count profiles for proxy %d: %w", id, err)
	}
	return n, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
