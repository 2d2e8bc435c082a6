/*
Package directory lists the chat servers a user can join. Each server id selects one topic.
*/
package directory

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get for an unknown server id.
var ErrNotFound = errors.New("directory: server not found")

// Server is one selectable chat server. It is static configuration.
type Server struct {
	ID          string `json:"id" yaml:"id"`
	DisplayName string `json:"displayName" yaml:"displayName"`
	Address     string `json:"address" yaml:"address"`
}

// Source lists servers.
type Source interface {
	List(ctx context.Context) ([]Server, error)
	Get(ctx context.Context, id string) (Server, error)
}

// DefaultServers is used when no server list is configured.
var DefaultServers = []Server{
	{ID: "srv-1", DisplayName: "Lobby", Address: "local://srv-1"},
	{ID: "srv-2", DisplayName: "Movie Night", Address: "local://srv-2"},
	{ID: "srv-3", DisplayName: "Study Hall", Address: "local://srv-3"},
}

// Static serves a fixed list in configuration order.
type Static struct {
	servers []Server
	byID    map[string]Server
}

// NewStatic validates servers and returns a Static source over them.
func NewStatic(servers []Server) (*Static, error) {
	s := &Static{byID: make(map[string]Server, len(servers))}

	for _, srv := range servers {
		if srv.ID == "" {
			return nil, errors.New("directory: server without id")
		}
		if _, dup := s.byID[srv.ID]; dup {
			return nil, fmt.Errorf("directory: duplicate server id %q", srv.ID)
		}
		if srv.DisplayName == "" {
			srv.DisplayName = srv.ID
		}
		s.byID[srv.ID] = srv
		s.servers = append(s.servers, srv)
	}

	return s, nil
}

func (s *Static) List(context.Context) ([]Server, error) {
	out := make([]Server, len(s.servers))
	copy(out, s.servers)
	return out, nil
}

func (s *Static) Get(_ context.Context, id string) (Server, error) {
	srv, ok := s.byID[id]
	if !ok {
		return Server{}, ErrNotFound
	}
	return srv, nil
}
