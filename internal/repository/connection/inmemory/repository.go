package inmemory

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/cinesync/server/internal/repository/connection"
)

// repo maps live websocket connections to their connection ids both ways,
// and owns one write mutex per connection.
type repo struct {
	connList map[*websocket.Conn]string
	idList   map[string]*websocket.Conn
	writeMus map[*websocket.Conn]*sync.Mutex
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		connList: make(map[*websocket.Conn]string),
		idList:   make(map[string]*websocket.Conn),
		writeMus: make(map[*websocket.Conn]*sync.Mutex),
		logger:   logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.connList[conn] != "" || r.idList[connId] != nil {
		r.logger.Debug("connection.inmemory.Add", "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.connList[conn] = connId
	r.idList[connId] = conn
	r.writeMus[conn] = &sync.Mutex{}

	return nil
}

func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	connId, ok := r.connList[conn]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, connId)
	delete(r.writeMus, conn)

	return nil
}

func (r *repo) RemoveByConnId(connId string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.idList[connId]
	if !ok {
		return connection.ErrNotFound
	}

	delete(r.connList, conn)
	delete(r.idList, connId)
	delete(r.writeMus, conn)

	return nil
}

// WriteJSON serializes writes to one connection. gorilla/websocket supports
// a single concurrent writer, and a connection is written from other
// members' read goroutines and from timer firings at once. A connection
// already removed from the registry reports ErrNotFound instead of writing.
func (r *repo) WriteJSON(conn *websocket.Conn, v any) error {
	r.mu.RLock()
	writeMu, ok := r.writeMus[conn]
	r.mu.RUnlock()

	if !ok {
		return connection.ErrNotFound
	}

	writeMu.Lock()
	defer writeMu.Unlock()

	return conn.WriteJSON(v)
}

func (r *repo) GetConn(connId string) (*websocket.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.idList[connId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) GetConnId(conn *websocket.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return connId, nil
}
