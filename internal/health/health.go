// Package health reports database reachability over HTTP and through the
// gRPC health service.
package health

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"github.com/gurkanbulca/tasklist/pkg/envelope"
)

// ServiceName is the name the task API is registered under in the gRPC
// health service. The empty name reports overall health.
const ServiceName = "tasklist.v1.TaskService"

const (
	MsgOK          = "OK"
	MsgUnavailable = "Unavailable"
)

type Checker struct {
	db      *sqlx.DB
	server  *health.Server
	timeout time.Duration
}

// NewChecker creates a checker. server may be nil when gRPC is not served.
func NewChecker(db *sqlx.DB, server *health.Server) *Checker {
	return &Checker{
		db:      db,
		server:  server,
		timeout: 2 * time.Second,
	}
}

// Check pings the database and publishes the result to the gRPC health server.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.db.PingContext(ctx)
	c.publish(err)
	return err
}

func (c *Checker) publish(err error) {
	if c.server == nil {
		return
	}
	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
	}
	c.server.SetServingStatus(ServiceName, status)
	c.server.SetServingStatus("", status)
}

// Run re-checks every interval until ctx is done.
func (c *Checker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.Check(ctx); err != nil {
				log.Printf("[ERROR] health check failed: %v", err)
			}
		}
	}
}

func (c *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := c.Check(r.Context()); err != nil {
		log.Printf("[ERROR] health check failed: %v", err)
		envelope.Error(w, http.StatusServiceUnavailable, MsgUnavailable)
		return
	}
	envelope.WriteJSON(w, http.StatusOK, envelope.Response{Message: MsgOK})
}
