package igrpc

import (
	"context"
	"errors"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"postnest/internal/logger"
)

const ServiceName = "postnest"

const defaultProbeInterval = 10 * time.Second

// Pinger is satisfied by *sqlx.DB and *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthServer reports SERVING for the overall server and for ServiceName
// while the database answers pings.
type HealthServer struct {
	*health.Server
	db       Pinger
	interval time.Duration
}

func NewHealthServer(db Pinger) *HealthServer {
	return &HealthServer{Server: health.NewServer(), db: db, interval: defaultProbeInterval}
}

// Probe pings the database once and updates the reported status.
func (h *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(pingCtx); err != nil {
		logger.Warn("database health probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.SetServingStatus("", status)
	h.SetServingStatus(ServiceName, status)
	return status
}

func (h *HealthServer) run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}

// Register attaches the health service to srv and starts probing until ctx
// is cancelled.
func (h *HealthServer) Register(ctx context.Context, srv *grpc.Server) {
	healthpb.RegisterHealthServer(srv, h)
	h.Probe(ctx)
	go h.run(ctx)
}

func StartGRPCServer(ctx context.Context, addr string, hs *HealthServer) (*grpc.Server, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	srv := grpc.NewServer()
	hs.Register(ctx, srv)

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Error("gRPC server error", "error", err)
		}
	}()

	logger.Info("gRPC health server listening", "addr", addr)
	return srv, nil
}
