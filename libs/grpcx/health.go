package grpcx

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthReadyCheck reports an error unless the remote health service answers
// SERVING for service.
func HealthReadyCheck(conn *grpc.ClientConn, service string) func(context.Context) error {
	return func(ctx context.Context) error {
		if conn == nil {
			return errors.New("grpc client not configured")
		}
		resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: service})
		if err != nil {
			return err
		}
		if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
			return fmt.Errorf("status %s", resp.GetStatus())
		}
		return nil
	}
}
