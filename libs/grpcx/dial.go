package grpcx

import (
	"crypto/tls"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
)

type DialOptions struct {
	// TLS enables transport security. Plaintext is used when nil.
	TLS *tls.Config
	// MaxBackoff caps the reconnect delay. Zero keeps 10s.
	MaxBackoff time.Duration
}

// NewClient builds a lazily connecting client with tracing and request id
// propagation. Nothing is dialed until the first call.
func NewClient(addr string, opts DialOptions, extra ...grpc.DialOption) (*grpc.ClientConn, error) {
	creds := insecure.NewCredentials()
	if opts.TLS != nil {
		creds = credentials.NewTLS(opts.TLS)
	}
	bc := backoff.DefaultConfig
	bc.MaxDelay = 10 * time.Second
	if opts.MaxBackoff > 0 {
		bc.MaxDelay = opts.MaxBackoff
	}

	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(creds),
		grpc.WithConnectParams(grpc.ConnectParams{Backoff: bc, MinConnectTimeout: 3 * time.Second}),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
		grpc.WithChainUnaryInterceptor(UnaryClientRequestIDInterceptor()),
	}
	return grpc.NewClient(addr, append(dialOpts, extra...)...)
}
