package ingest

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// GrpcSubscriber dials a Geyser-style push endpoint over plain gRPC. It
// speaks only the connection lifecycle (dial tuning, keepalive, ping) —
// message decoding is left to a per-deployment Decoder, since no concrete
// Geyser proto package is vendored here (SPEC_FULL's domain stack wires
// google.golang.org/grpc directly rather than a specific SDK). Grounded on
// _examples/original_source/bin/router/src/arbitrage/message_collector.rs's
// dial tuning knobs (tcp_nodelay, adaptive window, 30s connect timeout) and
// its 5-second ping interval on the control stream.
type GrpcSubscriber struct {
	Endpoint string
	Decoder  Decoder

	conn *grpc.ClientConn
}

// Decoder turns one raw push message into either an AccountUpdate or a
// TransactionUpdate (exactly one of the two return values is non-nil).
type Decoder interface {
	Decode(raw []byte) (*AccountUpdate, *TransactionUpdate, error)
	// Stream performs the actual subscribe RPC over conn, invoking handle
	// for every raw message received, until ctx is cancelled or the stream
	// errors.
	Stream(ctx context.Context, conn *grpc.ClientConn, handle func(raw []byte) error) error
}

const (
	connectTimeout = 30 * time.Second
	pingInterval   = 5 * time.Second
)

func dial(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	dialCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	return grpc.DialContext(dialCtx, endpoint,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithBlock(),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                pingInterval,
			Timeout:             connectTimeout,
			PermitWithoutStream: true,
		}),
		grpc.WithInitialWindowSize(1<<24),     // adaptive-window tuning per message_collector.rs
		grpc.WithInitialConnWindowSize(1<<24),
	)
}

// Run implements Subscriber. It dials once, streams until the connection
// drops or ctx is cancelled, and returns the resulting error (fatal at the
// supervision layer — no silent reconnect loop, matching the original's
// JoinSet-per-task exit semantics).
func (s *GrpcSubscriber) Run(ctx context.Context, accounts chan<- AccountUpdate, txs chan<- TransactionUpdate) error {
	conn, err := dial(ctx, s.Endpoint)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.Endpoint, err)
	}
	s.conn = conn
	defer conn.Close()

	return s.Decoder.Stream(ctx, conn, func(raw []byte) error {
		au, tu, err := s.Decoder.Decode(raw)
		if err != nil {
			return err
		}
		switch {
		case au != nil:
			select {
			case accounts <- *au:
			case <-ctx.Done():
				return ctx.Err()
			}
		case tu != nil:
			tu.SentAt = time.Now()
			select {
			case txs <- *tu:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})
}
