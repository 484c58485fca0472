package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

// JSONDecoder is the default Decoder: it expects each pushed frame to be a
// JSON envelope distinguishing an account update from a transaction update.
// No concrete Geyser proto package is vendored in this repo (see
// GrpcSubscriber's doc comment), so this is the wire format the engine
// speaks out of the box; a deployment with a real Geyser plugin swaps in its
// own Decoder against the same GrpcSubscriber.
type JSONDecoder struct {
	// Method is the server-streaming RPC method invoked on Stream, e.g.
	// "/geyser.Geyser/Subscribe".
	Method string
}

type jsonEnvelope struct {
	Kind    string          `json:"kind"` // "account" | "transaction"
	Account *jsonAccount    `json:"account,omitempty"`
	Tx      *jsonTransaction `json:"transaction,omitempty"`
}

type jsonAccount struct {
	Owner string `json:"owner"`
	Key   string `json:"key"`
	Data  []byte `json:"data"`
}

type jsonTransaction struct {
	AccountKeys []string          `json:"accountKeys"`
	Pre         []jsonTokenAmount `json:"pre"`
	Post        []jsonTokenAmount `json:"post"`
}

type jsonTokenAmount struct {
	AccountIndex int    `json:"accountIndex"`
	Mint         string `json:"mint"`
	Owner        string `json:"owner"`
	UIAmount     uint64 `json:"uiAmount"`
}

// Decode implements Decoder.
func (d *JSONDecoder) Decode(raw []byte) (*AccountUpdate, *TransactionUpdate, error) {
	var env jsonEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("decode envelope: %w", err)
	}
	switch env.Kind {
	case "account":
		if env.Account == nil {
			return nil, nil, fmt.Errorf("account envelope missing account field")
		}
		owner, err := solana.PublicKeyFromBase58(env.Account.Owner)
		if err != nil {
			return nil, nil, fmt.Errorf("parse owner: %w", err)
		}
		key, err := solana.PublicKeyFromBase58(env.Account.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("parse key: %w", err)
		}
		return &AccountUpdate{Owner: owner, Key: key, Data: env.Account.Data}, nil, nil
	case "transaction":
		if env.Tx == nil {
			return nil, nil, fmt.Errorf("transaction envelope missing transaction field")
		}
		tu, err := decodeJSONTransaction(env.Tx)
		if err != nil {
			return nil, nil, err
		}
		return nil, tu, nil
	default:
		return nil, nil, fmt.Errorf("unknown envelope kind %q", env.Kind)
	}
}

func decodeJSONTransaction(raw *jsonTransaction) (*TransactionUpdate, error) {
	tu := &TransactionUpdate{}
	for _, k := range raw.AccountKeys {
		key, err := solana.PublicKeyFromBase58(k)
		if err != nil {
			return nil, fmt.Errorf("parse account key: %w", err)
		}
		tu.AccountKeys = append(tu.AccountKeys, key)
	}
	pre, err := decodeJSONBalances(raw.Pre)
	if err != nil {
		return nil, err
	}
	post, err := decodeJSONBalances(raw.Post)
	if err != nil {
		return nil, err
	}
	tu.Pre, tu.Post = pre, post
	return tu, nil
}

func decodeJSONBalances(raw []jsonTokenAmount) ([]TokenBalance, error) {
	out := make([]TokenBalance, 0, len(raw))
	for _, b := range raw {
		mint, err := solana.PublicKeyFromBase58(b.Mint)
		if err != nil {
			return nil, fmt.Errorf("parse mint: %w", err)
		}
		owner, err := solana.PublicKeyFromBase58(b.Owner)
		if err != nil {
			return nil, fmt.Errorf("parse owner: %w", err)
		}
		out = append(out, TokenBalance{
			AccountIndex: b.AccountIndex,
			Mint:         mint,
			Owner:        owner,
			UIAmount:     b.UIAmount,
		})
	}
	return out, nil
}

// rawFrame is an opaque message payload, marshaled/unmarshaled verbatim by
// rawCodec so a server-streaming RPC of unknown proto message type can
// still be consumed as plain bytes.
type rawFrame []byte

// rawCodec passes frames through unmarshaled, letting Decode interpret them
// however the deployment's wire format requires instead of negotiating a
// concrete protobuf message type.
type rawCodec struct{}

func (rawCodec) Name() string { return "raw" }

func (rawCodec) Marshal(v interface{}) ([]byte, error) {
	f, ok := v.(*rawFrame)
	if !ok {
		return nil, fmt.Errorf("rawCodec: marshal: unsupported type %T", v)
	}
	return *f, nil
}

func (rawCodec) Unmarshal(data []byte, v interface{}) error {
	f, ok := v.(*rawFrame)
	if !ok {
		return fmt.Errorf("rawCodec: unmarshal: unsupported type %T", v)
	}
	*f = append((*f)[:0], data...)
	return nil
}

func init() {
	encoding.RegisterCodec(rawCodec{})
}

// Stream implements Decoder by opening a generic server-streaming RPC
// against Method and forwarding every raw frame to handle. Works against
// any server-streaming method, since it negotiates no concrete proto
// message type — just the bytes of whatever the server writes.
func (d *JSONDecoder) Stream(ctx context.Context, conn *grpc.ClientConn, handle func(raw []byte) error) error {
	desc := &grpc.StreamDesc{StreamName: "Subscribe", ServerStreams: true}
	stream, err := conn.NewStream(ctx, desc, d.Method, grpc.CallContentSubtype((rawCodec{}).Name()))
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	for {
		var frame rawFrame
		if err := stream.RecvMsg(&frame); err != nil {
			return fmt.Errorf("recv: %w", err)
		}
		if err := handle([]byte(frame)); err != nil {
			return err
		}
	}
}
