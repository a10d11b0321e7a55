package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/aretw0/framegraph/pkg/domain"
)

// ErrStreamClaimed is returned when another writer holds the stream lease.
var ErrStreamClaimed = errors.New("stream is claimed by another writer")

// Publisher implements ports.Publisher using Redis. The latest snapshot is
// stored under <prefix>latest and every control record is PUBLISHed on
// <prefix>control.
type Publisher struct {
	client   *backend.Client
	owned    bool
	prefix   string
	ttl      time.Duration
	compress bool
	codec    *codec
}

type Option func(*Publisher)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

// WithTTL sets the expiration of the stored snapshot. Zero keeps it forever.
func WithTTL(ttl time.Duration) Option {
	return func(p *Publisher) {
		p.ttl = ttl
	}
}

// WithCompression toggles zstd compression of frame pixels.
func WithCompression(enabled bool) Option {
	return func(p *Publisher) {
		p.compress = enabled
	}
}

// New connects to Redis and creates a publisher that owns the client.
func New(address, password string, db int, opts ...Option) (*Publisher, error) {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	p, err := NewFromClient(rdb, opts...)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	p.owned = true
	return p, nil
}

// NewFromClient creates a publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) (*Publisher, error) {
	c, err := newCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to init zstd: %w", err)
	}
	p := &Publisher{
		client:   client,
		prefix:   "framegraph:",
		compress: true,
		codec:    c,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Publisher) latestKey() string { return p.prefix + "latest" }
func (p *Publisher) channel() string { return p.prefix + "control" }
func (p *Publisher) leaseKey() string { return p.prefix + "lease" }

// Publish stores the snapshot and announces its control record.
func (p *Publisher) Publish(ctx context.Context, s domain.Snapshot) error {
	data, err := p.codec.encode(s, p.compress)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	msg, err := msgpack.Marshal(&ControlMessage{RunID: s.RunID, Frame: s.Frame, Control: s.Control})
	if err != nil {
		return fmt.Errorf("failed to marshal control: %w", err)
	}

	pipe := p.client.Pipeline()
	pipe.Set(ctx, p.latestKey(), data, p.ttl)
	pipe.Publish(ctx, p.channel(), msg)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

// Latest reads back the stored snapshot.
func (p *Publisher) Latest(ctx context.Context) (domain.Snapshot, bool, error) {
	data, err := p.client.Get(ctx, p.latestKey()).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return domain.Snapshot{}, false, nil
		}
		return domain.Snapshot{}, false, fmt.Errorf("failed to load from redis: %w", err)
	}
	s, err := p.codec.decode(data)
	if err != nil {
		return domain.Snapshot{}, false, err
	}
	return s, true, nil
}

// Subscribe streams control messages until ctx is done. The channel is
// closed when the subscription ends.
func (p *Publisher) Subscribe(ctx context.Context) (<-chan ControlMessage, error) {
	sub := p.client.Subscribe(ctx, p.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan ControlMessage, 16)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				var cm ControlMessage
				if err := msgpack.Unmarshal([]byte(m.Payload), &cm); err != nil {
					continue
				}
				select {
				case out <- cm:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Lease is a held single-writer claim on a stream prefix.
type Lease struct {
	client *backend.Client
	key    string
	token  string
}

const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`

const renewScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	else
		return 0
	end
`

// Claim takes the single-writer lease on the stream with SET NX PX, so two
// runners never interleave snapshots under the same prefix.
func (p *Publisher) Claim(ctx context.Context, ttl time.Duration) (*Lease, error) {
	token := uuid.NewString()
	ok, err := p.client.SetNX(ctx, p.leaseKey(), token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis error acquiring lease: %w", err)
	}
	if !ok {
		return nil, ErrStreamClaimed
	}
	return &Lease{client: p.client, key: p.leaseKey(), token: token}, nil
}

// Renew extends the lease. It fails with ErrStreamClaimed if the lease
// expired and someone else took it.
func (l *Lease) Renew(ctx context.Context, ttl time.Duration) error {
	n, err := l.client.Eval(ctx, renewScript, []string{l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("redis error renewing lease: %w", err)
	}
	if n == 0 {
		return ErrStreamClaimed
	}
	return nil
}

// Release drops the lease if it is still ours.
func (l *Lease) Release(ctx context.Context) error {
	return l.client.Eval(ctx, releaseScript, []string{l.key}, l.token).Err()
}

// Close releases the codec and, when the publisher created it, the client.
func (p *Publisher) Close() error {
	p.codec.close()
	if p.owned {
		return p.client.Close()
	}
	return nil
}
