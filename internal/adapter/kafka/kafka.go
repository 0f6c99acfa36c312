package kafka

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"
)

type ConsumerClient interface {
	PollFetches(context.Context) kgo.Fetches
	CommitUncommittedOffsets(context.Context) error
	Close()
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type ClientConfig struct {
	SeedBrokers []string
	Topic       string
	Group       string
	TLS         *tls.Config
}

// NewConsumerClient returns a group consumer with manual commits.
func NewConsumerClient(ctx context.Context, c ClientConfig) (*kgo.Client, error) {
	const op = "kafka.NewConsumerClient"

	opts := []kgo.Opt{
		kgo.SeedBrokers(c.SeedBrokers...),
		kgo.ConsumeTopics(c.Topic),
		kgo.ConsumerGroup(c.Group),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtEnd()),
	}
	if c.TLS != nil {
		opts = append(opts, kgo.DialTLSConfig(c.TLS))
	}

	cl, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, opErr(err, op)
	}

	if err := cl.Ping(ctx); err != nil {
		cl.Close()
		return nil, opErr(err, op)
	}
	return cl, nil
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}
