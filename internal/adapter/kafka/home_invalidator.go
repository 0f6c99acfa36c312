package kafka

import (
	"context"
	"errors"
	"log/slog"

	"github.com/niksmo/home-catalog/internal/core/domain"
	"github.com/niksmo/home-catalog/internal/core/port"
	"github.com/niksmo/home-catalog/pkg/schema"
	"github.com/twmb/franz-go/pkg/kgo"
)

var ErrUnknownAction = errors.New("unknown product change action")

// A HomeInvalidatorConsumer consumes product change events
// then asks the core service to invalidate the cached homepage.
type HomeInvalidatorConsumer struct {
	opPrefix    string
	consumer    consumer
	invalidator port.HomeInvalidator
	decoder     Decoder
}

func NewHomeInvalidatorConsumer(
	cl ConsumerClient, decoder Decoder, invalidator port.HomeInvalidator,
) (HomeInvalidatorConsumer, error) {
	const op = "NewHomeInvalidatorConsumer"

	switch {
	case cl == nil:
		return HomeInvalidatorConsumer{}, opErr(errors.New("consumer client is nil"), op)
	case decoder == nil:
		return HomeInvalidatorConsumer{}, opErr(errors.New("decoder is nil"), op)
	case invalidator == nil:
		return HomeInvalidatorConsumer{}, opErr(errors.New("home invalidator is nil"), op)
	}

	c := HomeInvalidatorConsumer{
		opPrefix:    "HomeInvalidatorConsumer",
		invalidator: invalidator,
		decoder:     decoder,
	}
	c.consumer = newConsumer(c.opPrefix, c, cl)
	return c, nil
}

func (c HomeInvalidatorConsumer) Run(ctx context.Context) {
	c.consumer.run(ctx)
}

func (c HomeInvalidatorConsumer) Close() {
	c.consumer.close()
}

func (c HomeInvalidatorConsumer) processFetches(
	ctx context.Context, fetches kgo.Fetches,
) error {
	const op = "processFetches"

	changes := c.toDomain(fetches)
	if len(changes) == 0 {
		return nil
	}

	err := c.invalidator.InvalidateHome(ctx, changes)
	if err != nil {
		return opErr(err, c.opPrefix, op)
	}
	return nil
}

// toDomain skips records that cannot be decoded.
func (c HomeInvalidatorConsumer) toDomain(
	fetches kgo.Fetches,
) (vs []domain.ProductChange) {
	const op = "toDomain"
	log := slog.With("op", makeOp(c.opPrefix, op))

	fetches.EachRecord(func(r *kgo.Record) {
		v, err := c.decodeRecValue(r)
		if err != nil {
			log.Error(
				"failed to decode value",
				"err", opErr(err, c.opPrefix, op),
				"partition", r.Partition,
				"offset", r.Offset,
			)
			return
		}
		vs = append(vs, v)
	})
	return vs
}

func (c HomeInvalidatorConsumer) decodeRecValue(
	r *kgo.Record,
) (domain.ProductChange, error) {
	var s schema.ProductChangedV1
	if err := c.decoder.Decode(r.Value, &s); err != nil {
		return domain.ProductChange{}, err
	}
	return schemaV1ToProductChange(s)
}

func schemaV1ToProductChange(
	s schema.ProductChangedV1,
) (domain.ProductChange, error) {
	var action domain.ChangeAction
	switch s.Action {
	case schema.ActionUpsertV1:
		action = domain.ChangeUpsert
	case schema.ActionDeleteV1:
		action = domain.ChangeDelete
	default:
		return domain.ProductChange{}, ErrUnknownAction
	}

	c := domain.ProductChange{
		ProductID:   s.ProductID,
		Category:    s.Category,
		Subcategory: s.Subcategory,
		Action:      action,
	}
	if s.PreviousCategory != nil {
		c.PrevCategory = *s.PreviousCategory
	}
	if s.PreviousSubcategory != nil {
		c.PrevSubcategory = *s.PreviousSubcategory
	}
	return c, nil
}
