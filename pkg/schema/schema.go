package schema

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/sr"
)

// A SchemaIdentifier returns the registry id of the schema text under
// the subject.
type SchemaIdentifier interface {
	DetermineID(ctx context.Context, subject, avroSchemaText string) (id int, err error)
}

type registryIdentifier struct {
	cl *sr.Client
}

// NewSchemaIdentifier registers schemas through cl. Registering an
// already known schema returns its existing id.
func NewSchemaIdentifier(cl *sr.Client) SchemaIdentifier {
	return registryIdentifier{cl}
}

func (r registryIdentifier) DetermineID(
	ctx context.Context, subject, avroSchemaText string,
) (int, error) {
	const op = "SchemaIdentifier.DetermineID"

	ss, err := r.cl.CreateSchema(ctx, subject, sr.Schema{
		Schema: avroSchemaText,
		Type:   sr.TypeAvro,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: subject %q: %w", op, subject, err)
	}
	return ss.ID, nil
}
