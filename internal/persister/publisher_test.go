package persister

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recordhub/internal/platform/kafka/producer"
	"recordhub/pkg/requestcontext"
)

type recordingProducer struct {
	msgs []*producer.Message
	err  error
}

func (r *recordingProducer) Produce(_ context.Context, msg *producer.Message) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestPublish(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("keys by tenant and carries request id", func(t *testing.T) {
		rec := &recordingProducer{}
		p := New(rec, WithLogger(logger))
		ctx := requestcontext.WithRequestID(context.Background(), "req-9")

		err := p.Publish(ctx, "save-certificate", "pb", map[string]string{"id": "c1"})
		require.NoError(t, err)
		require.Len(t, rec.msgs, 1)

		msg := rec.msgs[0]
		assert.Equal(t, "save-certificate", msg.Topic)
		assert.Equal(t, []byte("pb"), msg.Key)
		assert.Equal(t, "req-9", msg.Headers["request_id"])
		var body map[string]string
		require.NoError(t, json.Unmarshal(msg.Value, &body))
		assert.Equal(t, "c1", body["id"])
	})

	t.Run("producer failure is wrapped", func(t *testing.T) {
		cause := errors.New("broker down")
		p := New(&recordingProducer{err: cause}, WithLogger(logger))
		err := p.Publish(context.Background(), "t", "pb", struct{}{})
		assert.ErrorIs(t, err, cause)
	})

	t.Run("unmarshalable payload never reaches the producer", func(t *testing.T) {
		rec := &recordingProducer{}
		p := New(rec, WithLogger(logger))
		err := p.Publish(context.Background(), "t", "pb", map[string]any{"f": func() {}})
		assert.Error(t, err)
		assert.Empty(t, rec.msgs)
	})
}
