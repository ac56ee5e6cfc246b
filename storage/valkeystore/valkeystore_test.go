package valkeystore

import (
	"context"
	"testing"

	"hawx.me/code/assert"
	"hawx.me/code/indieauth-signin/internal/valkeytest"
)

func TestNew(t *testing.T) {
	assert := assert.Wrap(t)

	assert(New(nil, "").key).Equal(DefaultKey)
	assert(New(nil, "app:session:").key).Equal("app:session")
}

func TestStorage(t *testing.T) {
	assert := assert.Wrap(t)
	ctx := context.Background()

	storage := New(valkeytest.Start(t), "test:session")

	values, err := storage.Get(ctx, []string{"a", "b"})
	assert(err).Must.Nil()
	assert(values).Len(0)

	assert(storage.Set(ctx, map[string][]byte{"a": []byte(`"1"`), "b": []byte(`{"x":2}`)})).Must.Nil()

	values, err = storage.Get(ctx, []string{"a", "b", "c"})
	assert(err).Must.Nil()
	assert(values).Equal(map[string][]byte{"a": []byte(`"1"`), "b": []byte(`{"x":2}`)})

	assert(storage.Clear(ctx)).Must.Nil()

	values, err = storage.Get(ctx, []string{"a", "b"})
	assert(err).Must.Nil()
	assert(values).Len(0)
}
