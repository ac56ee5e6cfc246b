package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"hawx.me/code/assert"
	slogctx "github.com/veqryn/slog-context"
)

func TestNewJSON(t *testing.T) {
	assert := assert.Wrap(t)

	var buf bytes.Buffer
	logger, err := New(&buf, "info", "json")
	assert(err).Must.Nil()

	ctx := slogctx.Append(context.Background(), "identity_url", "https://me.example.com/")
	logger.DebugContext(ctx, "hidden")
	logger.InfoContext(ctx, "signed in")

	var record map[string]any
	assert(json.Unmarshal(buf.Bytes(), &record)).Must.Nil()
	assert(record["msg"]).Equal("signed in")
	assert(record["identity_url"]).Equal("https://me.example.com/")
}

func TestNewText(t *testing.T) {
	assert := assert.Wrap(t)

	var buf bytes.Buffer
	logger, err := New(&buf, "DEBUG", "")
	assert(err).Must.Nil()

	logger.Debug("hello", "who", "world")
	assert(bytes.Contains(buf.Bytes(), []byte("msg=hello who=world"))).True()
}

func TestNewInvalid(t *testing.T) {
	assert := assert.Wrap(t)

	_, err := New(&bytes.Buffer{}, "loud", "text")
	assert(err != nil).True()

	_, err = New(&bytes.Buffer{}, "info", "xml")
	assert(err != nil).True()
}
