package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"hawx.me/code/assert"
)

func TestDefault(t *testing.T) {
	assert := assert.Wrap(t)

	cfg := Default()

	assert(cfg.Validate()).Nil()
	assert(cfg.Storage.Backend).Equal(StorageSQLite)
	assert(filepath.Base(cfg.Storage.Path)).Equal("session.db")
	assert(cfg.Channel).Equal(ChannelLocal)
	assert(cfg.Watch.Interval).Equal(250 * time.Millisecond)
	assert(cfg.Watch.Timeout).Equal(10 * time.Minute)
}

func TestLoadYAML(t *testing.T) {
	assert := assert.Wrap(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
clientId: https://app.example.com/
log:
  level: debug
  format: json
storage:
  backend: valkey
channel: valkey
valkey:
  addresses:
    - valkey-1:6379
    - valkey-2:6379
  key: app:session
watch:
  interval: 1s
`), 0o600)
	assert(err).Must.Nil()

	cfg, err := Load(path)
	assert(err).Must.Nil()

	assert(cfg.ClientID).Equal("https://app.example.com/")
	assert(cfg.Log.Level).Equal("debug")
	assert(cfg.Log.Format).Equal("json")
	assert(cfg.Storage.Backend).Equal(StorageValkey)
	assert(cfg.Channel).Equal(ChannelValkey)
	assert(cfg.Valkey.Addresses).Equal([]string{"valkey-1:6379", "valkey-2:6379"})
	assert(cfg.Valkey.Key).Equal("app:session")
	assert(cfg.Watch.Interval).Equal(time.Second)
	assert(cfg.Watch.Timeout).Equal(10 * time.Minute)
}

func TestLoadEnv(t *testing.T) {
	assert := assert.Wrap(t)

	t.Setenv("INDIEAUTH_CLIENT_ID", "https://env.example.com/")
	t.Setenv("INDIEAUTH_STORAGE_BACKEND", "memory")
	t.Setenv("INDIEAUTH_VALKEY_ADDRESSES", "a:1,b:2")
	t.Setenv("INDIEAUTH_WATCH_TIMEOUT", "0s")

	path := filepath.Join(t.TempDir(), "config.yaml")
	assert(os.WriteFile(path, []byte("clientId: https://file.example.com/\n"), 0o600)).Must.Nil()

	cfg, err := Load(path)
	assert(err).Must.Nil()

	assert(cfg.ClientID).Equal("https://env.example.com/")
	assert(cfg.Storage.Backend).Equal(StorageMemory)
	assert(cfg.Valkey.Addresses).Equal([]string{"a:1", "b:2"})
	assert(cfg.Watch.Timeout).Equal(time.Duration(0))
}

func TestLoadMissingFile(t *testing.T) {
	assert := assert.Wrap(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert(err != nil).True()
}

func TestValidate(t *testing.T) {
	assert := assert.Wrap(t)

	cfg := Default()
	cfg.Storage.Backend = "floppy"
	cfg.Channel = "carrier-pigeon"
	cfg.Watch.Interval = 0

	err := cfg.Validate()
	assert(err != nil).True()

	msg := err.Error()
	assert(strings.Contains(msg, "storage.backend")).True()
	assert(strings.Contains(msg, "channel")).True()
	assert(strings.Contains(msg, "watch.interval")).True()
}

func TestValidateValkeyAddresses(t *testing.T) {
	assert := assert.Wrap(t)

	cfg := Default()
	cfg.Channel = ChannelValkey
	cfg.Valkey.Addresses = nil

	err := cfg.Validate()
	assert(err != nil).True()
	assert(strings.Contains(err.Error(), "valkey.addresses")).True()
}
