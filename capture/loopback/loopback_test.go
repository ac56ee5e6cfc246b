package loopback

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"hawx.me/code/assert"
)

func TestCapture(t *testing.T) {
	assert := assert.Wrap(t)

	var opened string
	capturer, err := Listen("127.0.0.1:0", func(ctx context.Context, authURL string) error {
		opened = authURL
		return nil
	})
	assert(err).Must.Nil()
	defer capturer.Close()

	redirectURL, err := capturer.RedirectURL("https://app.example.com/")
	assert(err).Must.Nil()
	assert(strings.HasPrefix(redirectURL, "http://127.0.0.1:")).True()
	assert(strings.HasSuffix(redirectURL, CallbackPath)).True()

	go func() {
		for range 50 {
			resp, err := http.Get(redirectURL + "?code=abc&state=xyz")
			if err == nil {
				resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return
				}
			}
			time.Sleep(10 * time.Millisecond)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := capturer.Capture(ctx, "https://auth.example.com/?state=xyz")
	assert(err).Must.Nil()
	assert(result).Equal(redirectURL + "?code=abc&state=xyz")
	assert(opened).Equal("https://auth.example.com/?state=xyz")
}

func TestCallbackWithoutCapture(t *testing.T) {
	assert := assert.Wrap(t)

	capturer, err := Listen("127.0.0.1:0", nil)
	assert(err).Must.Nil()
	defer capturer.Close()

	redirectURL, _ := capturer.RedirectURL("")

	resp, err := http.Get(redirectURL + "?code=abc")
	assert(err).Must.Nil()
	resp.Body.Close()
	assert(resp.StatusCode).Equal(http.StatusNotFound)
}

func TestCaptureBusy(t *testing.T) {
	assert := assert.Wrap(t)

	started := make(chan struct{})
	capturer, err := Listen("127.0.0.1:0", func(ctx context.Context, authURL string) error {
		close(started)
		return nil
	})
	assert(err).Must.Nil()
	defer capturer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := capturer.Capture(ctx, "https://auth.example.com/")
		done <- err
	}()

	<-started
	_, err = capturer.Capture(context.Background(), "https://auth.example.com/")
	assert(err).Equal(ErrBusy)

	cancel()
	assert(<-done).Equal(context.Canceled)
}

func TestCaptureOpenFailed(t *testing.T) {
	assert := assert.Wrap(t)

	failed := errors.New("no browser")
	capturer, err := Listen("127.0.0.1:0", func(ctx context.Context, authURL string) error {
		return failed
	})
	assert(err).Must.Nil()
	defer capturer.Close()

	_, err = capturer.Capture(context.Background(), "https://auth.example.com/")
	assert(errors.Is(err, failed)).True()

	// a failed capture does not block the next one
	_, err = capturer.Capture(context.Background(), "https://auth.example.com/")
	assert(errors.Is(err, failed)).True()
}
