package mdnice

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/go-rod/rod/lib/proto"
)

func TestSession_Close(t *testing.T) {
	t.Parallel()

	t.Run("steps run in reverse order", func(t *testing.T) {
		t.Parallel()

		var order []string
		s := newSession(newFakePage(), false, discardLogger())
		for _, name := range []string{"launcher", "browser", "page"} {
			s.onClose(name, func() error {
				order = append(order, name)
				return nil
			})
		}
		s.Close()

		want := []string{"page", "browser", "launcher"}
		if !slices.Equal(order, want) {
			t.Errorf("teardown order = %v, want %v", order, want)
		}
	})

	t.Run("runs once", func(t *testing.T) {
		t.Parallel()

		n := 0
		s := newSession(newFakePage(), false, discardLogger())
		s.onClose("count", func() error { n++; return nil })
		s.Close()
		s.Close()
		if n != 1 {
			t.Errorf("step ran %d times, want 1", n)
		}
	})

	t.Run("failing and panicking steps do not stop the chain", func(t *testing.T) {
		t.Parallel()

		ran := false
		s := newSession(newFakePage(), false, discardLogger())
		s.onClose("first", func() error { ran = true; return nil })
		s.onClose("panics", func() error { panic("boom") })
		s.onClose("fails", func() error { return errors.New("already closed") })
		s.Close()

		if !ran {
			t.Error("earliest step should still run")
		}
	})
}

func TestRunStep(t *testing.T) {
	t.Parallel()

	err := runStep(func() error { panic("kaboom") })
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Errorf("runStep() = %v, want the panic value", err)
	}
	want := errors.New("plain")
	if err := runStep(func() error { return want }); !errors.Is(err, want) {
		t.Errorf("runStep() = %v, want %v", err, want)
	}
}

func TestDetectProtocol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		endpoint string
		want     Protocol
	}{
		{endpoint: "wss://chrome.browserless.io", want: ProtocolCDP},
		{endpoint: "ws://127.0.0.1:9222/devtools/browser/abc", want: ProtocolCDP},
		{endpoint: "ws://rod-manager.internal", want: ProtocolManaged},
		{endpoint: "ws://10.0.0.5:7317", want: ProtocolManaged},
		{endpoint: "http://localhost:9222", want: ProtocolCDP},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			t.Parallel()

			if got := detectProtocol(tt.endpoint); got != tt.want {
				t.Errorf("detectProtocol(%q) = %q, want %q", tt.endpoint, got, tt.want)
			}
		})
	}
}

func TestOtherProtocol(t *testing.T) {
	t.Parallel()

	if got := otherProtocol(ProtocolManaged); got != ProtocolCDP {
		t.Errorf("otherProtocol(managed) = %q, want cdp", got)
	}
	if got := otherProtocol(ProtocolCDP); got != ProtocolManaged {
		t.Errorf("otherProtocol(cdp) = %q, want managed", got)
	}
}

func TestWithToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		endpoint string
		token    string
		want     string
	}{
		{name: "no token", endpoint: "wss://host", want: "wss://host"},
		{name: "first query parameter", endpoint: "wss://host", token: "abc", want: "wss://host?token=abc"},
		{name: "appended parameter", endpoint: "wss://host?stealth=true", token: "abc", want: "wss://host?stealth=true&token=abc"},
		{name: "escaped", endpoint: "wss://host", token: "a b&c", want: "wss://host?token=a+b%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := withToken(tt.endpoint, tt.token); got != tt.want {
				t.Errorf("withToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRedactToken(t *testing.T) {
	t.Parallel()

	got := redactToken("wss://host/?token=secret&stealth=true")
	if strings.Contains(got, "secret") {
		t.Errorf("redactToken() = %q, token leaked", got)
	}
	if !strings.Contains(got, "token=REDACTED") || !strings.Contains(got, "stealth=true") {
		t.Errorf("redactToken() = %q, want other parameters kept", got)
	}

	plain := "ws://host:9222"
	if got := redactToken(plain); got != plain {
		t.Errorf("redactToken(%q) = %q, want unchanged", plain, got)
	}
}

func TestResolveControlURL_Websocket(t *testing.T) {
	t.Parallel()

	u := "ws://127.0.0.1:9222/devtools/browser/abc"
	got, err := resolveControlURL(u)
	if err != nil || got != u {
		t.Errorf("resolveControlURL(%q) = %q, %v; want unchanged", u, got, err)
	}
}

// ---------------------------------------------------------------------------
// TestProxyAuthHandlers
// ---------------------------------------------------------------------------

// recordingClient captures CDP calls made through proto requests.
type recordingClient struct {
	methods []string
	params  []any
	err     error
}

func (c *recordingClient) Call(_ context.Context, _, method string, params any) ([]byte, error) {
	c.methods = append(c.methods, method)
	c.params = append(c.params, params)
	return nil, c.err
}

func TestProxyAuthHandlers(t *testing.T) {
	t.Parallel()

	t.Run("every paused request continues", func(t *testing.T) {
		t.Parallel()

		c := &recordingClient{}
		onPaused, _ := proxyAuthHandlers(c, "u", "p", discardLogger())
		onPaused(&proto.FetchRequestPaused{RequestID: "r1"})
		onPaused(&proto.FetchRequestPaused{RequestID: "r2"})

		want := []string{"Fetch.continueRequest", "Fetch.continueRequest"}
		if !slices.Equal(c.methods, want) {
			t.Fatalf("methods = %v, want %v", c.methods, want)
		}
		req, ok := c.params[1].(proto.FetchContinueRequest)
		if !ok || req.RequestID != "r2" {
			t.Errorf("second call params = %#v, want request r2", c.params[1])
		}
	})

	t.Run("every challenge gets the credentials", func(t *testing.T) {
		t.Parallel()

		c := &recordingClient{}
		_, onAuth := proxyAuthHandlers(c, "alice", "s3cret", discardLogger())
		onAuth(&proto.FetchAuthRequired{RequestID: "a1"})
		onAuth(&proto.FetchAuthRequired{RequestID: "a2"})

		if len(c.methods) != 2 || c.methods[1] != "Fetch.continueWithAuth" {
			t.Fatalf("methods = %v, want two Fetch.continueWithAuth calls", c.methods)
		}
		req, ok := c.params[1].(proto.FetchContinueWithAuth)
		if !ok {
			t.Fatalf("params type = %T, want proto.FetchContinueWithAuth", c.params[1])
		}
		resp := req.AuthChallengeResponse
		if req.RequestID != "a2" || resp == nil ||
			resp.Response != proto.FetchAuthChallengeResponseResponseProvideCredentials ||
			resp.Username != "alice" || resp.Password != "s3cret" {
			t.Errorf("continueWithAuth = %#v, want credentials for a2", req)
		}
	})

	t.Run("call errors do not panic", func(t *testing.T) {
		t.Parallel()

		c := &recordingClient{err: errors.New("session closed")}
		onPaused, onAuth := proxyAuthHandlers(c, "u", "p", discardLogger())
		onPaused(&proto.FetchRequestPaused{RequestID: "r"})
		onAuth(&proto.FetchAuthRequired{RequestID: "a"})

		if len(c.methods) != 2 {
			t.Errorf("calls = %d, want 2", len(c.methods))
		}
	})
}
