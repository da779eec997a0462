package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func newBackend(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, "test-key", 0, zerolog.Nop()), srv
}

func TestChat_SendsAuthAndDecodesReply(t *testing.T) {
	var gotAuth, gotPath string
	var gotReq ChatRequest
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotReq)
		_ = json.NewEncoder(w).Encode(ChatResponse{Message: "bonjour", Sources: []string{"s1"}})
	})

	out, err := c.Chat(context.Background(), ChatRequest{
		FocusMode: "default",
		Query:     "salut",
		History:   []HistoryItem{{Role: "user", Content: "salut"}},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if out.Message != "bonjour" || len(out.Sources) != 1 {
		t.Fatalf("unexpected reply: %#v", out)
	}
	if gotAuth != "Bearer test-key" || gotPath != "/api/chat" {
		t.Fatalf("request not shaped: auth=%q path=%q", gotAuth, gotPath)
	}
	if gotReq.Query != "salut" || len(gotReq.History) != 1 {
		t.Fatalf("payload lost: %#v", gotReq)
	}
}

func TestChat_EmptyReplyIsUnavailable(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(ChatResponse{Message: "   "})
	})
	if _, err := c.Chat(context.Background(), ChatRequest{Query: "q"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v, want ErrUnavailable", err)
	}
}

func TestChat_Non2xxIsUnavailable(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})
	if _, err := c.Chat(context.Background(), ChatRequest{Query: "q"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v, want ErrUnavailable", err)
	}
}

func TestChat_TransportFailureIsUnavailable(t *testing.T) {
	c, srv := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {})
	srv.Close()
	if _, err := c.Chat(context.Background(), ChatRequest{Query: "q"}); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err=%v, want ErrUnavailable", err)
	}
}

func TestSuggestionsAndExpertKeywords(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/suggestions":
			_, _ = w.Write([]byte(`{"suggestions":["Et ensuite ?","Quel budget ?"]}`))
		case "/api/experts":
			_, _ = w.Write([]byte(`{"keywords":["comptabilité","audit"]}`))
		default:
			http.NotFound(w, r)
		}
	})

	sug, err := c.Suggestions(context.Background(), []HistoryItem{{Role: "user", Content: "aide"}})
	if err != nil || len(sug) != 2 {
		t.Fatalf("suggestions: %v %v", sug, err)
	}
	kw, err := c.ExpertKeywords(context.Background(), "je cherche un comptable")
	if err != nil || len(kw) != 2 || kw[0] != "comptabilité" {
		t.Fatalf("keywords: %v %v", kw, err)
	}
}
