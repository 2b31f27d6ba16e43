package cache

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func buildRequest(method, target string, headers map[string][]string) *http.Request {
	req := httptest.NewRequest(method, target, nil)
	for name, values := range headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	return req
}

func TestDeriveKey_QueryOrderIndependent(t *testing.T) {
	a := httptest.NewRequest("GET", "http://example.com/v1/items?page=2&order=asc", nil)
	b := httptest.NewRequest("GET", "http://example.com/v1/items?order=asc&page=2", nil)

	if DeriveKey(a) != DeriveKey(b) {
		t.Errorf("DeriveKey() differs for reordered query params: %+v vs %+v", DeriveKey(a), DeriveKey(b))
	}
}

func TestDeriveKey_Distinguishes(t *testing.T) {
	tests := []struct {
		name     string
		methodA  string
		targetA  string
		headersA map[string][]string
		methodB  string
		targetB  string
		headersB map[string][]string
		wantSame bool
	}{
		{
			name:    "identical requests",
			methodA: "GET", targetA: "http://example.com/v1/items",
			headersA: map[string][]string{"Accept": {"application/json"}},
			methodB:  "GET", targetB: "http://example.com/v1/items",
			headersB: map[string][]string{"Accept": {"application/json"}},
			wantSame: true,
		},
		{
			name:    "different paths",
			methodA: "GET", targetA: "http://example.com/v1/items",
			methodB: "GET", targetB: "http://example.com/v1/orders",
			wantSame: false,
		},
		{
			name:    "different methods",
			methodA: "GET", targetA: "http://example.com/v1/items",
			methodB: "HEAD", targetB: "http://example.com/v1/items",
			wantSame: false,
		},
		{
			name:    "different query values",
			methodA: "GET", targetA: "http://example.com/v1/items?page=1",
			methodB: "GET", targetB: "http://example.com/v1/items?page=2",
			wantSame: false,
		},
		{
			name:    "different varied header values",
			methodA: "GET", targetA: "http://example.com/v1/items",
			headersA: map[string][]string{"Accept": {"application/json"}},
			methodB:  "GET", targetB: "http://example.com/v1/items",
			headersB: map[string][]string{"Accept": {"text/html"}},
			wantSame: false,
		},
		{
			name:    "accept-encoding participates",
			methodA: "GET", targetA: "http://example.com/v1/items",
			headersA: map[string][]string{"Accept-Encoding": {"gzip"}},
			methodB:  "GET", targetB: "http://example.com/v1/items",
			headersB: map[string][]string{"Accept-Encoding": {"br"}},
			wantSame: false,
		},
		{
			name:    "non-varied headers ignored",
			methodA: "GET", targetA: "http://example.com/v1/items",
			headersA: map[string][]string{"Authorization": {"Bearer one"}},
			methodB:  "GET", targetB: "http://example.com/v1/items",
			headersB: map[string][]string{"Authorization": {"Bearer two"}},
			wantSame: true,
		},
		{
			name:    "multi-value varied header order ignored",
			methodA: "GET", targetA: "http://example.com/v1/items",
			headersA: map[string][]string{"Accept-Language": {"de", "en"}},
			methodB:  "GET", targetB: "http://example.com/v1/items",
			headersB: map[string][]string{"Accept-Language": {"en", "de"}},
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keyA := DeriveKey(buildRequest(tt.methodA, tt.targetA, tt.headersA))
			keyB := DeriveKey(buildRequest(tt.methodB, tt.targetB, tt.headersB))

			if got := keyA == keyB; got != tt.wantSame {
				t.Errorf("keyA == keyB = %v, want %v (a=%+v b=%+v)", got, tt.wantSame, keyA, keyB)
			}
		})
	}
}

func TestDeriveKey_Fields(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/v1/items?b=2&a=1", nil)
	req.Header.Set("Accept", "application/json")

	key := DeriveKey(req)

	if key.Method != "GET" {
		t.Errorf("Key.Method = %v, want GET", key.Method)
	}
	if key.Path != "/v1/items" {
		t.Errorf("Key.Path = %v, want /v1/items", key.Path)
	}
	if key.Query != "a=1&b=2" {
		t.Errorf("Key.Query = %v, want a=1&b=2 (sorted)", key.Query)
	}
}

// TestDeriveKey_Determinism ensures the same request always produces the same key.
func TestDeriveKey_Determinism(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/v1/items?order=asc&page=2", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("Accept-Language", "en")

	first := DeriveKey(req)
	for i := 0; i < 10; i++ {
		if got := DeriveKey(req); got != first {
			t.Errorf("DeriveKey() run %d = %+v, want %+v (not deterministic)", i, got, first)
		}
	}
}

func TestKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		want string
	}{
		{
			name: "without query",
			key:  Key{Method: "GET", Path: "/v1/items"},
			want: "GET:/v1/items",
		},
		{
			name: "with query",
			key:  Key{Method: "GET", Path: "/v1/items", Query: "page=2"},
			want: "GET:/v1/items:page=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("Key.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSetVaryHeader(t *testing.T) {
	h := make(http.Header)
	setVaryHeader(h)

	want := "Accept, Accept-Encoding, Accept-Language"
	if got := h.Get("Vary"); got != want {
		t.Errorf("Vary = %v, want %v", got, want)
	}
}
