package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"operator-console/internal/backend"
	"operator-console/internal/session"
	"operator-console/internal/view"

	"github.com/gin-gonic/gin"
)

// fakeUpstream is a minimal stand-in for the call-center REST API.
type fakeUpstream struct {
	t     *testing.T
	calls []backend.Call
}

func (f *fakeUpstream) handler() http.Handler {
	// Method+wildcard ServeMux patterns and r.PathValue need Go 1.22, so
	// routes are matched by hand to stay buildable on Go 1.21.
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(backend.Session{AccessToken: "at-1", RefreshToken: "rt-1", ExpiresIn: 3600})
	})
	mux.HandleFunc("/calls", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") != "Bearer at-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(backend.CallPage{Nodes: f.calls, TotalCount: len(f.calls), HasNextPage: false})
	})
	mux.HandleFunc("/calls/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/calls/")
		switch {
		case r.Method == http.MethodGet && !strings.Contains(rest, "/"):
			for _, c := range f.calls {
				if c.ID == rest {
					_ = json.NewEncoder(w).Encode(c)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && strings.HasSuffix(rest, "/archive"):
			id := strings.TrimSuffix(rest, "/archive")
			for i := range f.calls {
				if f.calls[i].ID == id {
					f.calls[i].IsArchived = !f.calls[i].IsArchived
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPost && strings.HasSuffix(rest, "/note"):
			id := strings.TrimSuffix(rest, "/note")
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			for i := range f.calls {
				if f.calls[i].ID == id {
					f.calls[i].Notes = append(f.calls[i].Notes, backend.Note{Content: body["content"], CreatedAt: time.Now()})
					_ = json.NewEncoder(w).Encode(f.calls[i])
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	return mux
}

func newTestRouter(t *testing.T) (*gin.Engine, *fakeUpstream) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	up := &fakeUpstream{t: t, calls: []backend.Call{
		{ID: "c1", CallType: backend.CallTypeAnswered, DurationSeconds: 263},
		{ID: "c2", CallType: backend.CallTypeMissed, IsArchived: true},
	}}
	srv := httptest.NewServer(up.handler())
	t.Cleanup(srv.Close)

	tokens := session.NewTokenStore()
	client := backend.NewClient(srv.URL, tokens, nil)
	sessions := session.NewManager(client, tokens, session.NewMemoryRefreshStore(), nil)
	controller := view.NewController(client, nil)

	h := Handlers{Session: sessions, View: controller, Calls: client}

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.POST("/auth/logout", h.Logout)
	r.GET("/calls", h.ListView)
	r.GET("/calls/:id", h.GetCall)
	r.PUT("/calls/:id/archive", h.ToggleArchive)
	r.POST("/calls/:id/note", h.AddNote)
	r.POST("/calls/view/filter", h.SetFilter)
	r.POST("/calls/view/page", h.SetPage)
	return r, up
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func login(t *testing.T, r *gin.Engine) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"username": "op", "password": "good"})
	if w.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", w.Code, w.Body.String())
	}
}

func TestLogin_ReturnsFirstPage(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"username": "op", "password": "good"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var snap view.Snapshot
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(snap.Calls) != 2 || snap.Page != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestLogin_BadCredentialsAreGeneric(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/auth/login", map[string]string{"username": "op", "password": "bad"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
	if strings.Contains(w.Body.String(), "bad") {
		t.Fatalf("response must not echo credentials: %s", w.Body.String())
	}
}

func TestListView_WithoutLoginIsEmptySnapshot(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/calls", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var snap view.Snapshot
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if len(snap.Calls) != 0 {
		t.Fatalf("expected empty view before login, got %+v", snap)
	}
}

func TestGetCall_DetailAndNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	login(t, r)

	w := doJSON(t, r, http.MethodGet, "/calls/c1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var out struct {
		Call          backend.Call `json:"call"`
		DurationLabel string       `json:"duration_label"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Call.ID != "c1" || out.DurationLabel != "4 min 23 sec (263 sec)" {
		t.Fatalf("unexpected detail: %+v", out)
	}

	if w := doJSON(t, r, http.MethodGet, "/calls/nope", nil); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestToggleArchive_FlipsCachedRecord(t *testing.T) {
	r, _ := newTestRouter(t)
	login(t, r)

	w := doJSON(t, r, http.MethodPut, "/calls/c1/archive", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var snap view.Snapshot
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	for _, c := range snap.Calls {
		if c.ID == "c1" && !c.IsArchived {
			t.Fatalf("expected c1 archived in snapshot")
		}
	}
}

func TestAddNote_ReturnsUpdatedRecord(t *testing.T) {
	r, _ := newTestRouter(t)
	login(t, r)

	w := doJSON(t, r, http.MethodPost, "/calls/c2/note", map[string]string{"content": "escalated"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var call backend.Call
	if err := json.Unmarshal(w.Body.Bytes(), &call); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(call.Notes) != 1 || call.Notes[0].Content != "escalated" {
		t.Fatalf("unexpected record: %+v", call)
	}

	if w := doJSON(t, r, http.MethodPost, "/calls/c2/note", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty content, got %d", w.Code)
	}
}

func TestSetFilter_RejectsUnknownValues(t *testing.T) {
	r, _ := newTestRouter(t)
	login(t, r)

	if w := doJSON(t, r, http.MethodPost, "/calls/view/filter", map[string]string{"filter": "Weird"}); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if w := doJSON(t, r, http.MethodPost, "/calls/view/filter", map[string]string{"filter": "Unarchived"}); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
