// Package apitest provides an in-memory stand-in for the remote
// text-transformation service. It speaks the same JSON API as the real
// service and applies transform.Rewrite, which makes it usable in tests and
// for local demos.
package apitest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"wordsmith/internal/transform"
)

type Call struct {
	Text               string
	TransformationType string
	UserID             string
}

type record struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"-"`
	OriginalText       string    `json:"original_text"`
	TransformedText    string    `json:"transformed_text"`
	TransformationType string    `json:"transformation_type"`
	CreatedAt          time.Time `json:"created_at"`
	IsSaved            bool      `json:"is_saved"`
}

// Backend is the fake service state. The zero value is not usable; call New.
type Backend struct {
	mu      sync.Mutex
	calls   []Call
	history []*record
	failOn  map[string]string
	down    bool
	now     func() time.Time
}

func New() *Backend {
	return &Backend{failOn: map[string]string{}, now: time.Now}
}

// Serve starts an httptest server for b. Callers close it.
func Serve(b *Backend) *httptest.Server { return httptest.NewServer(b.Handler()) }

// FailOn makes every transform of the given type answer 500 with message.
func (b *Backend) FailOn(wireType, message string) {
	b.mu.Lock()
	b.failOn[wireType] = message
	b.mu.Unlock()
}

// SetDown makes the health endpoint answer 503.
func (b *Backend) SetDown(down bool) {
	b.mu.Lock()
	b.down = down
	b.mu.Unlock()
}

func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// Seed inserts a history row directly and returns its id.
func (b *Backend) Seed(userID, original, transformed, wireType string, created time.Time, saved bool) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	r := &record{
		ID: uuid.NewString(), UserID: userID, OriginalText: original, TransformedText: transformed,
		TransformationType: wireType, CreatedAt: created.UTC(), IsSaved: saved,
	}
	b.history = append(b.history, r)
	return r.ID
}

func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/health", b.health)
	mux.HandleFunc("GET /api/v1/transformations", b.transformations)
	mux.HandleFunc("POST /api/v1/transform", b.transform)
	mux.HandleFunc("GET /api/v1/history", b.listHistory)
	mux.HandleFunc("POST /api/v1/history/{id}/save", b.saveHistory)
	mux.HandleFunc("DELETE /api/v1/history", b.deleteHistory)
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": http.StatusText(code), "message": msg, "status_code": code})
}

func (b *Backend) health(w http.ResponseWriter, _ *http.Request) {
	b.mu.Lock()
	down := b.down
	b.mu.Unlock()
	if down {
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy", "app_name": "WordSmith Backend", "version": "1.0.0",
		"timestamp": b.now().UTC().Format(time.RFC3339),
	})
}

var descriptions = map[string][3]string{
	"grammar_fix": {"Grammar Fix", "Fix grammar, spelling, and punctuation errors", "✏️"},
	"formal":      {"Formal", "Convert to formal, professional tone", "👔"},
	"friendly":    {"Friendly", "Make text warm and conversational", "😊"},
	"shorten":     {"Shorten", "Make text more concise", "✂️"},
	"expand":      {"Expand", "Add more details and explanations", "📝"},
	"bullet":      {"Bullet Points", "Convert to bullet point format", "•"},
	"emoji":       {"Add Emojis", "Add appropriate emojis to text", "😎"},
	"tweetify":    {"Tweetify", "Convert to tweet format", "🐦"},
}

func (b *Backend) transformations(w http.ResponseWriter, _ *http.Request) {
	out := map[string]map[string]string{}
	for k, d := range descriptions {
		out[k] = map[string]string{"name": d[0], "description": d[1], "icon": d[2]}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transformations": out, "total_count": len(out)})
}

func (b *Backend) transform(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text               string `json:"text"`
		TransformationType string `json:"transformation_type"`
		OriginalText       string `json:"original_text"`
		UserID             string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON body")
		return
	}

	b.mu.Lock()
	b.calls = append(b.calls, Call{Text: req.Text, TransformationType: req.TransformationType, UserID: req.UserID})
	msg, fail := b.failOn[req.TransformationType]
	b.mu.Unlock()

	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Text cannot be empty"})
		return
	}
	if _, ok := descriptions[req.TransformationType]; !ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "unknown transformation_type " + req.TransformationType})
		return
	}
	if fail {
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	start := time.Now()
	out := transform.Rewrite(req.TransformationType, req.Text)
	original := req.OriginalText
	if original == "" {
		original = req.Text
	}

	b.mu.Lock()
	rec := &record{
		ID: uuid.NewString(), UserID: req.UserID, OriginalText: original, TransformedText: out,
		TransformationType: req.TransformationType, CreatedAt: b.now().UTC(),
	}
	b.history = append(b.history, rec)
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"transformed_text":    out,
		"transformation_type": req.TransformationType,
		"processing_time":     time.Since(start).Seconds(),
		"history_id":          rec.ID,
	})
}

func (b *Backend) listHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 50
	}
	savedOnly := q.Get("saved_only") == "true"
	user := q.Get("user_id")

	b.mu.Lock()
	items := []record{}
	for _, rec := range b.history {
		if user != "" && rec.UserID != user {
			continue
		}
		if savedOnly && !rec.IsSaved {
			continue
		}
		items = append(items, *rec)
	}
	b.mu.Unlock()

	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	total := len(items)
	lo := min((page-1)*size, total)
	hi := min(lo+size, total)

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items[lo:hi], "page": page, "page_size": size, "total": total,
	})
}

func (b *Backend) saveHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range b.history {
		if rec.ID == id {
			rec.IsSaved = true
			writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_saved": true})
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("history item %s not found", id))
}

func (b *Backend) deleteHistory(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids are required")
		return
	}
	drop := map[string]bool{}
	for _, id := range req.IDs {
		drop[id] = true
	}
	b.mu.Lock()
	kept := b.history[:0]
	deleted := 0
	for _, rec := range b.history {
		if drop[rec.ID] {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	b.history = kept
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}
