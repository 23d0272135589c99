package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lepinkainen/feed-pager/pkg/feedtypes"
)

type pageReply struct {
	status int
	body   string
}

// FeedServer is a fake feed backend serving /rssfeeds/api and /rssfeeds/log.
// Pages that were never set answer with an empty, final page.
type FeedServer struct {
	*httptest.Server

	mu           sync.Mutex
	pages        map[int]pageReply
	pageRequests []int
	logBodies    []string
	logStatus    int
	logged       chan struct{}
}

// NewFeedServer starts a fake backend that is closed when the test ends
func NewFeedServer(t *testing.T) *FeedServer {
	t.Helper()

	s := &FeedServer{
		pages:     make(map[int]pageReply),
		logStatus: http.StatusCreated,
		logged:    make(chan struct{}, 64),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rssfeeds/api", s.handlePage)
	mux.HandleFunc("POST /rssfeeds/log", s.handleLog)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)

	return s
}

// SetPage serves resp for the given page number
func (s *FeedServer) SetPage(t *testing.T, page int, resp feedtypes.PageResponse) {
	t.Helper()

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Failed to marshal page %d: %v", page, err)
	}
	s.SetPageRaw(page, http.StatusOK, string(data))
}

// SetPageRaw serves a literal status and body for the given page number
func (s *FeedServer) SetPageRaw(page, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages[page] = pageReply{status: status, body: body}
}

// SetLogStatus changes the status the log endpoint answers with
func (s *FeedServer) SetLogStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logStatus = status
}

// PageRequests returns the requested page numbers in arrival order
func (s *FeedServer) PageRequests() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.pageRequests...)
}

// LogBodies returns the raw read-log request bodies in arrival order
func (s *FeedServer) LogBodies() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.logBodies...)
}

// WaitForLogs waits until n read-log requests have arrived
func (s *FeedServer) WaitForLogs(n int, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for len(s.LogBodies()) < n {
		select {
		case <-s.logged:
		case <-deadline:
			return false
		}
	}
	return true
}

func (s *FeedServer) handlePage(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil {
		http.Error(w, `{"error":"bad page"}`, http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.pageRequests = append(s.pageRequests, page)
	reply, ok := s.pages[page]
	s.mu.Unlock()

	if !ok {
		reply = pageReply{status: http.StatusOK, body: `{"posts":[],"has_more":false}`}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	_, _ = io.WriteString(w, reply.body)
}

func (s *FeedServer) handleLog(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.logBodies = append(s.logBodies, string(body))
	status := s.logStatus
	s.mu.Unlock()

	select {
	case s.logged <- struct{}{}:
	default:
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, `{"message":"Read log created"}`)
}
