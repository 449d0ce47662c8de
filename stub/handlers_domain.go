package stub

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/govindavashishtha/arcfit-admin/api"
)

const (
	defaultPageLimit = 20
	maxImportSize    = 5 << 20 // 5 MiB
)

// Seed data for the list endpoints. A handful of rows is enough to
// exercise pagination. Each Server works on its own copy, so an import
// into one instance is never visible through another.
var (
	seedCenters = []api.Center{
		{CenterID: "c-01", Name: "ArcFit Indiranagar", City: "Bengaluru"},
		{CenterID: "c-02", Name: "ArcFit Koramangala", City: "Bengaluru"},
		{CenterID: "c-03", Name: "ArcFit Powai", City: "Mumbai"},
	}
	seedMembers = []api.Member{
		{MemberID: "m-001", FirstName: "Jo", LastName: "Fernandes", Email: "jo@example.com", CenterID: "c-01", Status: "active"},
		{MemberID: "m-002", FirstName: "Priya", LastName: "Nair", Email: "priya@example.com", CenterID: "c-01", Status: "active"},
		{MemberID: "m-003", FirstName: "Arjun", LastName: "Rao", Email: "arjun@example.com", CenterID: "c-02", Status: "paused"},
		{MemberID: "m-004", FirstName: "Sara", LastName: "Khan", Email: "sara@example.com", CenterID: "c-03", Status: "active"},
	}
	seedEvents = []api.Event{
		{EventID: "e-01", CenterID: "c-01", Title: "Yoga Marathon", StartsAt: "2025-07-01T06:00:00Z", Capacity: 40},
		{EventID: "e-02", CenterID: "c-02", Title: "HIIT Bootcamp", StartsAt: "2025-07-08T07:00:00Z", Capacity: 25},
	}
)

// fixtureStore holds one Server's domain records, seeded at construction
// and mutated by imports.
type fixtureStore struct {
	mu      sync.RWMutex
	members []api.Member
	centers []api.Center
	events  []api.Event
}

func newFixtureStore() *fixtureStore {
	return &fixtureStore{
		members: append([]api.Member(nil), seedMembers...),
		centers: append([]api.Center(nil), seedCenters...),
		events:  append([]api.Event(nil), seedEvents...),
	}
}

func (f *fixtureStore) allMembers() []api.Member {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]api.Member(nil), f.members...)
}

func (f *fixtureStore) allCenters() []api.Center {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]api.Center(nil), f.centers...)
}

func (f *fixtureStore) allEvents() []api.Event {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]api.Event(nil), f.events...)
}

func (f *fixtureStore) addMember(m api.Member) {
	f.mu.Lock()
	f.members = append(f.members, m)
	f.mu.Unlock()
}

// ListMembersHandler serves a paginated page of members.
func (s *Server) ListMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, paginate(r, s.fixtures.allMembers(), func(m api.Member, search string) bool {
			return strings.Contains(strings.ToLower(m.FirstName+" "+m.LastName+" "+m.Email), search)
		}))
	}
}

// ListCentersHandler serves a paginated page of centers.
func (s *Server) ListCentersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, paginate(r, s.fixtures.allCenters(), func(c api.Center, search string) bool {
			return strings.Contains(strings.ToLower(c.Name+" "+c.City), search)
		}))
	}
}

// ListEventsHandler serves a paginated page of events.
func (s *Server) ListEventsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeData(w, http.StatusOK, paginate(r, s.fixtures.allEvents(), func(e api.Event, search string) bool {
			return strings.Contains(strings.ToLower(e.Title), search)
		}))
	}
}

// ImportMembersHandler accepts a multipart CSV upload with the columns
// first_name, last_name, email and center_id, reporting per-row outcomes.
func (s *Server) ImportMembersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxImportSize); err != nil {
			writeError(w, http.StatusBadRequest, "expected a multipart upload")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		result, err := importMembers(file, s.fixtures)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Info().Str("admin", userIDFrom(r.Context())).Int("imported", result.Imported).Int("failed", result.Failed).Msg("member import")
		writeData(w, http.StatusOK, result)
	}
}

func importMembers(file io.Reader, fixtures *fixtureStore) (*api.ImportResult, error) {
	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("empty or unreadable CSV")
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, required := range []string{"first_name", "last_name", "email", "center_id"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	result := &api.ImportResult{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		email := strings.TrimSpace(record[columns["email"]])
		if email == "" || !strings.Contains(email, "@") {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: invalid email", line))
			continue
		}

		fixtures.addMember(api.Member{
			MemberID:  "m-" + uuid.New().String()[:8],
			FirstName: strings.TrimSpace(record[columns["first_name"]]),
			LastName:  strings.TrimSpace(record[columns["last_name"]]),
			Email:     email,
			CenterID:  strings.TrimSpace(record[columns["center_id"]]),
			Status:    "active",
		})
		result.Imported++
	}
	return result, nil
}

// paginate applies the shared page/limit/search query parameters to a
// record slice.
func paginate[T any](r *http.Request, items []T, matches func(T, string) bool) api.Page[T] {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(query.Get("limit"))
	if limit < 1 {
		limit = defaultPageLimit
	}

	filtered := items
	if search := strings.ToLower(query.Get("search")); search != "" {
		filtered = nil
		for _, item := range items {
			if matches(item, search) {
				filtered = append(filtered, item)
			}
		}
	}

	start := (page - 1) * limit
	if start > len(filtered) {
		start = len(filtered)
	}
	end := start + limit
	if end > len(filtered) {
		end = len(filtered)
	}

	return api.Page[T]{
		Items: filtered[start:end],
		Total: len(filtered),
		Page:  page,
		Limit: limit,
	}
}
