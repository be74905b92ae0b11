package application

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/devblog-app/devblog-api/internal/gateway"
)

// fakeAuth scripts the gateway's auth subsystem. Sign-in emits SIGNED_IN
// through a real broker, the way the REST adapter does.
type fakeAuth struct {
	mu     sync.Mutex
	broker *gateway.Broker

	creds  map[string]string            // email -> password
	users  map[string]gateway.Principal // email -> principal
	tokens map[string]gateway.Principal // access token -> principal

	signInErr  error
	getUserErr error
	signOuts   []string // tokens passed to SignOut
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		broker: gateway.NewBroker(),
		creds:  make(map[string]string),
		users:  make(map[string]gateway.Principal),
		tokens: make(map[string]gateway.Principal),
	}
}

// addUser registers a user and returns the access token a successful sign-in
// would issue.
func (f *fakeAuth) addUser(id, email, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := gateway.Principal{ID: id, Email: email}
	f.creds[email] = password
	f.users[email] = p
	token := "tok-" + id
	f.tokens[token] = p
	return token
}

// revoke invalidates every token for the user, as a server-side sign-out does.
func (f *fakeAuth) revoke(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for tok, p := range f.tokens {
		if p.ID == uid {
			delete(f.tokens, tok)
		}
	}
}

func (f *fakeAuth) SignInWithPassword(_ context.Context, email, password string) (*gateway.Session, error) {
	f.mu.Lock()
	if f.signInErr != nil {
		err := f.signInErr
		f.mu.Unlock()
		return nil, err
	}
	pw, ok := f.creds[email]
	if !ok || pw != password {
		f.mu.Unlock()
		return nil, gateway.ErrInvalidCredentials
	}
	p := f.users[email]
	sess := &gateway.Session{AccessToken: "tok-" + p.ID, RefreshToken: "ref-" + p.ID, User: p}
	f.mu.Unlock()

	f.broker.Emit(gateway.AuthEvent{Type: gateway.SignedIn, UserID: p.ID, Session: sess})
	return sess, nil
}

func (f *fakeAuth) SignOut(_ context.Context, accessToken string) error {
	f.mu.Lock()
	f.signOuts = append(f.signOuts, accessToken)
	p, ok := f.tokens[accessToken]
	delete(f.tokens, accessToken)
	f.mu.Unlock()

	if ok {
		f.broker.Emit(gateway.AuthEvent{Type: gateway.SignedOut, UserID: p.ID})
	}
	return nil
}

func (f *fakeAuth) GetUser(_ context.Context, accessToken string) (*gateway.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getUserErr != nil {
		return nil, f.getUserErr
	}
	p, ok := f.tokens[accessToken]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (f *fakeAuth) GetSession(string) (*gateway.Session, bool) { return nil, false }

func (f *fakeAuth) RefreshSession(_ context.Context, refreshToken string) (*gateway.Session, error) {
	return nil, gateway.ErrInvalidCredentials
}

func (f *fakeAuth) OnAuthStateChange(fn gateway.Listener) *gateway.Subscription {
	return f.broker.Subscribe(fn)
}

// fakeData interprets queries against in-memory tables. Rows are plain maps
// with JSON-friendly values; results round-trip through encoding/json the way
// adapter results do.
type fakeData struct {
	mu     sync.Mutex
	tables map[string][]map[string]any

	queryErr  map[string]error // table -> forced Query error
	countErr  error
	insertErr error

	// queryHook runs before each Query with the lock released; tests use it
	// to block or reorder in-flight requests.
	queryHook func(q *gateway.Query)

	counts  int      // Count invocations
	queries []string // queried table names, in order
}

func newFakeData() *fakeData {
	return &fakeData{
		tables:   make(map[string][]map[string]any),
		queryErr: make(map[string]error),
	}
}

func (f *fakeData) add(table string, row map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables[table] = append(f.tables[table], row)
}

func (f *fakeData) Query(_ context.Context, q *gateway.Query, dest any) error {
	if f.queryHook != nil {
		f.queryHook(q)
	}

	f.mu.Lock()
	f.queries = append(f.queries, q.Table)
	if err := f.queryErr[q.Table]; err != nil {
		f.mu.Unlock()
		return err
	}
	rows := f.filter(q)
	f.mu.Unlock()

	if q.SingleRow {
		if len(rows) == 0 {
			return gateway.ErrNoRows
		}
		return reencode(rows[0], dest)
	}
	return reencode(rows, dest)
}

func (f *fakeData) Count(_ context.Context, q *gateway.Query) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts++
	if f.countErr != nil {
		return 0, f.countErr
	}
	n := 0
	for _, row := range f.tables[q.Table] {
		if matches(row, q) {
			n++
		}
	}
	return int64(n), nil
}

func (f *fakeData) Insert(_ context.Context, table string, record map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.tables[table] = append(f.tables[table], record)
	return nil
}

func (f *fakeData) filter(q *gateway.Query) []map[string]any {
	var rows []map[string]any
	for _, row := range f.tables[q.Table] {
		if matches(row, q) {
			rows = append(rows, row)
		}
	}

	for _, o := range q.Orders {
		col, desc := o.Column, o.Desc
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := fmt.Sprint(rows[i][col]), fmt.Sprint(rows[j][col])
			if desc {
				return a > b
			}
			return a < b
		})
	}

	for _, e := range q.Embeds {
		rows = f.embed(rows, q.Table, e)
	}

	if q.HasRange {
		if q.RangeFrom >= len(rows) {
			return nil
		}
		to := q.RangeTo + 1
		if to > len(rows) {
			to = len(rows)
		}
		rows = rows[q.RangeFrom:to]
	}
	return rows
}

func (f *fakeData) embed(rows []map[string]any, table string, e gateway.Embed) []map[string]any {
	fk := "category_id" // the only relation the blog embeds
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		merged := make(map[string]any, len(row)+1)
		for k, v := range row {
			merged[k] = v
		}
		for _, rel := range f.tables[e.Table] {
			if fmt.Sprint(rel["id"]) == fmt.Sprint(row[fk]) {
				sub := make(map[string]any, len(e.Columns))
				for _, c := range e.Columns {
					sub[c] = rel[c]
				}
				merged[e.Table] = sub
				break
			}
		}
		out = append(out, merged)
	}
	return out
}

func matches(row map[string]any, q *gateway.Query) bool {
	for _, flt := range q.Filters {
		if fmt.Sprint(row[flt.Column]) != fmt.Sprint(flt.Value) {
			return false
		}
	}
	return true
}

func reencode(src, dest any) error {
	b, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, dest)
}
