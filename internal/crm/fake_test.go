package crm

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"sync"
)

type call struct {
	Method   string
	Endpoint string
	Body     any
}

// Statement returns the decoded q parameter of a query or search call.
func (c call) Statement() string {
	i := strings.Index(c.Endpoint, "?q=")
	if i < 0 {
		return ""
	}
	s, _ := url.QueryUnescape(c.Endpoint[i+3:])
	return s
}

// fakeDoer answers calls with the first matching route.
type fakeDoer struct {
	mu     sync.Mutex
	calls  []call
	routes []route
}

type route struct {
	match    func(c call) bool
	response string
	err      error
}

func (f *fakeDoer) on(match func(c call) bool, response string) *fakeDoer {
	f.routes = append(f.routes, route{match: match, response: response})
	return f
}

func (f *fakeDoer) fail(match func(c call) bool, err error) *fakeDoer {
	f.routes = append(f.routes, route{match: match, err: err})
	return f
}

func (f *fakeDoer) Do(_ context.Context, method, endpoint string, body any, out any) error {
	c := call{Method: method, Endpoint: endpoint, Body: body}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	for _, r := range f.routes {
		if !r.match(c) {
			continue
		}
		if r.err != nil {
			return r.err
		}
		if out == nil || r.response == "" {
			return nil
		}
		return json.Unmarshal([]byte(r.response), out)
	}
	return nil
}

func (f *fakeDoer) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func selecting(object string) func(call) bool {
	return func(c call) bool {
		return strings.Contains(c.Statement(), " FROM "+object)
	}
}

func endpointIs(method, endpoint string) func(call) bool {
	return func(c call) bool {
		return c.Method == method && c.Endpoint == endpoint
	}
}
