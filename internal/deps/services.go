package deps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/menezmethod/macrofx/internal/nominal"
)

// ErrUpstream is returned when a remote service answers with a non-2xx status.
var ErrUpstream = errors.New("upstream request failed")

// TimeNow returns the injected clock's reading.
func TimeNow(d Deps) func() time.Time {
	return func() time.Time { return d.Clock.Now() }
}

// FetchJSON GETs url and returns the raw JSON body. A non-2xx answer yields a
// nil body and no error.
func FetchJSON(d Deps) func(ctx context.Context, url string) (json.RawMessage, error) {
	return func(ctx context.Context, url string) (json.RawMessage, error) {
		d.Log.Log("GET " + url)
		resp, err := d.HTTP.Get(ctx, url, nil)
		if err != nil {
			return nil, err
		}
		if !resp.OK() {
			return nil, nil
		}
		return json.RawMessage(resp.Body), nil
	}
}

// BumpCounter increments the counter stored under key and returns the new
// value. It uses the store's atomic increment when available; otherwise it
// reads, adds one and writes back, which can lose updates under concurrency.
func BumpCounter(d Deps) func(ctx context.Context, key string) (int64, error) {
	return func(ctx context.Context, key string) (int64, error) {
		if inc, ok := d.KV.(Incrementer); ok {
			return inc.Incr(ctx, key)
		}

		var cur int64
		raw, found, err := d.KV.Get(ctx, key)
		if err != nil {
			return 0, err
		}
		if found {
			if cur, err = strconv.ParseInt(string(raw), 10, 64); err != nil {
				return 0, fmt.Errorf("counter %q: %w", key, err)
			}
		}
		next := cur + 1
		if err := d.KV.Set(ctx, key, []byte(strconv.FormatInt(next, 10)), 0); err != nil {
			return 0, err
		}
		return next, nil
	}
}

// Todo is the upstream resource fetched by the demo pipeline.
type Todo struct {
	UserID    int    `json:"userId"`
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TodoRequest identifies a todo on behalf of an API key.
type TodoRequest struct {
	APIKey nominal.APIKey      `json:"apiKey"`
	ID     nominal.PositiveInt `json:"id"`
}

// FetchTodo returns an operation that loads a todo from baseURL.
func FetchTodo(baseURL string) func(Deps) func(context.Context, TodoRequest) (Todo, error) {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(d Deps) func(context.Context, TodoRequest) (Todo, error) {
		return func(ctx context.Context, req TodoRequest) (Todo, error) {
			url := baseURL + "/todos/" + strconv.Itoa(int(req.ID))
			d.Log.Log("GET " + url)

			header := http.Header{}
			header.Set("X-Api-Key", string(req.APIKey))
			resp, err := d.HTTP.Get(ctx, url, header)
			if err != nil {
				return Todo{}, fmt.Errorf("fetch todo %d: %w", req.ID, err)
			}
			if !resp.OK() {
				return Todo{}, fmt.Errorf("fetch todo %d: %w: status %d", req.ID, ErrUpstream, resp.StatusCode)
			}

			var todo Todo
			if err := resp.Decode(&todo); err != nil {
				return Todo{}, fmt.Errorf("decode todo %d: %w", req.ID, err)
			}
			return todo, nil
		}
	}
}
