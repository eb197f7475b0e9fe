package natours_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/apifeatures"
	"github.com/aasimohyeah/natours/memstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func value(v any) *natours.Stage {
	return natours.S("value", func(any, *gin.Context, natours.Logger) (any, error) { return v, nil })
}

func add(n int) *natours.Stage {
	return natours.S(fmt.Sprintf("add(%d)", n), func(in any, _ *gin.Context, _ natours.Logger) (any, error) {
		return in.(int) + n, nil
	})
}

func failing(err error) *natours.Stage {
	return &natours.Stage{
		F: func(any, *gin.Context, natours.Logger) (any, error) { return nil, err },
	}
}

type recordingLogger struct {
	completed []bool
	errors    []*natours.StageError
}

func (l *recordingLogger) LogMessage(string)         {}
func (l *recordingLogger) LogStageStart(string, any) {}
func (l *recordingLogger) LogStageComplete(ok bool, _ time.Duration, _ string, _ any) {
	l.completed = append(l.completed, ok)
}
func (l *recordingLogger) LogStageError(e *natours.StageError) { l.errors = append(l.errors, e) }

func TestExecutePassesOutputAlong(t *testing.T) {
	c, _ := testContext("/")
	lgr := &recordingLogger{}

	out, e := natours.Execute(natours.First(value(1)).Then(add(2)).Then(add(3)), c, lgr)
	require.Nil(t, e)
	assert.Equal(t, 6, out)
	assert.Equal(t, []bool{true, true, true}, lgr.completed)
}

func TestExecuteStopsAtFirstError(t *testing.T) {
	c, _ := testContext("/")
	lgr := &recordingLogger{}
	ran := false
	last := natours.S("last", func(in any, _ *gin.Context, _ natours.Logger) (any, error) {
		ran = true
		return in, nil
	})

	_, e := natours.Execute(natours.First(value(1)).Then(failing(natours.ErrNotFound)).Then(last), c, lgr)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusNotFound, e.Code)
	assert.False(t, ran)
	assert.Equal(t, []bool{true, false}, lgr.completed)
	assert.Len(t, lgr.errors, 1)
}

func TestExecuteNilChain(t *testing.T) {
	out, e := natours.Execute(nil, nil, nil)
	assert.Nil(t, out)
	assert.Nil(t, e)
}

func TestAppend(t *testing.T) {
	c, _ := testContext("/")
	ch := natours.Append(natours.First(value(1)).Then(add(1)), natours.First(add(10)), natours.First(add(100)))

	out, e := natours.Execute(ch, c, nil)
	require.Nil(t, e)
	assert.Equal(t, 112, out)
	assert.Nil(t, natours.Append())
}

func TestCatch(t *testing.T) {
	c, _ := testContext("/")
	ch := natours.First(value(1)).Then(failing(errors.New("boom"))).Catch(http.StatusTeapot, "no tea")

	_, e := natours.Execute(ch, c, nil)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusTeapot, e.Code)
	assert.Equal(t, "no tea", e.Message())
	assert.Equal(t, "fail", e.Obj.(natours.H)["status"])
}

func TestCatchPrefix(t *testing.T) {
	c, _ := testContext("/")

	_, e := natours.Execute(natours.First(failing(natours.ErrNotFound).CatchPrefix("Tour")), c, nil)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusNotFound, e.Code)
	assert.Equal(t, "Tour: No document found with that ID", e.Message())

	s := failing(natours.ErrNotFound)
	assert.Same(t, s, s.CatchPrefix(""))
}

func TestIf(t *testing.T) {
	isOdd := func(in any, _ *gin.Context) bool { return in.(int)%2 == 1 }
	c, _ := testContext("/")

	out, e := natours.Execute(natours.First(value(1)).Then(
		natours.If(isOdd, natours.First(value("odd")), natours.First(value("even")))), c, nil)
	require.Nil(t, e)
	assert.Equal(t, "odd", out)

	out, e = natours.Execute(natours.First(value(2)).Then(
		natours.If(isOdd, natours.First(value("odd")), nil)), c, nil)
	require.Nil(t, e)
	assert.Equal(t, 2, out, "a nil branch passes the input through")
}

func TestIfPropagatesNestedError(t *testing.T) {
	c, _ := testContext("/")
	always := func(any, *gin.Context) bool { return true }
	nested := natours.First(failing(errors.New("x"))).Catch(http.StatusConflict, "nested")

	_, e := natours.Execute(natours.First(natours.If(always, nested, nil)), c, nil)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusConflict, e.Code)
	assert.Equal(t, "nested", e.Message())
}

func TestInParallel(t *testing.T) {
	c, _ := testContext("/")
	c.Set("n", 5)

	ch := natours.InParallel(
		natours.First(natours.CtxGet("n")).Then(add(1)),
		natours.First(natours.CtxGet("n")).Then(add(2)),
	)
	out, e := natours.Execute(ch, c, nil)
	require.Nil(t, e)
	assert.Equal(t, []any{6, 7}, out)

	ch = natours.InParallel(
		natours.First(natours.CtxGet("n")),
		natours.First(natours.CtxGet("missing")),
	)
	_, e = natours.Execute(ch, c, nil)
	require.NotNil(t, e)
	assert.Equal(t, http.StatusInternalServerError, e.Code)
	assert.Equal(t, "Key not found: missing", e.Message())
}

func TestCtxSetAndGet(t *testing.T) {
	c, _ := testContext("/")

	out, e := natours.Execute(natours.First(value("v")).Then(natours.CtxSet("k")).Then(value(nil)).Then(natours.CtxGet("k")), c, nil)
	require.Nil(t, e)
	assert.Equal(t, "v", out)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"not found", fmt.Errorf("db: %w", natours.ErrNotFound), http.StatusNotFound, "No document found with that ID"},
		{"cast", &natours.CastError{Path: "_id", Value: "xyz"}, http.StatusBadRequest, "Invalid _id: xyz"},
		{"duplicate", &natours.DuplicateError{Field: "name", Value: "The Forest Hiker"}, http.StatusBadRequest,
			"Duplicate field value: 'The Forest Hiker'. Please use another value!"},
		{"duplicate without key", &natours.DuplicateError{}, http.StatusBadRequest, "Duplicate field value. Please use another value!"},
		{"query", &apifeatures.ClientQueryError{Param: "price", Value: "abc", Reason: "not a number"}, http.StatusBadRequest,
			"Invalid price: abc (not a number)"},
		{"app error", natours.NewAppError(http.StatusForbidden, "Not yours"), http.StatusForbidden, "Not yours"},
		{"not implemented", natours.ErrNotImplemented, http.StatusNotImplemented, "This feature is not available"},
		{"body too large", &http.MaxBytesError{Limit: 10}, http.StatusRequestEntityTooLarge, "Request body too large"},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, "Something went wrong!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			se := natours.Translate(tt.err, natours.Production)
			assert.Equal(t, tt.code, se.Code)
			assert.Equal(t, tt.message, se.Message())
			assert.NotContains(t, se.Obj.(natours.H), "error")
			assert.Same(t, tt.err, se.Err)
		})
	}
}

func TestTranslateDevelopment(t *testing.T) {
	se := natours.Translate(errors.New("connection reset"), natours.Development)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "error", se.Obj.(natours.H)["status"])
	assert.Equal(t, "Something went wrong!", se.Message())
	assert.Equal(t, "connection reset", se.Obj.(natours.H)["error"])

	se = natours.Translate(natours.ErrNotFound, natours.Development)
	assert.Equal(t, "No document found with that ID", se.Message())
	assert.Equal(t, natours.ErrNotFound.Error(), se.Obj.(natours.H)["error"])
}

func TestErrorSentinels(t *testing.T) {
	assert.ErrorIs(t, &natours.CastError{Path: "_id", Value: "1"}, natours.ErrInvalidID)
	assert.ErrorIs(t, fmt.Errorf("insert: %w", &natours.DuplicateError{}), natours.ErrDuplicate)
	assert.NotErrorIs(t, &natours.CastError{}, natours.ErrDuplicate)
}

func TestModeOf(t *testing.T) {
	c, _ := testContext("/")
	assert.Equal(t, natours.Production, natours.ModeOf(c))
	assert.Equal(t, natours.Production, natours.ModeOf(nil))

	natours.UseMode(natours.Development)(c)
	assert.Equal(t, natours.Development, natours.ModeOf(c))
}

func newListRouter(t *testing.T) *gin.Engine {
	t.Helper()
	coll := memstore.New()
	for i, name := range []string{"a", "b", "c"} {
		_, err := coll.Insert(context.Background(), apifeatures.Record{
			"name":      name,
			"price":     float64(100 * (i + 1)),
			"createdAt": fmt.Sprintf("2024-01-0%dT00:00:00Z", i+1),
		})
		require.NoError(t, err)
	}

	r := gin.New()
	g := r.Group("/items", natours.UseCollection("items", coll))
	natours.AddRoute(g, &natours.Route{
		HttpMethod: http.MethodGet,
		Pipe:       natours.FindMany("items", apifeatures.WithSchema(apifeatures.Schema{"price": apifeatures.Number})),
	})
	natours.AddRoute(g, &natours.Route{
		HttpMethod:   http.MethodGet,
		RelativePath: "/cheapest",
		Pipe:         natours.FindMany("items"),
	}, natours.Alias(map[string]string{"sort": "price", "limit": "1"}))
	return r
}

func get(t *testing.T, r http.Handler, target string) (int, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func names(body map[string]any) []any {
	var out []any
	for _, d := range body["data"].(map[string]any)["data"].([]any) {
		out = append(out, d.(map[string]any)["name"])
	}
	return out
}

func TestFindMany(t *testing.T) {
	r := newListRouter(t)

	code, body := get(t, r, "/items")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 3.0, body["results"])
	assert.NotContains(t, body, "total")
	assert.Equal(t, []any{"c", "b", "a"}, names(body))

	code, body = get(t, r, "/items?price[lt]=300&sort=name&page=2&limit=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["results"])
	assert.Equal(t, 2.0, body["total"])
	assert.Equal(t, []any{"b"}, names(body))

	code, body = get(t, r, "/items?page=9")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["results"])
	assert.Equal(t, []any{}, body["data"].(map[string]any)["data"])

	code, body = get(t, r, "/items?price=cheap")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "fail", body["status"])
}

func TestAlias(t *testing.T) {
	r := newListRouter(t)

	code, body := get(t, r, "/items/cheapest?sort=-price&limit=10")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []any{"a"}, names(body))
}

func TestNotFound(t *testing.T) {
	r := gin.New()
	r.NoRoute(natours.NotFound())

	code, body := get(t, r, "/nowhere")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "Can't find /nowhere on this server!", body["message"])
}

func TestResponseMustEndPipeline(t *testing.T) {
	r := gin.New()
	natours.AddRoute(r, &natours.Route{HttpMethod: http.MethodGet, RelativePath: "/", Pipe: natours.First(value(1))})

	code, body := get(t, r, "/")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Something went wrong!", body["message"])
}

func TestStageName(t *testing.T) {
	assert.Equal(t, `  => my_stage_name(["ctxVar"]) => ["newCtxVar"]`,
		natours.StageName(true, "my_stage_name", []string{"ctxVar"}, []string{"newCtxVar"}, false))
	assert.Equal(t, `FindOne(["tours"]) =>`, natours.StageName(false, "FindOne", []string{"tours"}, nil, true))
	assert.Equal(t, `InParallel()`, natours.FuncStr("InParallel"))
	assert.Equal(t, `f(["a"], ["b"])`, natours.FuncStr("f", "a", "b"))
	assert.Equal(t, ` => ["x"], ["y"]`, natours.CtxOutStr("x", "y"))
	assert.Empty(t, natours.CtxOutStr())
}
