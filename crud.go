package natours

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aasimohyeah/natours/apifeatures"
)

// FindMany lists the collection refined by the request's query string. When
// the client asks for a page, the total number of matches is counted in
// parallel with the page itself.
func FindMany(ctxCollectionName string, opts ...apifeatures.Option) *Chain {
	queryKey := ctxCollectionName + ".query"

	return First(
		QueryParams()).Then(
		Features(ctxCollectionName, opts...)).Then(
		CtxSet(queryKey)).Then(
		If(HasQueryParam(apifeatures.ParamPage),
			InParallel(
				First(CtxGet(queryKey)).Then(RunQuery()),
				First(CtxGet(queryKey)).Then(CountQuery())),
			First(CtxGet(queryKey)).Then(RunQuery()))).Then(
		List())
}

// FindOne outputs the document whose id is in.
func FindOne(ctxCollectionName string) *Stage {
	return &Stage{

		P: func() string {
			return StageName(true, "FindOne", []string{ctxCollectionName}, nil, true)
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			coll, err := collectionFrom(c, ctxCollectionName)
			if err != nil {
				return nil, err
			}
			return coll.FindByID(c.Request.Context(), idOf(in))
		},
	}
}

// InsertOne stores in and outputs the stored document.
func InsertOne(ctxCollectionName string) *Stage {
	return &Stage{

		P: func() string {
			return StageName(true, "InsertOne", []string{ctxCollectionName}, nil, true)
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			coll, err := collectionFrom(c, ctxCollectionName)
			if err != nil {
				return nil, err
			}
			return coll.Insert(c.Request.Context(), in)
		},
	}
}

// UpdateOne applies the patch in to the document whose id is stored under
// ctxIDName and outputs the updated document.
func UpdateOne(ctxCollectionName string, ctxIDName string) *Stage {
	return &Stage{

		P: func() string {
			return StageName(true, "UpdateOne", []string{ctxCollectionName, ctxIDName}, nil, true)
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			coll, err := collectionFrom(c, ctxCollectionName)
			if err != nil {
				return nil, err
			}
			patch, _ := in.(map[string]any)
			return coll.UpdateByID(c.Request.Context(), c.GetString(ctxIDName), patch)
		},
	}
}

// DeleteOne removes the document whose id is in.
func DeleteOne(ctxCollectionName string) *Stage {
	return &Stage{

		P: func() string {
			return StageName(true, "DeleteOne", []string{ctxCollectionName}, nil, false)
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			coll, err := collectionFrom(c, ctxCollectionName)
			if err != nil {
				return nil, err
			}
			return nil, coll.DeleteByID(c.Request.Context(), idOf(in))
		},
	}
}

// Aggregate runs the pipeline built from in on collections that support
// aggregation. Others answer 501.
func Aggregate(ctxCollectionName string, build func(in any) []H) *Stage {
	return &Stage{

		P: func() string {
			return StageName(true, "Aggregate", []string{ctxCollectionName}, nil, true)
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			coll, err := collectionFrom(c, ctxCollectionName)
			if err != nil {
				return nil, err
			}
			agg, ok := coll.(Aggregator)
			if !ok {
				return nil, ErrNotImplemented
			}
			return agg.Aggregate(c.Request.Context(), build(in))
		},
	}
}

func idOf(in any) string {
	if s, ok := in.(string); ok {
		return s
	}
	return ""
}

// List responds with the records in, and their total when it was counted.
func List() *Stage {
	return &Stage{

		P: func() string {
			return "  => List()"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			var (
				records []apifeatures.Record
				total   int64 = -1
			)
			switch v := in.(type) {
			case []apifeatures.Record:
				records = v
			case []any:
				if len(v) == 2 {
					records, _ = v[0].([]apifeatures.Record)
					total, _ = v[1].(int64)
				}
			}
			if records == nil {
				records = []apifeatures.Record{}
			}

			body := H{
				"status":  "success",
				"results": len(records),
				"data":    H{"data": records},
			}
			if total >= 0 {
				body["total"] = total
			}
			return &Response{Code: http.StatusOK, Obj: body}, nil
		},
	}
}

// Document responds with the single document in.
func Document(code int) *Stage {
	return Data(code, "data")
}

// Data responds with in under data.<name>.
func Data(code int, name string) *Stage {
	return &Stage{

		P: func() string {
			return "  => Data(\"" + name + "\")"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			return &Response{Code: code, Obj: H{
				"status": "success",
				"data":   H{name: in},
			}}, nil
		},
	}
}

// NoContent responds 204 with no body.
func NoContent() *Stage {
	return &Stage{

		P: func() string {
			return "  => NoContent()"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			return &Response{Code: http.StatusNoContent}, nil
		},
	}
}

// NotFound answers requests that matched no route.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		respondError(c, Fail(http.StatusNotFound, "Can't find "+c.Request.URL.RequestURI()+" on this server!"))
	}
}
