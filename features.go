package natours

import (
	"maps"

	"github.com/gin-gonic/gin"

	"github.com/aasimohyeah/natours/apifeatures"
)

const ctxParamsKey = "natours.params"

// Alias presets query-string values for a route, overriding what the client
// sent, e.g. a "top 5 cheapest" shortcut over the list endpoint.
func Alias(preset map[string]string) gin.HandlerFunc {
	return func(c *gin.Context) {
		params, err := requestParams(c)
		if err != nil {
			respondError(c, Translate(err, ModeOf(c)))
			return
		}
		params = maps.Clone(params)
		for k, v := range preset {
			params[k] = v
		}
		c.Set(ctxParamsKey, params)
		c.Next()
	}
}

func requestParams(c *gin.Context) (apifeatures.RawParameters, error) {
	if v, ok := c.Get(ctxParamsKey); ok {
		if params, ok := v.(apifeatures.RawParameters); ok {
			return params, nil
		}
	}
	params, err := apifeatures.ParseQuery(c.Request.URL.Query())
	if err != nil {
		return nil, err
	}
	c.Set(ctxParamsKey, params)
	return params, nil
}

// Features refines the collection's executor with in, the request's
// apifeatures.RawParameters, and outputs the resulting executor.
func Features(ctxCollectionName string, opts ...apifeatures.Option) *Stage {
	return &Stage{

		P: func() string {
			return StageName(true, "Features", []string{ctxCollectionName}, nil, true)
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			coll, err := collectionFrom(c, ctxCollectionName)
			if err != nil {
				return nil, err
			}
			params, ok := in.(apifeatures.RawParameters)
			if !ok {
				if params, err = requestParams(c); err != nil {
					return nil, err
				}
			}
			return apifeatures.Apply(coll.Find(), params, opts...)
		},
	}
}

// RunQuery executes the executor in and outputs its records.
func RunQuery() *Stage {
	return &Stage{

		P: func() string {
			return "  => RunQuery() =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			q, ok := in.(apifeatures.Executor)
			if !ok {
				return nil, &AppError{StatusCode: ISR, Message: "RunQuery: input is not an executor"}
			}
			return q.Execute(c.Request.Context())
		},
	}
}

// CountQuery outputs the number of records matching the executor's filter.
// Executors that cannot count output -1.
func CountQuery() *Stage {
	return &Stage{

		P: func() string {
			return "  => CountQuery() =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			counter, ok := in.(apifeatures.Counter)
			if !ok {
				return int64(-1), nil
			}
			return counter.Count(c.Request.Context())
		},
	}
}
