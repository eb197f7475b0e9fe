package natours

import "github.com/gin-gonic/gin"

// ChainExecutionError carries the network error of a nested chain.
type ChainExecutionError struct {
	StageError *StageError
}

func (e ChainExecutionError) Error() string {
	return "chain execution error: " + e.StageError.Message()
}

// If runs then when cond holds and els otherwise. Nested chains start with a
// nil input; pass data to them through the context with CtxSet and CtxGet.
// A nil branch passes the input through.
func If(cond func(any, *gin.Context) bool, then *Chain, els *Chain) *Stage {
	return &Stage{

		P: func() string {
			if then != nil && els == nil {
				return "If => then"
			}
			return "If => then/else"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {

			var ch *Chain
			if cond(in, c) {
				ch = then
			} else {
				ch = els
			}

			if ch == nil {
				return in, nil
			}

			o, e := Execute(ch, c, lgr)
			if e != nil {
				return nil, ChainExecutionError{StageError: e}
			}
			return o, nil
		},

		E: nestedError,
	}
}

func nestedError(err error) *StageError {
	if ce, ok := err.(ChainExecutionError); ok {
		return ce.StageError
	}
	return Translate(err, Production)
}

// HasQueryParam is an If condition true when the request's query string
// carries key.
func HasQueryParam(key string) func(any, *gin.Context) bool {
	return func(_ any, c *gin.Context) bool {
		params, err := requestParams(c)
		if err != nil {
			return false
		}
		_, ok := params[key]
		return ok
	}
}
