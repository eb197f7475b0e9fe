package natours

import "github.com/gin-gonic/gin"

type pipeResult struct {
	Out   any
	Error *StageError
}

func runInParallel(ch *Chain, c *gin.Context, r chan<- pipeResult) {
	o, e := Execute(ch, c, nil)
	r <- pipeResult{
		Out:   o,
		Error: e,
	}
}

// InParallel runs every chain concurrently and outputs their results as a
// []any in the order given. The first failing chain, in that order, decides
// the error response.
func InParallel(chains ...*Chain) *Chain {
	return First(&Stage{

		P: func() string {
			return FuncStr("InParallel") + " =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {

			resultChans := make([]chan pipeResult, len(chains))

			for i, ch := range chains {
				chn := make(chan pipeResult, 1)
				go runInParallel(ch, c, chn)
				resultChans[i] = chn
			}

			out := make([]any, len(chains))
			outErr := make([]*StageError, len(chains))

			for i, rc := range resultChans {
				r := <-rc
				out[i] = r.Out
				outErr[i] = r.Error
			}

			for _, e := range outErr {
				if e != nil {
					return nil, ChainExecutionError{StageError: e}
				}
			}

			return out, nil
		},

		E: nestedError,
	})
}
