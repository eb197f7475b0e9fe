package natours

import "github.com/gin-gonic/gin"

// Stage is one step of a request pipeline. F receives the previous stage's
// output and returns its own; the first stage receives nil. When F fails, E
// turns the error into the JSend response; a nil E falls back to Translate.
// P is the printout logged when the stage completes.
//
// The last stage of a route's pipeline must output a *Response.
type Stage struct {
	P func() string
	F func(any, *gin.Context, Logger) (any, error)
	E func(error) *StageError
	n *Stage // next
	l *Stage // previous
}

// Chain wraps the stage in a pipeline of its own.
func (s *Stage) Chain() *Chain {
	return First(s)
}

// Chain is a linked run of stages.
type Chain struct {
	First *Stage
	Last  *Stage
}

// First starts a pipeline. Stages are linked in place, so a Stage belongs to
// exactly one chain:
//
//	pipe := natours.First(
//		natours.URLParam("id")).Then(
//		natours.FindOne("tours")).Then(
//		natours.Document(http.StatusOK))
func First(s *Stage) *Chain {
	return &Chain{First: s, Last: s}
}

// Then appends n to the chain.
func (ch *Chain) Then(n *Stage) *Chain {
	ch.link(n, n)
	return ch
}

func (ch *Chain) link(first, last *Stage) {
	ch.Last.n = first
	first.l = ch.Last
	ch.Last = last
}

// Catch replaces the error response of the chain's last stage:
//
//	natours.First(
//		natours.URLParam("year")).Then(
//		natours.ToYear()).Catch(http.StatusBadRequest, "Invalid year")
func (ch *Chain) Catch(code int, message string) *Chain {
	ch.Last.E = func(err error) *StageError {
		se := Fail(code, message)
		se.Err = err
		return se
	}
	return ch
}

// Append joins chains end to end into the first one. It returns nil when
// there are none.
func Append(chains ...*Chain) *Chain {
	if len(chains) == 0 {
		return nil
	}
	ch := chains[0]
	for _, next := range chains[1:] {
		ch.link(next.First, next.Last)
	}
	return ch
}
