package natours

import (
	"fmt"
	"log"
	"time"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

// Response is the final output of a pipeline. A nil Obj sends no body.
type Response struct {
	Code int // HTTP status code
	Obj  any // JSON response data
}

// StageError is the network response for a failed stage.
type StageError struct {
	Code int // HTTP status code
	Obj  any // JSON response data
	Err  error
}

// Message returns the JSend message of the error response, if any.
func (e *StageError) Message() string {
	if h, ok := e.Obj.(H); ok {
		if msg, ok := h["message"].(string); ok {
			return msg
		}
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

type Logger interface {
	LogMessage(msg string)
	LogStageStart(print string, in any)
	LogStageComplete(success bool, elapsed time.Duration, print string, out any)
	LogStageError(e *StageError)
}

// DefaultLogger prints a coloured trace of every stage. It is meant for
// development consoles; see package logging for structured output.
type DefaultLogger struct{}

func (l DefaultLogger) LogMessage(msg string) {
	log.Print(msg)
}

func (l DefaultLogger) LogStageStart(print string, in any) {
	// Ignore
}

func (l DefaultLogger) LogStageComplete(success bool, elapsed time.Duration, print string, out any) {

	// Column 1: Success or failure
	lbl := color.New(color.FgWhite).Add(color.BgGreen).Sprintf(" OK  ")
	if !success {
		lbl = color.New(color.FgWhite).Add(color.BgRed).Sprintf(" ERR ")
	}

	// Column 2: Time elapsed
	tclr := color.New(color.FgWhite, color.Faint)
	if elapsed > time.Millisecond {
		tclr = color.New(color.FgWhite).Add(color.BgCyan)
	}
	took := tclr.Sprintf("%13v", elapsed)

	// Column 3: Stage print
	log.Print("|" + lbl + "| " + took + " | " + print)
}

func (l DefaultLogger) LogStageError(e *StageError) {
	log.Printf("")
	log.Printf("Error %d: %s", e.Code, e.Message())
	log.Printf("")
}

// Execute runs every stage of ch in order and returns the output of the last
// one, or the network error of the first stage that fails.
func Execute(ch *Chain, c *gin.Context, lgr Logger) (any, *StageError) {
	if ch == nil {
		return nil, nil
	}

	if lgr != nil {
		lgr.LogMessage("Starting execution chain...")
	}

	s := ch.First
	var d any // Data passed between successive stages
	var e *StageError

	// Execute all stages
	for s != nil {

		if lgr != nil {
			lgr.LogStageStart(s.print(), d)
		}

		t := time.Now()

		d, e = s.Execute(d, c, lgr)

		if lgr != nil {
			lgr.LogStageComplete(e == nil, time.Since(t), s.print(), d)
			if e != nil {
				lgr.LogStageError(e)
			}
		}

		if e != nil {
			return nil, e
		}

		s = s.n
	}

	return d, nil
}

// Execute executes the stage by calling the F function followed by the E function if there's an error.
func (s *Stage) Execute(in any, c *gin.Context, lgr Logger) (any, *StageError) {

	out, err := s.F(in, c, lgr)
	if err != nil {
		if s.E == nil {
			return nil, Translate(err, ModeOf(c))
		}
		return nil, s.E(err)
	}

	return out, nil
}

func (s *Stage) print() string {
	if s.P == nil {
		return "  => ? =>"
	}
	return s.P()
}

// MakeGinHandlerFunc wraps ch as a gin handler. ch must end in a stage that
// outputs a *Response.
func MakeGinHandlerFunc(ch *Chain, lgr Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, e := Execute(ch, c, lgr)
		if e != nil {
			respondError(c, e)
			return
		}
		respond(c, o)
	}
}

func respond(c *gin.Context, o any) {
	res, ok := o.(*Response)
	if !ok {
		respondError(c, Translate(fmt.Errorf("pipeline ended with %T, not *Response", o), ModeOf(c)))
		return
	}
	if res.Obj == nil {
		c.Status(res.Code)
		return
	}
	c.JSON(res.Code, res.Obj)
}

func respondError(c *gin.Context, e *StageError) {
	if e.Err != nil {
		_ = c.Error(e.Err)
	}
	c.AbortWithStatusJSON(e.Code, e.Obj)
}
