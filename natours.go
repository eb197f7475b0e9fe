// Package natours is the request pipeline of the Natours API: handlers are
// chains of small stages, each turning the previous stage's output into its
// own, with every failure mapped to a JSend error response.
//
//	route := &natours.Route{
//		HttpMethod:   http.MethodGet,
//		RelativePath: "/:id",
//		Pipe: natours.First(
//			natours.URLParam("id")).Then(
//			natours.FindOne("tours")).Then(
//			natours.Document(http.StatusOK)),
//	}
//
// Storage is reached through the Collection stored in the gin context by
// UseCollection; the list stages refine it with package apifeatures.
package natours

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type H map[string]any

var (
	BR  = http.StatusBadRequest
	ISR = http.StatusInternalServerError
)

var ErrCtxKeyNotFound = errors.New("context key not found")

// S creates a generic stage that executes the given function.
// E's default code is http.StatusBadRequest since that is common.
func S(name string, f func(any, *gin.Context, Logger) (any, error)) *Stage {

	return &Stage{
		P: func() string {
			return name
		},
		F: f,
		E: func(err error) *StageError {
			se := Fail(BR, err.Error())
			se.Err = err
			return se
		},
	}
}

func CtxGet(key string) *Stage {
	return &Stage{

		P: func() string {
			return "[\"" + key + "\"] =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			val, ok := c.Get(key)
			if !ok {
				return nil, ErrCtxKeyNotFound
			}
			return val, nil
		},

		E: func(err error) *StageError {
			se := Fail(ISR, "Key not found: "+key)
			se.Err = err
			return se
		},
	}
}

func CtxSet(key string) *Stage {
	return &Stage{

		P: func() string {
			return "  => [\"" + key + "\"]"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			c.Set(key, in)
			return in, nil
		},
	}
}

// CatchPrefix prefixes the message of the stage's error responses.
func (s *Stage) CatchPrefix(errorPrefix string) *Stage {

	if errorPrefix == "" {
		return s
	}

	catch := s.E
	s.E = func(err error) *StageError {
		var stageError *StageError
		if catch != nil {
			stageError = catch(err)
		} else {
			stageError = Translate(err, Production)
		}
		if h, ok := stageError.Obj.(H); ok {
			h["message"] = errorPrefix + ": " + stageError.Message()
		}
		return stageError
	}

	return s
}
