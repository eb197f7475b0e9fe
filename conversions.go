package natours

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ToTime - Converts in to time.Time for the UTC timezone. in must be a string matching the given layout.
func ToTime(layout string) *Stage {
	return &Stage{

		P: func() string {
			return "  => .(time.Time) =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {

			timeString, ok := in.(string)
			if !ok {
				return nil, errors.New("not a string")
			}

			return time.Parse(layout, timeString)
		},

		E: func(err error) *StageError {
			se := Fail(BR, "Invalid: "+err.Error())
			se.Err = err
			return se
		},
	}
}

// ToYear parses in as a four digit year and outputs the first instant of it.
func ToYear() *Stage {
	s := ToTime("2006")
	s.P = func() string { return "  => .(year) =>" }
	s.E = func(err error) *StageError {
		se := Fail(http.StatusBadRequest, "Invalid year")
		se.Err = err
		return se
	}
	return s
}

func FieldValue(key string) *Stage {
	return &Stage{

		P: func() string {
			return "  => Value(\"" + key + "\") =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {

			if m, ok := in.(map[string]any); ok {
				return m[key], nil
			}
			return nil, nil
		},
	}
}
