package natours

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/aasimohyeah/natours/apifeatures"
)

func init() {
	// report fields by their JSON names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Bind decodes and validates the JSON body into a fresh value from newObj.
func Bind(newObj func() any) *Stage {
	return &Stage{

		P: func() string {
			return "Req.Body =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			obj := newObj()
			err := c.ShouldBindJSON(obj)
			if err != nil {
				return nil, err
			}
			return obj, nil
		},

		E: bodyError,
	}
}

// BindPatch decodes the JSON body into a map of the fields to change and
// checks each one against schema.
func BindPatch(schema apifeatures.Schema, readOnly ...string) *Stage {
	return &Stage{

		P: func() string {
			return "Req.Body(patch) =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			var body map[string]any
			if err := c.ShouldBindJSON(&body); err != nil {
				return nil, err
			}

			patch := make(map[string]any, len(body))
			for field, v := range body {
				for _, ro := range readOnly {
					if field == ro {
						return nil, &apifeatures.ClientQueryError{Param: field, Value: v, Reason: "read-only field"}
					}
				}
				checked, err := schema.CheckValue(field, v)
				if err != nil {
					return nil, err
				}
				patch[field] = checked
			}
			return patch, nil
		},

		E: bodyError,
	}
}

func bodyError(err error) *StageError {
	var (
		validErrs validator.ValidationErrors
		queryErr  *apifeatures.ClientQueryError
		tooLarge  *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		se := Fail(BR, "Invalid request: empty body")
		se.Err = err
		return se
	case errors.As(err, &validErrs):
		se := Fail(BR, validationMessage(validErrs))
		se.Err = err
		return se
	case errors.As(err, &queryErr):
		se := Fail(BR, "Invalid input data. "+queryErr.Error())
		se.Err = err
		return se
	case errors.As(err, &tooLarge):
		se := Fail(http.StatusRequestEntityTooLarge, "Request body too large")
		se.Err = err
		return se
	}
	se := Fail(BR, "Invalid request: "+err.Error())
	se.Err = err
	return se
}

func URLParam(key string) *Stage {
	return &Stage{

		P: func() string {
			return "Req.URL(\"" + key + "\") =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			return c.Param(key), nil
		},
	}
}

func QueryParam(key string) *Stage {
	return &Stage{

		P: func() string {
			return "Req.Query(\"" + key + "\") =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			return c.Query(key), nil
		},
	}
}

// QueryParams outputs the request's decoded query string as
// apifeatures.RawParameters, including values set by Alias.
func QueryParams() *Stage {
	return &Stage{

		P: func() string {
			return "Req.Query =>"
		},

		F: func(in any, c *gin.Context, lgr Logger) (any, error) {
			return requestParams(c)
		},
	}
}
