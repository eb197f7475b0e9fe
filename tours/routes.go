package tours

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aasimohyeah/natours"
	"github.com/aasimohyeah/natours/apifeatures"
)

const (
	ctxTours  = "tours"
	ctxTourID = "tours.id"
)

// TopFiveCheap is the query behind GET /top-5-cheap.
var TopFiveCheap = map[string]string{
	apifeatures.ParamLimit:  "5",
	apifeatures.ParamSort:   "-ratingsAverage,price",
	apifeatures.ParamFields: "name,price,ratingsAverage,summary,difficulty",
}

// Register mounts the tour routes under /tours of r, backed by coll.
func Register(r gin.IRouter, coll natours.Collection, lgr natours.Logger) {
	g := r.Group("/tours", natours.UseCollection(ctxTours, coll))

	for _, route := range routes(lgr) {
		natours.AddRoute(g, route)
	}
	natours.AddRoute(g, &natours.Route{
		HttpMethod:   http.MethodGet,
		RelativePath: "/top-5-cheap",
		Pipe:         natours.FindMany(ctxTours, apifeatures.WithSchema(Schema)),
		Logger:       lgr,
	}, natours.Alias(TopFiveCheap))
}

func routes(lgr natours.Logger) []*natours.Route {
	return []*natours.Route{{
		HttpMethod:   http.MethodGet,
		RelativePath: "",
		Pipe:         natours.FindMany(ctxTours, apifeatures.WithSchema(Schema)),
		Logger:       lgr,
	}, {
		HttpMethod:   http.MethodPost,
		RelativePath: "",
		Pipe: natours.First(
			natours.Bind(func() any { return &Tour{} })).Then(
			prepare()).Then(
			natours.InsertOne(ctxTours)).Then(
			natours.Document(http.StatusCreated)),
		Logger: lgr,
	}, {
		HttpMethod:   http.MethodGet,
		RelativePath: "/tour-stats",
		Pipe: natours.First(
			natours.Aggregate(ctxTours, func(any) []natours.H { return StatsPipeline() })).Then(
			natours.Data(http.StatusOK, "stats")),
		Logger: lgr,
	}, {
		HttpMethod:   http.MethodGet,
		RelativePath: "/monthly-plan/:year",
		Pipe: natours.First(
			natours.URLParam("year")).Then(
			natours.ToYear()).Then(
			natours.Aggregate(ctxTours, func(in any) []natours.H {
				return MonthlyPlanPipeline(in.(time.Time).Year())
			})).Then(
			natours.Data(http.StatusOK, "plan")),
		Logger: lgr,
	}, {
		HttpMethod:   http.MethodGet,
		RelativePath: "/:id",
		Pipe: natours.First(
			natours.URLParam("id")).Then(
			natours.FindOne(ctxTours)).Then(
			natours.Document(http.StatusOK)),
		Logger: lgr,
	}, {
		HttpMethod:   http.MethodPatch,
		RelativePath: "/:id",
		Pipe: natours.First(
			natours.URLParam("id")).Then(
			natours.CtxSet(ctxTourID)).Then(
			natours.BindPatch(Schema, ReadOnly...)).Then(
			natours.UpdateOne(ctxTours, ctxTourID)).Then(
			natours.Document(http.StatusOK)),
		Logger: lgr,
	}, {
		HttpMethod:   http.MethodDelete,
		RelativePath: "/:id",
		Pipe: natours.First(
			natours.URLParam("id")).Then(
			natours.DeleteOne(ctxTours)).Then(
			natours.NoContent()),
		Logger: lgr,
	}}
}

func prepare() *natours.Stage {
	return &natours.Stage{

		P: func() string {
			return "  => Prepare() =>"
		},

		F: func(in any, c *gin.Context, lgr natours.Logger) (any, error) {
			t, ok := in.(*Tour)
			if !ok {
				return nil, natours.NewAppError(natours.ISR, "Prepare: input is not a tour")
			}
			t.Prepare(time.Now())
			return t, nil
		},
	}
}
