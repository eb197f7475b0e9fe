package natours

import "github.com/gin-gonic/gin"

type Route struct {
	HttpMethod   string
	RelativePath string
	Pipe         *Chain
	Logger       Logger
}

// AddRoute registers route on any gin router or group.
func AddRoute(r gin.IRoutes, route *Route, middleware ...gin.HandlerFunc) {
	handlers := append(append([]gin.HandlerFunc{}, middleware...), route.Handler())
	r.Handle(route.HttpMethod, route.RelativePath, handlers...)
}

func (r *Route) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.Run(c)
	}
}

// Run runs the route's Pipe and sets the network response based on the run results.
func (r *Route) Run(c *gin.Context) {

	o, e := Execute(r.Pipe, c, r.Logger)
	if e != nil {
		respondError(c, e)
		return
	}

	respond(c, o)
}
