package api

import (
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	"github.com/emicklei/go-restful/v3"
	"github.com/modelarena/arena/internal/api/middleware"
	"github.com/modelarena/arena/internal/models"
)

func RegisterRoutes(container *restful.Container, handler *Handler) {
	ws := new(restful.WebService)

	ws.
		Path("/api/v1").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	// Health endpoint
	ws.
		Route(ws.GET("health").
			To(handler.Health).
			Doc("Health check").
			Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
			Writes(HealthResponse{}).
			Returns(200, "OK", HealthResponse{}))

	ws.
		Route(ws.POST("/compare").
			To(handler.Compare).
			Doc("Run one comparison round across the requested models").
			Metadata(restfulspec.KeyOpenAPITags, []string{"compare"}).
			Reads(CompareRequest{}).
			Returns(200, "OK", nil).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/results/{session_id}").
			To(handler.GetResults).
			Doc("All agent results for a session, one slot per agent kind").
			Metadata(restfulspec.KeyOpenAPITags, []string{"results"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Param(ws.QueryParameter("thread_id", "Restrict to one thread").DataType("string").Required(false)).
			Writes(ResultsResponse{}).
			Returns(200, "OK", ResultsResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	ws.
		Route(ws.GET("/results/{session_id}/{agent}").
			To(handler.GetAgentResult).
			Doc("One agent kind's result for a session").
			Metadata(restfulspec.KeyOpenAPITags, []string{"results"}).
			Param(ws.PathParameter("session_id", "Session identifier").DataType("string")).
			Param(ws.PathParameter("agent", "Agent kind (evaluator, judge, reflection)").DataType("string")).
			Param(ws.QueryParameter("thread_id", "Restrict to one thread").DataType("string").Required(false)).
			Writes(models.AgentResult{}).
			Returns(200, "OK", models.AgentResult{}).
			Returns(400, "Bad Request", middleware.ErrorResponse{}).
			Returns(404, "Not Found", middleware.ErrorResponse{}).
			Returns(500, "Internal Server Error", middleware.ErrorResponse{}))

	container.Add(ws)
}
