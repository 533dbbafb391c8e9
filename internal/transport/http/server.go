package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfmark/internal/bootstrap"
	"pdfmark/internal/model"
	"pdfmark/internal/transport/http/handler"
	"pdfmark/internal/transport/http/middleware"
	"pdfmark/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.MaxMultipartMemory = 8 << 20
	router.Use(
		gin.Recovery(),
		middleware.RequestLogger(app.Log.Named("http")),
		middleware.Metrics(app.Metrics),
		middleware.CORS(app.Config.App.CORSOrigins),
	)
	router.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, response.CodeRouteNotFound, "route not found")
	})

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(app.Metrics.Handler()))
	if app.LocalFiles != "" {
		router.Static("/files", app.LocalFiles)
	}

	documentHandler := handler.NewDocumentHandler(app.Documents)

	api := router.Group("/api")
	api.POST("/upload", documentHandler.Upload)
	api.GET("/docs", documentHandler.List)
	api.GET("/docs/:docId", documentHandler.Get)

	for _, kind := range model.Kinds {
		markupHandler := handler.NewMarkupHandler(kind, app.Markups)
		collection := api.Group("/docs/:docId/" + kind.Collection())
		collection.GET("", markupHandler.List)
		collection.POST("", markupHandler.Replace)
		collection.POST("/add", markupHandler.Add)
		collection.PUT("/:id", markupHandler.Update)
		collection.DELETE("/:id", markupHandler.Delete)
	}

	return router
}
