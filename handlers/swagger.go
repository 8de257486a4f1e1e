package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the content API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		// the UI bundle is served from a CDN
		c.Writer.Header().Del("Content-Security-Policy")
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>Content console API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the public endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "content-console", "version": "2.0.0" },
  "paths": {
    "/health": { "get": { "summary": "Liveness and store connection state", "responses": { "200": { "description": "status, uptime, store" } } } },
    "/api/test": { "get": { "summary": "API smoke test", "responses": { "200": { "description": "version and environment summary" } } } },
    "/api/submit": {
      "post": {
        "summary": "Insert a document into a collection",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","required":["collection","data"],"properties":{"collection":{"type":"string","enum":["Artigos","Velonews","Bot_perguntas"]},"data":{"type":"object"}}}}}},
        "responses": { "200": { "description": "id and timestamp" }, "400": { "description": "missing fields or invalid collection" }, "429": { "description": "rate limited" }, "500": { "description": "store failure" } }
      }
    },
    "/api/data/{collection}": {
      "get": {
        "summary": "Most recent documents (max 100, newest first)",
        "parameters": [ { "name": "collection", "in": "path", "required": true, "schema": {"type":"string","enum":["Artigos","Velonews","Bot_perguntas"]} } ],
        "responses": { "200": { "description": "data and count" }, "400": { "description": "invalid collection" }, "429": { "description": "rate limited" } }
      }
    }
  }
}`
