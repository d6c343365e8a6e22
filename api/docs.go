package api

import (
	"html/template"
	"net/http"

	"github.com/swaggo/swag"

	"github.com/vortex-fintech/supvx2/api/docs"
	apperr "github.com/vortex-fintech/supvx2/errors"
	"github.com/vortex-fintech/supvx2/logger"
)

const (
	openAPIPath = "/openapi.json"
	docsPath    = "/docs"
	redocPath   = "/redoc"
)

var swaggerUI = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html>
<head>
<link type="text/css" rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
<title>{{.Title}} - Swagger UI</title>
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
const ui = SwaggerUIBundle({
    url: '{{.SpecURL}}',
    dom_id: '#swagger-ui',
    layout: 'BaseLayout',
    deepLinking: true,
    showExtensions: true,
    showCommonExtensions: true,
    presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
})
</script>
</body>
</html>
`))

var redocUI = template.Must(template.New("redoc").Parse(`<!DOCTYPE html>
<html>
<head>
<title>{{.Title}} - ReDoc</title>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body { margin: 0; padding: 0; }</style>
</head>
<body>
<noscript>ReDoc requires Javascript to function. Please enable it to browse the documentation.</noscript>
<redoc spec-url="{{.SpecURL}}"></redoc>
<script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
</body>
</html>
`))

type docsPage struct {
	Title   string
	SpecURL string
}

func openAPI(log logger.LoggerInterface) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			log.ErrorwCtx(r.Context(), "read openapi document", "err", err)
			apperr.Internal().ToHTTP(w)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(doc))
	}
}

func docsHandler(tmpl *template.Template, log logger.LoggerInterface) http.HandlerFunc {
	page := docsPage{Title: docs.SwaggerInfo.Title, SpecURL: openAPIPath}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, page); err != nil {
			log.ErrorwCtx(r.Context(), "render docs page", "page", tmpl.Name(), "err", err)
		}
	}
}
