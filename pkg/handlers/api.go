package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"tibiawiki-api/pkg/infobox"
	"tibiawiki-api/pkg/logging"
	"tibiawiki-api/pkg/models"
	"tibiawiki-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const HeaderEditSummary = "X-WIKI-Edit-Summary"

// API serves one endpoint set per schema in the registry.
type API struct {
	registry  *infobox.Registry
	retriever *services.Retriever
}

func NewAPI(registry *infobox.Registry, retriever *services.Retriever) *API {
	return &API{registry: registry, retriever: retriever}
}

func (a *API) schema(c *gin.Context) (*infobox.Schema, bool) {
	s, ok := a.registry.ByResource(c.Param("resource"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown resource " + strconv.Quote(c.Param("resource"))})
		return nil, false
	}
	return s, true
}

func (a *API) ListSchemas(c *gin.Context) {
	out := make([]models.SchemaInfo, 0, len(a.registry.Schemas))
	for _, s := range a.registry.Schemas {
		info := models.SchemaInfo{Template: s.Template, Resource: s.Resource, Category: s.Category}
		for i := range s.Fields {
			f := &s.Fields[i]
			info.Fields = append(info.Fields, models.FieldInfo{
				Key:      f.Key,
				Type:     string(f.Kind),
				Required: f.Required,
				Values:   f.Spellings(),
				Default:  f.Default,
			})
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

// List returns the article names of a resource, or every parsed record
// with ?expand=true.
func (a *API) List(c *gin.Context) {
	s, ok := a.schema(c)
	if !ok {
		return
	}
	expand := false
	if v := c.Query("expand"); v != "" {
		var err error
		if expand, err = strconv.ParseBool(v); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expand parameter", "value": v})
			return
		}
	}

	if !expand {
		names, err := a.retriever.Names(c.Request.Context(), s)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, names)
		return
	}
	recs, err := a.retriever.Expand(c.Request.Context(), s)
	if err != nil {
		writeError(c, err)
		return
	}
	if recs == nil {
		recs = []*infobox.Record{}
	}
	c.JSON(http.StatusOK, recs)
}

func (a *API) Get(c *gin.Context) {
	s, ok := a.schema(c)
	if !ok {
		return
	}
	rec, err := a.retriever.Record(c.Request.Context(), s, c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// Update writes a JSON record back to its article. The edit summary is taken
// from the X-WIKI-Edit-Summary header.
func (a *API) Update(c *gin.Context) {
	s, ok := a.schema(c)
	if !ok {
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	rec, err := s.DecodeRecord(body)
	if err != nil {
		writeError(c, err)
		return
	}
	if _, err := a.retriever.Update(c.Request.Context(), s, rec, c.GetHeader(HeaderEditSummary)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a *API) Refresh(c *gin.Context) {
	a.retriever.Cache().InvalidateCache()
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func statusOf(err error) int {
	switch {
	case services.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, services.ErrEditRejected),
		errors.Is(err, infobox.ErrMalformedTemplate),
		errors.Is(err, infobox.ErrMissingField),
		errors.Is(err, infobox.ErrUnknownEnumValue),
		errors.Is(err, infobox.ErrInvalidNumber),
		errors.Is(err, infobox.ErrInvalidValue),
		errors.Is(err, infobox.ErrTemplateMismatch):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrBackend):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	body := gin.H{"error": err.Error()}
	var fe *infobox.FieldError
	if errors.As(err, &fe) {
		body["field"] = fe.Field
		if fe.Value != "" {
			body["value"] = fe.Value
		}
	}
	if status >= http.StatusInternalServerError {
		logging.FromContext(c.Request.Context()).Error("request failed", slog.Any("error", err))
	}
	_ = c.Error(err)
	c.JSON(status, body)
}

// CORS allows any origin, as the API is read by browser tools on other hosts.
func CORS(c *gin.Context) {
	h := c.Writer.Header()
	h.Set("Access-Control-Allow-Origin", "*")
	h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization, "+HeaderEditSummary)
	h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS, HEAD")
	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}
	c.Next()
}
