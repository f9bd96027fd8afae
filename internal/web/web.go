package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/listview"
	"github.com/Joseda-hg/lazytodo/internal/logging"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/dustin/go-humanize"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(template.New("").Funcs(template.FuncMap{
	"age": func(ts *time.Time) string {
		if ts == nil || ts.IsZero() {
			return "unknown"
		}
		return humanize.Time(*ts)
	},
	"stamp": model.FormatTimestamp,
	"comma": func(n int) string { return humanize.Comma(int64(n)) },
}).ParseFS(templateFS, "templates/index.tmpl"))

type Server struct {
	engine *listview.Engine
	logger *logging.Logger
}

func NewServer(engine *listview.Engine, logger *logging.Logger) *Server {
	return &Server{engine: engine, logger: logger}
}

func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: isLocalOrigin,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type"},
	}))
	r.SetHTMLTemplate(indexTemplate)

	r.GET("/", s.indexHandler)
	v1 := r.Group("/api")
	{
		v1.GET("/todos", s.apiTodosHandler)
		v1.POST("/todos/:id/toggle", s.apiToggleHandler)
		v1.POST("/refresh", s.apiRefreshHandler)
	}
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Infof("web %s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// isLocalOrigin admits pages served from this machine only.
func isLocalOrigin(origin string) bool {
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || host == "::1"
}

type pageLink struct {
	Label   string
	URL     string
	Current bool
}

func (s *Server) indexHandler(c *gin.Context) {
	state := s.stateFromRequest(c)
	result := listview.Derive(s.engine.Todos(), state)

	data := struct {
		State     model.ViewState
		Result    listview.Result
		SortLabel string
		Sorts     []model.SortOrder
		PageSizes []int
		Pages     []pageLink
		Prev      string
		Next      string
		Loaded    bool
	}{
		State:     state,
		Result:    result,
		SortLabel: state.Sort.Label(),
		Sorts:     model.SortOrders,
		PageSizes: model.PageSizes,
		Pages:     pageLinks(state, result),
		Loaded:    s.engine.Loaded(),
	}
	if result.HasPrev {
		data.Prev = pageURL(state, result.Page-1)
	}
	if result.HasNext {
		data.Next = pageURL(state, result.Page+1)
	}

	c.HTML(http.StatusOK, "index.tmpl", data)
}

type todoPage struct {
	Todos      []model.Todo    `json:"todos"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
	Total      int             `json:"total"`
	Pages      []int           `json:"pages"`
	Sort       model.SortOrder `json:"sort"`
	Query      string          `json:"query"`
	Version    int             `json:"version"`
}

func (s *Server) apiTodosHandler(c *gin.Context) {
	state := s.stateFromRequest(c)
	result := listview.Derive(s.engine.Todos(), state)

	todos := result.Items
	if todos == nil {
		todos = []model.Todo{}
	}
	c.JSON(http.StatusOK, todoPage{
		Todos:      todos,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
		Total:      result.Total,
		Pages:      listview.PageNumbers(result.Page, result.TotalPages),
		Sort:       state.Sort,
		Query:      state.Query,
		Version:    s.engine.Version(),
	})
}

func (s *Server) apiToggleHandler(c *gin.Context) {
	id, err := api.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	if err := s.engine.Toggle(c.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, listview.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, listview.ErrBusy):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadGateway, gin.H{"error": api.Message(err)})
		}
		return
	}

	todo, _ := s.engine.Find(id)
	c.JSON(http.StatusOK, todo)
}

func (s *Server) apiRefreshHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	if err := s.engine.Invalidate(ctx); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": api.Message(err)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"version": s.engine.Version(), "total": len(s.engine.Todos())})
}

// stateFromRequest starts from the engine's view state and applies whatever
// the query string overrides. Bad values fall back instead of failing.
func (s *Server) stateFromRequest(c *gin.Context) model.ViewState {
	state := s.engine.State()
	if _, ok := c.GetQuery("q"); ok {
		state.Query = c.Query("q")
	}
	if value := strings.TrimSpace(c.Query("sort")); value != "" {
		if order, err := model.ParseSortOrder(value); err == nil {
			state.Sort = order
		}
	}
	if value := strings.TrimSpace(c.Query("pageSize")); value != "" {
		if size, err := strconv.Atoi(value); err == nil && model.ValidPageSize(size) {
			state.PageSize = size
		}
	}
	if value := strings.TrimSpace(c.Query("page")); value != "" {
		if page, err := strconv.Atoi(value); err == nil {
			state.Page = page
		}
	}
	return state
}

func pageURL(state model.ViewState, page int) string {
	values := url.Values{}
	if state.Query != "" {
		values.Set("q", state.Query)
	}
	values.Set("sort", string(state.Sort))
	values.Set("pageSize", strconv.Itoa(state.PageSize))
	values.Set("page", strconv.Itoa(page))
	return "/?" + values.Encode()
}

func pageLinks(state model.ViewState, result listview.Result) []pageLink {
	numbers := listview.PageNumbers(result.Page, result.TotalPages)
	links := make([]pageLink, 0, len(numbers))
	for _, page := range numbers {
		if page == 0 {
			links = append(links, pageLink{Label: "…"})
			continue
		}
		links = append(links, pageLink{
			Label:   strconv.Itoa(page),
			URL:     pageURL(state, page),
			Current: page == result.Page,
		})
	}
	return links
}
