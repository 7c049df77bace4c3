package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pubmed-explorer/config"
	"pubmed-explorer/models"
	"pubmed-explorer/services"
	"pubmed-explorer/store"
)

func apiKeyAuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APISecretKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != cfg.APISecretKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized: Invalid API Key"})
			return
		}
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("Request handled",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)))
	}
}

// newRouter builds the HTTP API. /health and /metrics stay outside the API key guard.
func newRouter(cfg *config.Config, st *store.Store, pipeline *services.Pipeline, log *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	router.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		report := services.CheckHealth(ctx, map[string]services.Pinger{
			"database": st,
			"catalog":  pipeline.Provider,
		})
		status := http.StatusOK
		if report.Status != services.StatusHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", apiKeyAuthMiddleware(cfg))
	setupArticleRoutes(api, st, log)
	setupStatsRoutes(api, st, log)
	setupQueryRoutes(api, st, log)
	setupSearchTermRoutes(api, st, log)
	setupETLRoutes(api, cfg, st, pipeline, log)
	return router
}

// intQuery reads an optional positive integer query parameter.
func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return n, nil
}

func setupArticleRoutes(api *gin.RouterGroup, st *store.Store, log *zap.Logger) {
	rg := api.Group("/articles")

	rg.GET("/search", func(c *gin.Context) {
		limit, err := intQuery(c, "limit", 20)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		years, err := store.ParseYearFilter(c.Query("year"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows, err := st.SearchArticles(c.Request.Context(), store.SearchParams{
			Query:   services.SanitizeInput(c.Query("q")),
			Years:   years,
			Journal: services.SanitizeInput(c.Query("journal")),
			Limit:   limit,
		})
		if err != nil {
			log.Error("Article search failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(rows), "articles": rows})
	})

	rg.GET("/recent", func(c *gin.Context) {
		limit, err := intQuery(c, "limit", 10)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		rows, err := st.RecentArticles(c.Request.Context(), limit)
		if err != nil {
			log.Error("Recent articles query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	loadArticle := func(c *gin.Context) (*store.ArticleDetail, bool) {
		pmid, err := services.ValidatePMID(c.Param("pmid"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return nil, false
		}
		article, err := st.GetArticle(c.Request.Context(), pmid)
		if errors.Is(err, store.ErrArticleNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "article not found"})
			return nil, false
		}
		if err != nil {
			log.Error("Loading article failed", zap.Int64("pmid", pmid), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return nil, false
		}
		return article, true
	}

	rg.GET("/:pmid", func(c *gin.Context) {
		if article, ok := loadArticle(c); ok {
			c.JSON(http.StatusOK, article)
		}
	})

	rg.GET("/:pmid/export", func(c *gin.Context) {
		format := strings.ToLower(c.DefaultQuery("format", "json"))
		if format != "json" && format != "csv" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json or csv"})
			return
		}
		article, ok := loadArticle(c)
		if !ok {
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="article-%d.%s"`, article.PMID, format))
		if format == "json" {
			c.JSON(http.StatusOK, article)
			return
		}
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := writeArticleCSV(c.Writer, article); err != nil {
			log.Error("Writing CSV export failed", zap.Int64("pmid", article.PMID), zap.Error(err))
		}
	})
}

var csvHeader = []string{"pmid", "title", "abstract", "publication_year", "journal", "authors", "mesh_terms"}

func writeArticleCSV(w http.ResponseWriter, a *store.ArticleDetail) error {
	var abstract, year, journal string
	if a.Abstract != nil {
		abstract = *a.Abstract
	}
	if a.PublicationYear != nil {
		year = strconv.Itoa(*a.PublicationYear)
	}
	if a.Journal != nil {
		journal = a.Journal.Title
	}
	authors := make([]string, 0, len(a.Authors))
	for _, au := range a.Authors {
		authors = append(authors, au.FullName)
	}

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	_ = cw.Write([]string{
		strconv.FormatInt(a.PMID, 10),
		a.Title,
		abstract,
		year,
		journal,
		strings.Join(authors, "; "),
		strings.Join(a.MeshTerms, "; "),
	})
	cw.Flush()
	return cw.Error()
}

func setupStatsRoutes(api *gin.RouterGroup, st *store.Store, log *zap.Logger) {
	rg := api.Group("/stats")

	rg.GET("", func(c *gin.Context) {
		stats, err := st.Stats(c.Request.Context())
		if err != nil {
			log.Error("Stats query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": stats, "year_range": stats.YearRange()})
	})

	rg.GET("/years", func(c *gin.Context) {
		rows, err := st.ArticlesByYear(c.Request.Context())
		if err != nil {
			log.Error("Articles by year query failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	top := func(name string, fn func(context.Context, int) ([]models.NamedCount, error)) gin.HandlerFunc {
		return func(c *gin.Context) {
			limit, err := intQuery(c, "limit", 10)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			rows, err := fn(c.Request.Context(), limit)
			if err != nil {
				log.Error("Ranking query failed", zap.String("ranking", name), zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
				return
			}
			c.JSON(http.StatusOK, rows)
		}
	}
	rg.GET("/top-journals", top("journals", st.TopJournals))
	rg.GET("/top-authors", top("authors", st.TopAuthors))
	rg.GET("/top-mesh-terms", top("mesh_terms", st.TopMeshTerms))
}

func setupQueryRoutes(api *gin.RouterGroup, st *store.Store, log *zap.Logger) {
	api.POST("/query", func(c *gin.Context) {
		var req struct {
			SQL string `json:"sql" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := services.ValidateReadOnlyQuery(req.SQL); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		rows, err := st.RunReadOnlyQuery(ctx, req.SQL)
		if err != nil {
			log.Warn("Read-only query failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(rows), "rows": rows})
	})
}

func setupSearchTermRoutes(api *gin.RouterGroup, st *store.Store, log *zap.Logger) {
	terms := api.Group("/search-terms")
	terms.GET("", func(c *gin.Context) {
		list, err := st.ListSearchTerms(c.Request.Context())
		if err != nil {
			log.Error("Listing search terms failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
	terms.POST("", func(c *gin.Context) {
		var term models.SearchTerm
		if err := c.ShouldBindJSON(&term); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		clean, err := services.ValidateSearchTerm(term.Term)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		term = models.SearchTerm{Term: clean}
		if err := st.CreateSearchTerm(c.Request.Context(), &term); err != nil {
			log.Warn("Creating search term failed", zap.String("term", clean), zap.Error(err))
			c.JSON(http.StatusConflict, gin.H{"error": "failed to create search term"})
			return
		}
		c.JSON(http.StatusCreated, term)
	})

	filters := api.Group("/search-filters")
	filters.GET("", func(c *gin.Context) {
		list, err := st.ListSearchFilters(c.Request.Context())
		if err != nil {
			log.Error("Listing search filters failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, list)
	})
	filters.POST("", func(c *gin.Context) {
		var filter models.SearchFilter
		if err := c.ShouldBindJSON(&filter); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		filter.ID = 0
		filter.Name = services.SanitizeInput(filter.Name)
		filter.FilterQuery = services.SanitizeInput(filter.FilterQuery)
		if filter.Name == "" || filter.FilterQuery == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name and filter_query are required"})
			return
		}
		if err := st.CreateSearchFilter(c.Request.Context(), &filter); err != nil {
			log.Warn("Creating search filter failed", zap.String("name", filter.Name), zap.Error(err))
			c.JSON(http.StatusConflict, gin.H{"error": "failed to create filter"})
			return
		}
		c.JSON(http.StatusCreated, filter)
	})
}

func setupETLRoutes(api *gin.RouterGroup, cfg *config.Config, st *store.Store, pipeline *services.Pipeline, log *zap.Logger) {
	rg := api.Group("/etl")

	rg.POST("/run", func(c *gin.Context) {
		var req struct {
			Term        string `json:"term"`
			MaxArticles int    `json:"max_articles"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		term, err := services.ValidateSearchTerm(req.Term)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		maxArticles := req.MaxArticles
		if maxArticles == 0 {
			maxArticles = cfg.MaxArticles
		}
		if maxArticles < 0 || maxArticles > 10000 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_articles must be between 1 and 10000"})
			return
		}

		go func() {
			if _, err := pipeline.Run(context.Background(), term, maxArticles); err != nil {
				log.Error("Async pipeline run failed", zap.String("term", term), zap.Error(err))
			}
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": fmt.Sprintf("Run for %q triggered.", term), "max_articles": maxArticles})
	})

	rg.POST("/run-all", func(c *gin.Context) {
		go func() {
			reports, err := pipeline.RunAllSearchTerms(context.Background())
			if err != nil {
				log.Error("Async run for all search terms failed", zap.Error(err))
				return
			}
			log.Info("Async run for all search terms completed", zap.Int("runs", len(reports)))
		}()
		c.JSON(http.StatusAccepted, gin.H{"message": "Run for all search terms triggered."})
	})

	rg.GET("/runs", func(c *gin.Context) {
		limit, err := intQuery(c, "limit", 20)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		runs, err := st.ListRuns(c.Request.Context(), limit)
		if err != nil {
			log.Error("Listing runs failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
			return
		}
		c.JSON(http.StatusOK, runs)
	})
}
