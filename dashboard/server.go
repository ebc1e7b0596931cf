package dashboard

import (
	"context"
	"crypto/subtle"
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexandrut83/alerimpool/blockchain"
	"github.com/alexandrut83/alerimpool/clarity"
	"github.com/alexandrut83/alerimpool/pool"
)

//go:embed templates/*.html
var templatesFS embed.FS

// InfoSource reports the state of the node.
type InfoSource interface {
	GetInfo(ctx context.Context) (*blockchain.ChainInfo, error)
}

// Options configures the HTTP server.
type Options struct {
	Listen      string
	Token       string
	CORSOrigins []string
}

// Server is the dashboard HTTP server.
type Server struct {
	opts      Options
	d         *pool.Dispatcher
	refresher *Refresher
	hub       *Hub
	node      InfoSource
	router    *gin.Engine
}

// NewServer wires the routes.
func NewServer(opts Options, d *pool.Dispatcher, refresher *Refresher, node InfoSource) *Server {
	s := &Server{
		opts:      opts,
		d:         d,
		refresher: refresher,
		hub:       NewHub(refresher),
		node:      node,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.opts.Listen, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		logger.Infof("Starting dashboard on %s", s.opts.Listen)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	origins := s.opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	corsConfig := cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 1 && origins[0] == "*" {
		corsConfig.AllowOrigins = nil
		corsConfig.AllowAllOrigins = true
	}
	router.Use(cors.New(corsConfig))

	router.SetHTMLTemplate(template.Must(template.New("").ParseFS(templatesFS, "templates/*.html")))

	router.GET("/", s.handleIndex)
	router.GET("/tables/:name", s.handleTablePage)
	router.GET("/ws", s.hub.ServeWS)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/info", s.handleInfo)
		api.GET("/stats", s.handleStats)
		api.GET("/status/:address", s.handleStatus)
		api.GET("/tables", s.handleTableList)
		api.GET("/tables/:name", s.handleTable)
		api.GET("/remaining-blocks", s.handleRemainingBlocks)
		api.GET("/notifier", s.handleNotifier)
		api.POST("/miners/:address/propose-removal", s.authMiddleware(), s.handleProposeRemoval)
		api.GET("/miners/:address/info", s.handleMinerInfo)
	}
	return router
}

// authMiddleware admits requests carrying the configured bearer token.
// Without a configured token every action is refused.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.opts.Token == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Actions are disabled"})
			return
		}
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No authorization token provided"})
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.opts.Token)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization token"})
			return
		}
		c.Next()
	}
}

// errorStatus maps an error onto an HTTP status.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, pool.ErrNotSignedIn):
		return http.StatusUnauthorized
	case errors.Is(err, pool.ErrInfoDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(errorStatus(err), gin.H{"error": err.Error()})
}

func (s *Server) info(ctx context.Context) Info {
	cfg := s.d.Config()
	info := Info{
		Network:  string(cfg.Network()),
		Contract: cfg.Contract().ID(),
		SignedIn: s.d.Session().IsUserSignedIn(),
	}
	if sender, err := s.d.Sender(); err == nil {
		info.Sender = sender
	}
	chain, err := s.node.GetInfo(ctx)
	if err != nil {
		info.NodeError = err.Error()
		return info
	}
	info.StacksTipHeight = chain.StacksTipHeight
	info.BurnBlockHeight = chain.BurnBlockHeight
	info.ServerVersion = chain.ServerVersion
	return info
}

func (s *Server) handleHealth(c *gin.Context) {
	info, err := s.node.GetInfo(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "stacks_tip_height": info.StacksTipHeight})
}

func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.info(c.Request.Context()))
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tables":      s.refresher.Stats().GetStats(),
		"pacer":       s.refresher.Pacer().GetStats(),
		"subscribers": s.hub.Count(),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	address := c.Param("address")
	if _, err := clarity.PrincipalArg(address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := s.d.AddressStatus(c.Request.Context(), address)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"address": address, "status": status})
}

func (s *Server) handleTableList(c *gin.Context) {
	names := make([]gin.H, 0, len(s.refresher.Tables()))
	for _, t := range s.refresher.Tables() {
		names = append(names, gin.H{"name": t.Name, "title": t.Title})
	}
	c.JSON(http.StatusOK, names)
}

// snapshot returns the cached table, fetching it when missing or when the
// request asks for a refresh.
func (s *Server) snapshot(c *gin.Context) (*Snapshot, bool) {
	name := c.Param("name")
	if _, ok := s.refresher.table(name); !ok {
		return nil, false
	}
	if c.Query("refresh") == "" {
		if snap, ok := s.refresher.Snapshot(name); ok {
			return snap, true
		}
	}
	snap, _ := s.refresher.RefreshTable(c.Request.Context(), name)
	return snap, snap != nil
}

func (s *Server) handleTable(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown table"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleRemainingBlocks(c *gin.Context) {
	blocks, err := s.d.RemainingBlocksUntilJoin(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"remaining_blocks": blocks})
}

func (s *Server) handleNotifier(c *gin.Context) {
	ctx := c.Request.Context()
	election, err := s.d.NotifierElection(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	notifier, err := s.d.Notifier(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	k, err := s.d.K(ctx)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifier": notifier, "k": k, "election": election})
}

func (s *Server) handleProposeRemoval(c *gin.Context) {
	address := c.Param("address")
	if _, err := clarity.PrincipalArg(address); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	txid, err := s.d.ProposeRemoval(c.Request.Context(), address)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"txid": txid})
}

func (s *Server) handleMinerInfo(c *gin.Context) {
	_, err := s.d.MinerInfo(c.Request.Context(), c.Param("address"))
	abortWithError(c, err)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Info":   s.info(c.Request.Context()),
		"Tables": s.refresher.Tables(),
	})
}

func (s *Server) handleTablePage(c *gin.Context) {
	snap, ok := s.snapshot(c)
	if !ok {
		c.String(http.StatusNotFound, "unknown table")
		return
	}
	c.HTML(http.StatusOK, "table.html", gin.H{
		"Info":     s.info(c.Request.Context()),
		"Snapshot": snap,
	})
}
