package web

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/cors"

	"webregcal/internal/archive"
	"webregcal/internal/config"
	"webregcal/internal/ics"
	appLog "webregcal/internal/log"
	"webregcal/internal/schedule"
)

const maxUploadBytes = 8 << 20

// Server provides the upload UI and the conversion/preview APIs.
type Server struct {
	cfg    *config.Config
	store  *archive.Store
	engine *gin.Engine

	// Conversion results are cached by input hash so an identical
	// upload within the TTL is served without re-running the pipeline
	// (and without a duplicate archive entry).
	cache *gocache.Cache

	// now stamps DTSTAMP on generated events; injectable for tests.
	now func() time.Time
}

// NewServer constructs a Server. debug switches gin out of release
// mode and enables request logging.
func NewServer(cfg *config.Config, store *archive.Store, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ttl := time.Duration(cfg.CacheTTLMinutes) * time.Minute
	s := &Server{
		cfg:   cfg,
		store: store,
		cache: gocache.New(ttl, 2*ttl),
		now:   time.Now,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	if debug {
		engine.Use(gin.Logger())
	}
	s.engine = engine
	s.registerRoutes()
	return s
}

// Handler returns the outer http.Handler: CORS around gin, with basic
// auth when configured. /health always stays unauthenticated.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.engine)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		h = s.basicAuthMiddleware(h)
	}
	return cors.Default().Handler(h)
}

// StartServer runs the HTTP server until ctx is canceled, then shuts
// down gracefully.
func StartServer(ctx context.Context, cfg *config.Config, store *archive.Store, debug bool) error {
	s := NewServer(cfg, store, debug)
	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "debug", debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/", s.handleIndex)
	s.engine.POST("/", s.handleConvert)
	s.engine.POST("/api/preview", s.handlePreview)
	s.engine.GET("/calendars/:id", s.handleDownload)
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="webregcal", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(indexHTML))
}

// conversionInput is one request-sized unit of work for the pipeline.
type conversionInput struct {
	startDate time.Time
	endDate   time.Time
	html      []byte
}

// readConversionForm pulls the term dates and the uploaded document
// out of the multipart form.
func (s *Server) readConversionForm(c *gin.Context) (conversionInput, error) {
	var in conversionInput

	start := c.PostForm("startDate")
	end := c.PostForm("endDate")
	var err error
	if in.startDate, err = time.Parse("2006-01-02", start); err != nil {
		return in, fmt.Errorf("invalid startDate %q", start)
	}
	if in.endDate, err = time.Parse("2006-01-02", end); err != nil {
		return in, fmt.Errorf("invalid endDate %q", end)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return in, errors.New("missing file field")
	}
	if fh.Size > maxUploadBytes {
		return in, fmt.Errorf("file too large (%d bytes)", fh.Size)
	}
	f, err := fh.Open()
	if err != nil {
		return in, err
	}
	defer f.Close()
	in.html, err = io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		return in, err
	}
	return in, nil
}

func (in conversionInput) cacheKey() string {
	h := sha256.New()
	h.Write(in.html)
	fmt.Fprintf(h, "|%s|%s", in.startDate.Format("20060102"), in.endDate.Format("20060102"))
	return hex.EncodeToString(h.Sum(nil))
}

// conversionResult is what one successful pipeline run produces.
type conversionResult struct {
	calendarText string
	events       []ics.Event
	archiveID    string
	courseCount  int
}

// convert runs the full pipeline for one input, consulting the cache
// first.
func (s *Server) convert(in conversionInput) (conversionResult, error) {
	key := in.cacheKey()
	if cached, ok := s.cache.Get(key); ok {
		return cached.(conversionResult), nil
	}

	courses, err := schedule.ParseDocument(string(in.html), in.startDate, in.endDate)
	if err != nil {
		return conversionResult{}, err
	}

	text, events := ics.Generate(courses, ics.Options{
		Timezone:          s.cfg.Timezone,
		ProdID:            s.cfg.ProdID,
		Now:               s.now,
		SingleDayFallback: s.cfg.SingleDayFallback,
	})

	res := conversionResult{
		calendarText: text,
		events:       events,
		courseCount:  len(courses),
	}

	if entry, err := s.store.Put([]byte(text), "courses.ics"); err != nil {
		// Archiving is best-effort; the download payload is already
		// in hand.
		appLog.Error("failed to archive calendar", err)
	} else {
		res.archiveID = entry.ID
	}

	s.cache.SetDefault(key, res)
	return res, nil
}

// handleConvert is the upload form target: it runs the pipeline and
// responds with the calendar as a file download.
func (s *Server) handleConvert(c *gin.Context) {
	in, err := s.readConversionForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.convert(in)
	if err != nil {
		appLog.Error("conversion failed", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	appLog.Info("conversion succeeded",
		"courses", res.courseCount,
		"events", len(res.events),
		"archive_id", res.archiveID,
	)

	if res.archiveID != "" {
		c.Header("X-Calendar-Id", res.archiveID)
	}
	c.Header("Content-Disposition", `attachment; filename=courses.ics`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(res.calendarText))
}

// occurrenceDTO is a JSON-friendly view of one expanded instance.
type occurrenceDTO struct {
	UID      string    `json:"uid"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

// previewResponse is the JSON shape for /api/preview.
type previewResponse struct {
	Courses     int             `json:"courses"`
	Events      int             `json:"events"`
	Occurrences []occurrenceDTO `json:"occurrences"`
	RangeStart  time.Time       `json:"range_start"`
	RangeEnd    time.Time       `json:"range_end"`
	Timezone    string          `json:"timezone"`
}

// handlePreview runs the same pipeline but returns the expanded
// occurrences over the term as JSON, so the schedule can be checked
// before importing the file anywhere.
func (s *Server) handlePreview(c *gin.Context) {
	in, err := s.readConversionForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := s.convert(in)
	if err != nil {
		appLog.Error("preview conversion failed", err)
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	// The recurrence UNTIL is inclusive of the end date; widen the
	// window to the end of that day.
	rangeStart := in.startDate
	rangeEnd := in.endDate.AddDate(0, 0, 1)

	occs, err := ics.ExpandOccurrences(res.events, ics.ExpandConfig{
		RangeStart: rangeStart,
		RangeEnd:   rangeEnd,
	})
	if err != nil {
		appLog.Error("preview expand failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to expand events"})
		return
	}

	dtos := make([]occurrenceDTO, 0, len(occs))
	for _, occ := range occs {
		dtos = append(dtos, occurrenceDTO{
			UID:      occ.UID,
			Summary:  occ.Summary,
			Location: occ.Location,
			Start:    occ.Start,
			End:      occ.End,
		})
	}

	c.JSON(http.StatusOK, previewResponse{
		Courses:     res.courseCount,
		Events:      len(res.events),
		Occurrences: dtos,
		RangeStart:  rangeStart,
		RangeEnd:    rangeEnd,
		Timezone:    s.cfg.Timezone,
	})
}

// handleDownload re-serves a previously generated calendar.
func (s *Server) handleDownload(c *gin.Context) {
	id := c.Param("id")
	body, entry, err := s.store.Get(id)
	if err != nil {
		if errors.Is(err, archive.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "calendar not found"})
			return
		}
		appLog.Error("archive read failed", err, "id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read calendar"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", entry.Filename))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}
