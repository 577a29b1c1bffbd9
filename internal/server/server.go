// Package server 以 HTTP 任务的方式运行爬取，进度通过 websocket 推送
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"schemacrawler/internal/adapter"
	"schemacrawler/internal/command"
	"schemacrawler/internal/crawl"
	"schemacrawler/internal/filter"
	"schemacrawler/internal/renderer"
)

// 任务状态
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// CrawlRequest 爬取请求，选项与命令行一致
type CrawlRequest struct {
	URL      string `json:"url"`
	Server   string `json:"server"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`

	InfoLevel        string `json:"info_level"`
	Schemas          string `json:"schemas"`
	Tables           string `json:"tables"`
	ExcludeTables    string `json:"exclude_tables"`
	WeakAssociations bool   `json:"weak_associations"`
	LoadRowCounts    bool   `json:"load_row_counts"`
	// Command 默认 schema
	Command string `json:"command"`
	// Format 默认 json
	Format string `json:"format"`
}

func (r CrawlRequest) connection() adapter.ConnectionOptions {
	return adapter.ConnectionOptions{
		URL:      r.URL,
		Server:   r.Server,
		Host:     r.Host,
		Port:     r.Port,
		Database: r.Database,
		User:     r.User,
		Password: r.Password,
	}
}

func (r CrawlRequest) crawlOptions() (crawl.Options, error) {
	opts := crawl.DefaultOptions()
	level, err := crawl.ParseInfoLevel(r.InfoLevel)
	if err != nil {
		return opts, err
	}
	opts.InfoLevel = level
	opts.WeakAssociations = r.WeakAssociations
	opts.LoadRowCounts = r.LoadRowCounts
	if r.Schemas != "" {
		if opts.Schemas, err = filter.NewRule(r.Schemas, ""); err != nil {
			return opts, err
		}
	}
	if r.Tables != "" || r.ExcludeTables != "" {
		if opts.Tables, err = filter.NewRule(r.Tables, r.ExcludeTables); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

// Task 爬取任务
type Task struct {
	ID        string         `json:"id"`
	Request   CrawlRequest   `json:"-"`
	Status    string         `json:"status"`
	Progress  int            `json:"progress"`
	Message   string         `json:"message"`
	Output    string         `json:"output,omitempty"`
	Stats     map[string]int `json:"stats,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func (t *Task) finished() bool {
	return t.Status == StatusCompleted || t.Status == StatusFailed
}

// OpenFunc 打开数据库连接
type OpenFunc func(ctx context.Context, opts adapter.ConnectionOptions, logger *zap.Logger) (adapter.DBAdapter, error)

// Server 任务服务器
type Server struct {
	ctx      context.Context
	mu       sync.RWMutex
	tasks    map[string]*Task
	registry *command.Registry
	open     OpenFunc
	logger   *zap.Logger
	// PollInterval websocket 推送间隔
	PollInterval time.Duration
	// TaskTTL 任务结束后保留多久，之后从内存中清除
	TaskTTL time.Duration
}

// New 创建服务器；ctx 取消时正在运行的任务随之取消
func New(ctx context.Context, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		ctx:      ctx,
		tasks:    make(map[string]*Task),
		registry: command.NewRegistry(),
		open: func(ctx context.Context, opts adapter.ConnectionOptions, logger *zap.Logger) (adapter.DBAdapter, error) {
			return adapter.Open(ctx, opts, logger)
		},
		logger:       logger,
		PollInterval: 500 * time.Millisecond,
		TaskTTL:      time.Hour,
	}
}

// Handler 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/crawl", s.handleCrawl)
	mux.HandleFunc("GET /api/task/{id}", s.handleTaskStatus)
	mux.HandleFunc("GET /api/ws", s.handleWebSocket)
	mux.HandleFunc("POST /api/test-connection", s.handleTestConnection)
	mux.HandleFunc("POST /api/list-schemas", s.handleListSchemas)
	return mux
}

// ListenAndServe 监听地址直到 ctx 取消
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	go s.evictLoop(ctx)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// evictLoop 定期清除过期任务，直到 ctx 取消
func (s *Server) evictLoop(ctx context.Context) {
	interval := s.TaskTTL / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.mu.Lock()
			s.evictLocked(now)
			s.mu.Unlock()
		}
	}
}

// evictLocked 清除结束超过 TaskTTL 的任务，调用方持有写锁
func (s *Server) evictLocked(now time.Time) {
	if s.TaskTTL <= 0 {
		return
	}
	for id, task := range s.tasks {
		if task.finished() && now.Sub(task.UpdatedAt) > s.TaskTTL {
			delete(s.tasks, id)
			s.logger.Debug("evicted finished task", zap.String("task", id))
		}
	}
}

// handleCrawl 创建爬取任务
func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Command == "" {
		req.Command = "schema"
	}
	if req.Format == "" {
		req.Format = "json"
	}
	if _, err := s.registry.Lookup(req.Command, nil); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := req.crawlOptions(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now()
	task := &Task{
		ID:        uuid.NewString(),
		Request:   req,
		Status:    StatusPending,
		Message:   "task created, waiting to run",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.evictLocked(now)
	s.tasks[task.ID] = task
	s.mu.Unlock()

	go s.runCrawl(task)

	writeJSON(w, http.StatusAccepted, map[string]string{
		"task_id": task.ID,
		"status":  StatusPending,
	})
}

// handleTaskStatus 查询任务状态
func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	task, ok := s.snapshot(r.PathValue("id"))
	if !ok {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleWebSocket 持续推送任务状态，直到任务结束
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	taskID := r.URL.Query().Get("task")
	if _, ok := s.snapshot(taskID); !ok {
		http.Error(w, "task not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.PollInterval)
	defer ticker.Stop()
	for {
		task, ok := s.snapshot(taskID)
		if !ok {
			return
		}
		if err := conn.WriteJSON(task); err != nil {
			return
		}
		if task.finished() {
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, task.Status))
			return
		}
		select {
		case <-ticker.C:
		case <-r.Context().Done():
			return
		}
	}
}

type connectionResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Product string   `json:"product,omitempty"`
	Schemas []string `json:"schemas,omitempty"`
}

// handleTestConnection 测试数据库连接
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := s.open(r.Context(), req.connection(), s.logger)
	if err != nil {
		writeJSON(w, http.StatusOK, connectionResponse{Message: fmt.Sprintf("connection failed: %v", err)})
		return
	}
	defer a.Close()
	writeJSON(w, http.StatusOK, connectionResponse{Success: true, Message: "connected to " + a.Dialect().Name})
}

// handleListSchemas 列出库里的 schema
func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	var req CrawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	a, err := s.open(r.Context(), req.connection(), s.logger)
	if err != nil {
		writeJSON(w, http.StatusOK, connectionResponse{Message: fmt.Sprintf("connection failed: %v", err)})
		return
	}
	defer a.Close()

	catalog, err := a.IntrospectSchema(r.Context(), crawl.InfoLevelMinimum.Retrieval())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	resp := connectionResponse{
		Success: true,
		Message: "ok",
		Product: catalog.DatabaseInfo.ProductName,
		Schemas: []string{},
	}
	for _, ref := range catalog.Schemas {
		resp.Schemas = append(resp.Schemas, ref.FullName())
	}
	writeJSON(w, http.StatusOK, resp)
}

// runCrawl 执行任务
func (s *Server) runCrawl(task *Task) {
	ctx := s.ctx
	req := task.Request
	s.update(task, StatusRunning, 5, "connecting to database")

	a, err := s.open(ctx, req.connection(), s.logger)
	if err != nil {
		s.update(task, StatusFailed, 0, fmt.Sprintf("connection failed: %v", err))
		return
	}
	defer a.Close()

	opts, _ := req.crawlOptions()
	opts.Progress = func(stage string, percent int) {
		// 爬取占总进度的 10% 到 80%
		s.update(task, StatusRunning, 10+percent*70/100, stage)
	}
	result, err := crawl.NewCrawler(a, s.logger).Crawl(ctx, opts)
	if err != nil {
		s.update(task, StatusFailed, 10, fmt.Sprintf("crawl failed: %v", err))
		return
	}

	s.update(task, StatusRunning, 90, "rendering "+req.Command)
	var out bytes.Buffer
	exe, err := s.registry.Lookup(req.Command, nil)
	if err == nil {
		err = exe.Execute(ctx, &command.Context{
			Adapter: a,
			Result:  result,
			Output:  command.Output{Format: req.Format, Writer: &out},
			Format:  renderer.Options{},
			Logger:  s.logger,
		})
	}
	if err != nil {
		s.update(task, StatusFailed, 90, fmt.Sprintf("%s failed: %v", req.Command, err))
		return
	}

	s.mu.Lock()
	task.Output = out.String()
	task.Stats = map[string]int{
		"tables":            len(result.Catalog.Tables),
		"routines":          len(result.Catalog.Routines),
		"weak_associations": result.WeakAssociations.Len(),
	}
	s.mu.Unlock()
	s.update(task, StatusCompleted, 100, "done")
	s.logger.Info("task completed", zap.String("task", task.ID))
}

func (s *Server) update(task *Task, status string, progress int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	task.Status = status
	task.Progress = progress
	task.Message = message
	task.UpdatedAt = time.Now()
}

// snapshot 任务的副本，编码时不需要持锁
func (s *Server) snapshot(id string) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
