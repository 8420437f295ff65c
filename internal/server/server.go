// Package server exposes the transpiler over JSON-RPC 2.0, either on
// stdio (one request per line) or over a websocket listener.
package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hdltools/rtlbridge/internal/batch"
	"github.com/hdltools/rtlbridge/internal/config"
	"github.com/hdltools/rtlbridge/internal/core"
)

// JSON-RPC 2.0 error codes.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32000
)

// Request is a JSON-RPC 2.0 request. A request without an ID is a
// notification and gets no response.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError carries a JSON-RPC error. Data holds the underlying
// compiler error text verbatim.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

// TranspileResult is the result of the transpile method.
type TranspileResult struct {
	Output      string       `json:"output"`
	Dialect     string       `json:"dialect"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Diagnostic is a compiler diagnostic in wire form.
type Diagnostic struct {
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Line     int    `json:"line"`
	Message  string `json:"message"`
}

// AnalyzeResult is the result of the analyze method.
type AnalyzeResult struct {
	Report      string       `json:"report"`
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// Server dispatches JSON-RPC requests to the transpiler pipeline.
type Server struct {
	cfg       *config.Config
	validator *validator
	upgrader  websocket.Upgrader
}

// New creates a server. A nil cfg uses defaults.
func New(cfg *config.Config) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	v, err := newValidator()
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, validator: v}, nil
}

// Handle dispatches one request. Returns nil for notifications.
func (s *Server) Handle(ctx context.Context, req *Request) *Response {
	resp := s.dispatch(ctx, req)
	if req.ID == nil {
		return nil
	}
	resp.ID = req.ID
	return resp
}

func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	if req.Jsonrpc != "2.0" {
		return errorResponse(codeInvalidRequest, "jsonrpc must be \"2.0\"", "")
	}
	switch req.Method {
	case "transpile":
		return s.handleTranspile(req.Params)
	case "analyze":
		return s.handleAnalyze(req.Params)
	case "transpile_folder":
		return s.handleTranspileFolder(ctx, req.Params)
	default:
		return errorResponse(codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), "")
	}
}

func (s *Server) handleTranspile(raw json.RawMessage) *Response {
	if err := s.validator.validate("#TranspileRequest", raw); err != nil {
		return errorResponse(codeInvalidParams, "invalid transpile params", err.Error())
	}
	var params struct {
		Source      string `json:"source"`
		Dialect     string `json:"dialect"`
		StrictWidth bool   `json:"strict_width"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return errorResponse(codeInvalidParams, "invalid transpile params", err.Error())
	}
	dialect, err := core.ParseDialect(params.Dialect)
	if err != nil {
		return errorResponse(codeInvalidParams, "invalid dialect", err.Error())
	}
	out, diags, err := core.Transpile(params.Source, dialect, core.Options{StrictWidth: params.StrictWidth})
	if err != nil {
		return errorResponse(codeInternalError, "transpile failed", err.Error())
	}
	result := TranspileResult{Output: out, Dialect: dialect.String()}
	for _, d := range diags {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Rule:     d.Rule,
			Severity: d.Severity.String(),
			Line:     d.Line,
			Message:  d.Message,
		})
	}
	return resultResponse(result)
}

func (s *Server) handleAnalyze(raw json.RawMessage) *Response {
	if err := s.validator.validate("#AnalyzeRequest", raw); err != nil {
		return errorResponse(codeInvalidParams, "invalid analyze params", err.Error())
	}
	var params struct {
		Source string `json:"source"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return errorResponse(codeInvalidParams, "invalid analyze params", err.Error())
	}
	unit, err := core.ParseAndLower(params.Source)
	if err != nil {
		return errorResponse(codeInternalError, "analyze failed", err.Error())
	}
	result := AnalyzeResult{Report: core.Analyze(unit)}
	for _, d := range unit.Diagnostics {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Rule:     d.Rule,
			Severity: d.Severity.String(),
			Line:     d.Line,
			Message:  d.Message,
		})
	}
	return resultResponse(result)
}

func (s *Server) handleTranspileFolder(ctx context.Context, raw json.RawMessage) *Response {
	if err := s.validator.validate("#TranspileFolderRequest", raw); err != nil {
		return errorResponse(codeInvalidParams, "invalid transpile_folder params", err.Error())
	}
	var params struct {
		Root      string `json:"root"`
		Dialect   string `json:"dialect"`
		OutputDir string `json:"output_dir"`
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return errorResponse(codeInvalidParams, "invalid transpile_folder params", err.Error())
	}
	cfg := *s.cfg
	if params.Dialect != "" {
		cfg.Dialect = params.Dialect
	}
	if params.OutputDir != "" {
		cfg.Output.Dir = params.OutputDir
	}
	report, err := batch.Run(ctx, params.Root, &cfg)
	if err != nil {
		return errorResponse(codeInternalError, "batch run failed", err.Error())
	}
	return resultResponse(report)
}

func resultResponse(result interface{}) *Response {
	return &Response{Jsonrpc: "2.0", Result: result}
}

func errorResponse(code int, message, data string) *Response {
	return &Response{Jsonrpc: "2.0", Error: &RPCError{Code: code, Message: message, Data: data}}
}

func mustMarshal(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// ServeStdio reads newline-delimited JSON-RPC requests from r and
// writes responses to w. Returns on EOF or ctx cancellation.
func (s *Server) ServeStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	enc := json.NewEncoder(w)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			if err := enc.Encode(errorResponse(codeParseError, "parse error", err.Error())); err != nil {
				return err
			}
			continue
		}
		resp := s.Handle(ctx, &req)
		if resp == nil {
			continue
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Handler returns an http.Handler that upgrades to websocket and
// serves JSON-RPC messages on the connection.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		s.serveConn(r.Context(), conn)
	})
}

func (s *Server) serveConn(ctx context.Context, conn *websocket.Conn) {
	// Announce the session so clients can correlate logs per connection.
	hello := &Request{Jsonrpc: "2.0", Method: "session", Params: mustMarshal(map[string]string{"id": uuid.NewString()})}
	if err := conn.WriteJSON(hello); err != nil {
		return
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			if err := conn.WriteJSON(errorResponse(codeParseError, "parse error", err.Error())); err != nil {
				return
			}
			continue
		}
		resp := s.Handle(ctx, &req)
		if resp == nil {
			continue
		}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

// ListenAndServe serves websocket JSON-RPC on addr until the server
// errors. The websocket endpoint is at /rpc.
func (s *Server) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/rpc", s.Handler())
	return http.ListenAndServe(addr, mux)
}
