package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/toncell-lab/emubridge/emulator"
	"github.com/toncell-lab/emubridge/versioning"
)

const _serviceName = "emubridge"

// Server is the HTTP boundary of the emulator service
type Server struct {
	logger     hclog.Logger
	config     *Config
	dispatcher *dispatcher
	metrics    *Metrics
	server     *http.Server
}

type Config struct {
	Engine                   emulator.Engine
	Addr                     *net.TCPAddr
	AccessControlAllowOrigin []string
	EnableWS                 bool

	Metrics *Metrics
}

// NewServer returns the emulator http server
func NewServer(logger hclog.Logger, config *Config) (*Server, error) {
	srv := &Server{
		logger:     logger.Named("server"),
		config:     config,
		dispatcher: newDispatcher(logger, config.Engine),
		metrics:    NewDummyMetrics(config.Metrics),
	}

	// start http server
	if err := srv.setupHTTP(); err != nil {
		return nil, err
	}

	return srv, nil
}

func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	var errs *multierror.Error

	if err := s.server.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}

	if closer, ok := s.config.Engine.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	s.server = nil

	return errs.ErrorOrNil()
}

func (s *Server) setupHTTP() error {
	s.logger.Info("http server started", "addr", s.config.Addr.String())

	lis, err := net.Listen("tcp", s.config.Addr.String())
	if err != nil {
		return err
	}

	mux := http.NewServeMux()

	corsWrap := middlewareFactory(s.config)

	mux.Handle("/emulate", corsWrap(http.HandlerFunc(s.handleEmulate)))
	mux.Handle("/run-get-method", corsWrap(http.HandlerFunc(s.handleRunGetMethod)))
	mux.Handle("/", corsWrap(http.HandlerFunc(s.handleInfo)))

	if s.config.EnableWS {
		mux.HandleFunc("/ws", s.handleWs)
	}

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: time.Minute,
	}

	s.server = srv

	go func() {
		if err := srv.Serve(lis); err != nil {
			s.logger.Error("closed http connection", "err", err)
		}
	}()

	return nil
}

// The middlewareFactory builds a middleware which enables CORS using the provided config.
func middlewareFactory(config *Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			for _, allowedOrigin := range config.AccessControlAllowOrigin {
				if allowedOrigin == "*" {
					w.Header().Set("Access-Control-Allow-Origin", "*")

					break
				}

				if allowedOrigin == origin {
					w.Header().Set("Access-Control-Allow-Origin", origin)

					break
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) handleEmulate(w http.ResponseWriter, req *http.Request) {
	s.handlePost(w, req, EmulateTransactionLabel, s.dispatcher.HandleEmulate)
}

func (s *Server) handleRunGetMethod(w http.ResponseWriter, req *http.Request) {
	s.handlePost(w, req, RunGetMethodLabel, s.dispatcher.HandleRunGetMethod)
}

func (s *Server) handlePost(
	w http.ResponseWriter,
	req *http.Request,
	label EmulatorAPILabels,
	handle func([]byte) []byte,
) {
	s.metrics.RequestsCounterInc()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set(
		"Access-Control-Allow-Headers",
		"Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization",
	)

	switch req.Method {
	case http.MethodPost:
	case http.MethodOptions:
		// nothing to return
		return
	default:
		s.metrics.ErrorsCounterInc()
		w.Write([]byte("method " + req.Method + " not allowed"))

		return
	}

	data, err := io.ReadAll(req.Body)
	if err != nil {
		s.metrics.ErrorsCounterInc()
		w.Write(emulator.ErrorResponse(err.Error()))

		return
	}

	// log request
	s.logger.Debug("handle", "request", string(data))

	s.metrics.EmulatorAPICounterInc(label)

	startT := time.Now()
	resp := handle(data)
	s.metrics.ResponseTimeObserve(time.Since(startT).Seconds())

	w.Write(resp)

	s.logger.Debug("handle", "response", string(resp))
}

type GetResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

func (s *Server) handleInfo(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	data := &GetResponse{
		Name:    _serviceName,
		Version: versioning.Version,
	}

	resp, err := json.Marshal(data)
	if err != nil {
		s.metrics.ErrorsCounterInc()
		w.Write([]byte(err.Error()))

		return
	}

	if _, err = w.Write(resp); err != nil {
		s.metrics.ErrorsCounterInc()
	}
}

// wsUpgrader defines upgrade parameters for the WS connection
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// wsWrapper is a wrapping object for the web socket connection and logger
type wsWrapper struct {
	sync.Mutex // basic r/w lock

	ws     *websocket.Conn // the actual WS connection
	logger hclog.Logger    // module logger
}

// WriteMessage writes out the message to the WS peer
func (w *wsWrapper) WriteMessage(messageType int, data []byte) error {
	w.Lock()
	defer w.Unlock()
	writeErr := w.ws.WriteMessage(messageType, data)

	if writeErr != nil {
		w.logger.Error(
			fmt.Sprintf("Unable to write WS message, %s", writeErr.Error()),
		)
	}

	return writeErr
}

// isSupportedWSType returns a status indicating if the message type is supported
func isSupportedWSType(messageType int) bool {
	return messageType == websocket.TextMessage ||
		messageType == websocket.BinaryMessage
}

// wsRequest is one framed call on a websocket connection
type wsRequest struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func (s *Server) handleWs(w http.ResponseWriter, req *http.Request) {
	// CORS rule - Allow requests from anywhere
	wsUpgrader.CheckOrigin = func(r *http.Request) bool { return true }

	// Upgrade the connection to a WS one
	ws, err := wsUpgrader.Upgrade(w, req, nil)
	if err != nil {
		s.logger.Error(fmt.Sprintf("Unable to upgrade to a WS connection, %s", err.Error()))

		return
	}

	// Defer WS closure
	defer func(ws *websocket.Conn) {
		err = ws.Close()
		if err != nil {
			s.logger.Error(
				fmt.Sprintf("Unable to gracefully close WS connection, %s", err.Error()),
			)
		}
	}(ws)

	wrapConn := &wsWrapper{ws: ws, logger: s.logger}

	s.logger.Info("Websocket connection established")
	// Run the listen loop
	for {
		// Read the incoming message
		msgType, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
				websocket.CloseAbnormalClosure,
			) {
				// Accepted close codes
				s.logger.Info("Closing WS connection gracefully")
			} else {
				s.logger.Error(fmt.Sprintf("Unable to read WS message, %s", err.Error()))
				s.logger.Info("Closing WS connection with error")
			}

			break
		}

		if isSupportedWSType(msgType) {
			go func() {
				resp := s.handleWsRequest(message)
				_ = wrapConn.WriteMessage(msgType, resp)
			}()
		}
	}
}

func (s *Server) handleWsRequest(message []byte) []byte {
	s.metrics.RequestsCounterInc()

	var req wsRequest
	if err := json.Unmarshal(message, &req); err != nil {
		s.metrics.ErrorsCounterInc()

		return emulator.ErrorResponse(fmt.Sprintf("can't decode ws request: %s", err.Error()))
	}

	startT := time.Now()
	defer func() {
		s.metrics.ResponseTimeObserve(time.Since(startT).Seconds())
	}()

	switch req.Method {
	case "emulate_transaction":
		s.metrics.EmulatorAPICounterInc(EmulateTransactionLabel)

		return s.dispatcher.HandleEmulate(req.Params)
	case "run_get_method":
		s.metrics.EmulatorAPICounterInc(RunGetMethodLabel)

		return s.dispatcher.HandleRunGetMethod(req.Params)
	default:
		s.metrics.ErrorsCounterInc()

		return emulator.ErrorResponse(fmt.Sprintf("unknown method %q", req.Method))
	}
}
