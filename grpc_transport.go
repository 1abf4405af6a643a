// grpc_transport.go: gRPC server and client for remote plugin execution
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package constellation

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
)

const (
	pluginServiceName = "constellation.PluginService"
	executeMethod     = "/" + pluginServiceName + "/Execute"
	healthMethod      = "/" + pluginServiceName + "/Health"
	infoMethod        = "/" + pluginServiceName + "/Info"

	// jsonCodecName is sent as the content subtype (application/grpc+json).
	jsonCodecName = "json"

	requestIDHeader  = "x-request-id"
	errorCodeTrailer = "x-error-code"

	grpcHealthTimeout = 5 * time.Second
)

var errConnectionClosed = stderrors.New("gRPC connection closed")

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// jsonCodec carries plugin messages as JSON. Protobuf messages go through
// protojson, everything else through encoding/json.
type jsonCodec struct{}

func (jsonCodec) Name() string { return jsonCodecName }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	if m, ok := v.(proto.Message); ok {
		return protojson.Marshal(m)
	}
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v any) error {
	if m, ok := v.(proto.Message); ok {
		return protojson.Unmarshal(data, m)
	}
	return json.Unmarshal(data, v)
}

// pluginService is the server side of constellation.PluginService.
type pluginService interface {
	Execute(ctx context.Context, request *MessageRequest) (*MessageReply, error)
	Health(ctx context.Context, request *emptypb.Empty) (*HealthStatus, error)
	Info(ctx context.Context, request *emptypb.Empty) (*PluginInfo, error)
}

var pluginServiceDesc = grpc.ServiceDesc{
	ServiceName: pluginServiceName,
	HandlerType: (*pluginService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Execute", Handler: executeHandler},
		{MethodName: "Health", Handler: healthHandler},
		{MethodName: "Info", Handler: infoHandler},
	},
	Streams: []grpc.StreamDesc{},
}

func executeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(MessageRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(pluginService).Execute(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: executeMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(pluginService).Execute(ctx, req.(*MessageRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func healthHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(pluginService).Health(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: healthMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(pluginService).Health(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func infoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(pluginService).Info(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: infoMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(pluginService).Info(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCPluginServer exposes a Plugin[MessageRequest, MessageReply] over gRPC.
//
// The server does not own the plugin: closing the plugin is left to the
// caller once Stop has returned.
//
// Example usage:
//
//	server := NewGRPCPluginServer(plugin, logger)
//	go server.Serve(listener)
//	defer server.Stop(context.Background())
type GRPCPluginServer struct {
	plugin Plugin[MessageRequest, MessageReply]
	server *grpc.Server
	logger Logger
}

// NewGRPCPluginServer creates a gRPC server for plugin. opts are passed to
// grpc.NewServer after the built-in recovery interceptor.
func NewGRPCPluginServer(plugin Plugin[MessageRequest, MessageReply], logger any, opts ...grpc.ServerOption) *GRPCPluginServer {
	s := &GRPCPluginServer{
		plugin: plugin,
		logger: NewLogger(logger).With("component", "grpc_server", "plugin", plugin.Info().Name),
	}

	serverOpts := append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(s.unaryInterceptor)}, opts...)
	s.server = grpc.NewServer(serverOpts...)
	s.server.RegisterService(&pluginServiceDesc, s)
	return s
}

// Serve accepts connections on lis until Stop is called.
func (s *GRPCPluginServer) Serve(lis net.Listener) error {
	s.logger.Info("Serving plugin over gRPC", "address", lis.Addr().String())
	if err := s.server.Serve(lis); err != nil {
		return NewGRPCTransportError(err)
	}
	return nil
}

// Stop waits for in-flight calls to finish, or until ctx is done, and then
// stops the server.
func (s *GRPCPluginServer) Stop(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Graceful stop timed out, closing active calls")
		s.server.Stop()
		<-done
	}
	s.logger.Info("gRPC server stopped")
}

// Execute runs one request through the plugin.
//
// The request id is taken from the x-request-id header, or generated when
// the caller did not send one. The caller's deadline becomes the execution
// timeout.
func (s *GRPCPluginServer) Execute(ctx context.Context, request *MessageRequest) (*MessageReply, error) {
	execCtx := ExecutionContext{RequestID: uuid.NewString()}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get(requestIDHeader); len(ids) > 0 && ids[0] != "" {
			execCtx.RequestID = ids[0]
		}
	}
	if deadline, ok := ctx.Deadline(); ok {
		execCtx.Timeout = time.Until(deadline)
	}

	reply, err := s.plugin.Execute(ctx, execCtx, *request)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &reply, nil
}

// Health reports the plugin's health.
func (s *GRPCPluginServer) Health(ctx context.Context, _ *emptypb.Empty) (*HealthStatus, error) {
	health := s.plugin.Health(ctx)
	return &health, nil
}

// Info reports the plugin's metadata.
func (s *GRPCPluginServer) Info(_ context.Context, _ *emptypb.Empty) (*PluginInfo, error) {
	info := s.plugin.Info()
	return &info, nil
}

// toStatus maps a plugin error to a gRPC status and sends its error code
// as a trailer.
func (s *GRPCPluginServer) toStatus(ctx context.Context, err error) error {
	if code := CodeOf(err); code != "" {
		if trailerErr := grpc.SetTrailer(ctx, metadata.Pairs(errorCodeTrailer, code)); trailerErr != nil {
			s.logger.Debug("Failed to set error code trailer", "error", trailerErr)
		}
	}

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *GRPCPluginServer) unaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	start := time.Now()
	defer withCustomRecoveryHandler(func(recovered interface{}, stack []byte) {
		s.logger.Error("Panic recovered in gRPC handler",
			"method", info.FullMethod,
			"panic", recovered,
			"stack", string(stack))
		resp = nil
		err = status.Error(codes.Internal, NewPluginPanicError(s.plugin.Info().Name, recovered).Error())
	})()

	resp, err = handler(ctx, req)
	s.logger.Debug("gRPC call handled",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start))
	return resp, err
}

// GRPCPluginServiceClient wraps a connection for constellation.PluginService
type GRPCPluginServiceClient struct {
	conn grpc.ClientConnInterface
}

// NewGRPCPluginServiceClient creates a new gRPC plugin service client
func NewGRPCPluginServiceClient(conn grpc.ClientConnInterface) *GRPCPluginServiceClient {
	return &GRPCPluginServiceClient{conn: conn}
}

// Execute calls the remote Execute method
func (c *GRPCPluginServiceClient) Execute(ctx context.Context, request *MessageRequest, opts ...grpc.CallOption) (*MessageReply, error) {
	reply := new(MessageReply)
	if err := c.invoke(ctx, executeMethod, request, reply, opts); err != nil {
		return nil, err
	}
	return reply, nil
}

// Health calls the remote Health method
func (c *GRPCPluginServiceClient) Health(ctx context.Context, opts ...grpc.CallOption) (*HealthStatus, error) {
	health := new(HealthStatus)
	if err := c.invoke(ctx, healthMethod, &emptypb.Empty{}, health, opts); err != nil {
		return nil, err
	}
	return health, nil
}

// Info calls the remote Info method
func (c *GRPCPluginServiceClient) Info(ctx context.Context, opts ...grpc.CallOption) (*PluginInfo, error) {
	info := new(PluginInfo)
	if err := c.invoke(ctx, infoMethod, &emptypb.Empty{}, info, opts); err != nil {
		return nil, err
	}
	return info, nil
}

func (c *GRPCPluginServiceClient) invoke(ctx context.Context, method string, in, out any, opts []grpc.CallOption) error {
	callOpts := append([]grpc.CallOption{grpc.CallContentSubtype(jsonCodecName)}, opts...)
	return c.conn.Invoke(ctx, method, in, out, callOpts...)
}

// GRPCPlugin is a Plugin[MessageRequest, MessageReply] served by a remote
// GRPCPluginServer.
type GRPCPlugin struct {
	conn      *grpc.ClientConn
	service   *GRPCPluginServiceClient
	info      PluginInfo
	target    string
	logger    Logger
	connected atomic.Bool
}

// DialGRPCPlugin connects to a GRPCPluginServer at target and fetches its
// Info. Connections are insecure unless opts supply transport credentials.
func DialGRPCPlugin(ctx context.Context, target string, logger any, opts ...grpc.DialOption) (*GRPCPlugin, error) {
	internalLogger := NewLogger(logger).With("transport", "grpc", "target", target)

	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, NewGRPCTransportError(err)
	}

	service := NewGRPCPluginServiceClient(conn)
	info, err := service.Info(ctx)
	if err != nil {
		_ = conn.Close()
		return nil, NewPluginConnectionFailedError(target, err)
	}

	p := &GRPCPlugin{
		conn:    conn,
		service: service,
		info:    *info,
		target:  target,
		logger:  internalLogger.With("plugin", info.Name),
	}
	p.connected.Store(true)

	p.logger.Info("Connected to remote plugin", "version", info.Version)
	return p, nil
}

// Info returns the remote plugin's metadata as fetched at dial time.
func (p *GRPCPlugin) Info() PluginInfo {
	return p.info
}

// Execute processes a request on the remote plugin
func (p *GRPCPlugin) Execute(ctx context.Context, execCtx ExecutionContext, request MessageRequest) (MessageReply, error) {
	if !p.connected.Load() {
		return MessageReply{}, NewPluginConnectionFailedError(p.info.Name, errConnectionClosed)
	}

	if execCtx.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, execCtx.Timeout)
		defer cancel()
	}
	if execCtx.RequestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, requestIDHeader, execCtx.RequestID)
	}

	var trailer metadata.MD
	reply, err := p.service.Execute(ctx, &request, grpc.Trailer(&trailer))
	if err != nil {
		return MessageReply{}, p.handleGRPCError(err, trailer, execCtx.Timeout)
	}
	return *reply, nil
}

// Health performs a health check via gRPC
func (p *GRPCPlugin) Health(ctx context.Context) HealthStatus {
	start := time.Now()
	if !p.connected.Load() {
		return HealthStatus{
			Status:    StatusOffline,
			Message:   errConnectionClosed.Error(),
			LastCheck: start,
			Metadata:  map[string]string{"transport": "grpc", "target": p.target},
		}
	}

	healthCtx, cancel := context.WithTimeout(ctx, grpcHealthTimeout)
	defer cancel()

	remote, err := p.service.Health(healthCtx)
	if err != nil {
		health := HealthStatus{
			Status:       StatusUnhealthy,
			Message:      fmt.Sprintf("Health check failed: %v", err),
			LastCheck:    start,
			ResponseTime: time.Since(start),
			Metadata:     map[string]string{"transport": "grpc", "target": p.target},
		}
		if status.Code(err) == codes.Unavailable {
			health.Status = StatusOffline
		}
		return health
	}

	meta := make(map[string]string, len(remote.Metadata)+2)
	for k, v := range remote.Metadata {
		meta[k] = v
	}
	meta["transport"] = "grpc"
	meta["target"] = p.target
	remote.Metadata = meta
	return *remote
}

// Close closes the gRPC connection
func (p *GRPCPlugin) Close() error {
	if !p.connected.CompareAndSwap(true, false) {
		return nil
	}

	err := p.conn.Close()
	p.logger.Info("gRPC connection closed")
	return err
}

// handleGRPCError converts gRPC errors to plugin errors. The remote error
// code, if the server sent one, is kept in the error context.
func (p *GRPCPlugin) handleGRPCError(err error, trailer metadata.MD, timeout time.Duration) error {
	code := status.Code(err)
	p.logger.Warn("Remote plugin call failed", "grpc_code", code.String(), "error", err)

	switch code {
	case codes.DeadlineExceeded:
		return NewPluginTimeoutError(p.info.Name, timeout.String(), err)
	case codes.Unavailable:
		return NewPluginConnectionFailedError(p.info.Name, err)
	}

	execErr := NewPluginExecutionFailedError(p.info.Name, err).WithContext("grpc_code", code.String())
	if remote := trailer.Get(errorCodeTrailer); len(remote) > 0 {
		execErr = execErr.WithContext("remote_error_code", remote[0])
	}
	return execErr
}
