package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/HorseArcher567/logkit/pkg/xlog"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Module gRPC 拦截器记录日志使用的来源
const Module = "grpc"

// RequestIDKey 请求 ID 的 metadata key
const RequestIDKey = "x-request-id"

type requestIDKey struct{}

// WithRequestID 将请求 ID 放入 context，客户端拦截器会将其写入 outgoing metadata
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext 返回 context 中的请求 ID
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// UnaryServerLogging 为 Unary RPC 提供日志中间件
func UnaryServerLogging() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		ctx, log := serverScope(ctx, info.FullMethod)
		log.Debug("grpc request started")

		resp, err := handler(ctx, req)

		logResult(ctx, log, "grpc request", time.Since(start), err)
		return resp, err
	}
}

// StreamServerLogging 为 Stream RPC 提供日志中间件
func StreamServerLogging() grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		start := time.Now()

		ctx, log := serverScope(ss.Context(), info.FullMethod)
		log.Debug("grpc stream started",
			"is_client_stream", info.IsClientStream,
			"is_server_stream", info.IsServerStream,
		)

		// 包装 ServerStream 以注入 logger
		err := handler(srv, &loggingServerStream{ServerStream: ss, ctx: ctx})

		logResult(ctx, log, "grpc stream", time.Since(start), err)
		return err
	}
}

// UnaryClientLogging 为客户端 Unary RPC 提供日志中间件
func UnaryClientLogging() grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply any, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		ctx, log := clientScope(ctx, method, cc.Target())

		log.Debug("grpc client request started")

		err := invoker(ctx, method, req, reply, cc, opts...)

		if status.Code(err) != codes.Canceled {
			logResult(ctx, log, "grpc client request", time.Since(start), err)
		}
		return err
	}
}

// StreamClientLogging 为客户端 Stream RPC 提供日志中间件
func StreamClientLogging() grpc.StreamClientInterceptor {
	return func(ctx context.Context, desc *grpc.StreamDesc, cc *grpc.ClientConn, method string, streamer grpc.Streamer, opts ...grpc.CallOption) (grpc.ClientStream, error) {
		start := time.Now()
		ctx, log := clientScope(ctx, method, cc.Target())

		log.Debug("grpc client stream started",
			"is_client_stream", desc.ClientStreams,
			"is_server_stream", desc.ServerStreams,
		)

		clientStream, err := streamer(ctx, desc, cc, method, opts...)
		if err != nil {
			logResult(ctx, log, "grpc client stream creation", time.Since(start), err)
			return nil, err
		}

		return &loggingClientStream{
			ClientStream: clientStream,
			log:          log,
			start:        start,
		}, nil
	}
}

// serverScope 取出或生成请求 ID，返回注入了 logger 的 context
func serverScope(ctx context.Context, method string) (context.Context, *xlog.Logger) {
	requestID := extractRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	log := xlog.FromContext(ctx).Module(Module).With("method", method, "request_id", requestID)
	ctx = WithRequestID(ctx, requestID)
	return xlog.WithContext(ctx, log), log
}

// clientScope 传播请求 ID 到下游
func clientScope(ctx context.Context, method, target string) (context.Context, *xlog.Logger) {
	log := xlog.FromContext(ctx).Module(Module).With("method", method, "target", target)
	if requestID := RequestIDFromContext(ctx); requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, RequestIDKey, requestID)
		log = log.With("request_id", requestID)
	}
	return ctx, log
}

// logResult 客户端错误（参数、权限、未找到等）记为 warn，其余错误记为 error
func logResult(ctx context.Context, log *xlog.Logger, msg string, duration time.Duration, err error) {
	if err == nil {
		log.Info(msg+" completed", "duration", duration)
		return
	}

	st := status.Convert(err)
	level := slog.LevelError
	switch st.Code() {
	case codes.InvalidArgument, codes.NotFound, codes.AlreadyExists, codes.PermissionDenied,
		codes.Unauthenticated, codes.FailedPrecondition, codes.OutOfRange, codes.Canceled:
		level = slog.LevelWarn
	}
	log.Log(ctx, level, msg+" failed",
		"duration", duration,
		"code", st.Code().String(),
		"error", st.Message(),
	)
}

// extractRequestID 从 gRPC metadata 中提取 request_id
func extractRequestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(RequestIDKey); len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

type loggingServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *loggingServerStream) Context() context.Context {
	return s.ctx
}

type loggingClientStream struct {
	grpc.ClientStream
	log   *xlog.Logger
	start time.Time
}

func (s *loggingClientStream) RecvMsg(m any) error {
	err := s.ClientStream.RecvMsg(m)
	if err != nil {
		st := status.Convert(err)
		if st.Code() != codes.Canceled {
			s.log.Debug("grpc client stream completed",
				"duration", time.Since(s.start),
				"code", st.Code().String(),
			)
		}
	}
	return err
}
