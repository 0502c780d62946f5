package rpc

import (
	"fmt"

	"github.com/HorseArcher567/logkit/pkg/rpc/middleware"
	"google.golang.org/grpc"
)

// NewClient 按配置创建 RPC 客户端连接，默认安装日志拦截器
// opts 追加在配置生成的选项之后
func NewClient(cfg *ClientConfig, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dialOpts := append(cfg.BuildDialOptions(),
		grpc.WithChainUnaryInterceptor(middleware.UnaryClientLogging()),
		grpc.WithChainStreamInterceptor(middleware.StreamClientLogging()),
	)
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(cfg.Target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("rpc: failed to connect to %s: %w", cfg.Target, err)
	}
	return conn, nil
}
