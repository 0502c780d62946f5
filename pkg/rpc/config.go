package rpc

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
)

// ClientConfig is the configuration for the RPC client.
type ClientConfig struct {
	// Target is the gRPC target, e.g. "192.168.1.100:50051" or "dns:///svc:50051".
	Target string `yaml:"target" json:"target" toml:"target"`

	// LoadBalancingPolicy is the load balancing policy for the gRPC client.
	// Common values: "round_robin", "pick_first" (default: "round_robin").
	LoadBalancingPolicy string `yaml:"loadBalancingPolicy" json:"loadBalancingPolicy" toml:"loadBalancingPolicy"`

	// EnableKeepalive enables keepalive pings.
	EnableKeepalive bool `yaml:"enableKeepalive" json:"enableKeepalive" toml:"enableKeepalive"`

	// KeepaliveTime is the keepalive time interval (default: 10 seconds).
	KeepaliveTime time.Duration `yaml:"keepaliveTime" json:"keepaliveTime" toml:"keepaliveTime"`

	// KeepaliveTimeout is the keepalive timeout (default: 3 seconds).
	KeepaliveTimeout time.Duration `yaml:"keepaliveTimeout" json:"keepaliveTimeout" toml:"keepaliveTimeout"`

	// PermitWithoutStream allows sending keepalive pings even when there are no active streams.
	PermitWithoutStream bool `yaml:"permitWithoutStream" json:"permitWithoutStream" toml:"permitWithoutStream"`
}

// Validate validates the client configuration.
func (c *ClientConfig) Validate() error {
	if c.Target == "" {
		return errors.New("rpc: target is required")
	}
	return nil
}

// Normalize sets default values for the client configuration.
// It is called automatically by NewClient before creating the connection.
func (c *ClientConfig) Normalize() {
	if c.LoadBalancingPolicy == "" {
		c.LoadBalancingPolicy = "round_robin"
	}
	if c.KeepaliveTime == 0 {
		c.KeepaliveTime = 10 * time.Second
	}
	if c.KeepaliveTimeout == 0 {
		c.KeepaliveTimeout = 3 * time.Second
	}
}

// BuildDialOptions builds gRPC dial options from the client configuration:
// insecure transport, load balancing policy and keepalive (if enabled).
func (c *ClientConfig) BuildDialOptions() []grpc.DialOption {
	c.Normalize()

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultServiceConfig(fmt.Sprintf(`{"loadBalancingPolicy":"%s"}`, c.LoadBalancingPolicy)),
	}

	if c.EnableKeepalive {
		opts = append(opts, grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                c.KeepaliveTime,
			Timeout:             c.KeepaliveTimeout,
			PermitWithoutStream: c.PermitWithoutStream,
		}))
	}

	return opts
}

// ServerConfig is the configuration for the RPC server.
//
// Example:
//
//	rpcServer:
//	  name: logkit
//	  host: 127.0.0.1
//	  port: 9091
//	  enableHealth: true
type ServerConfig struct {
	// Name is the service name reported by the health service.
	Name string `yaml:"name" json:"name" toml:"name"`

	// Host is the listen address (default: 127.0.0.1).
	Host string `yaml:"host" json:"host" toml:"host"`

	// Port is the listen port; 0 picks a free port.
	Port int `yaml:"port" json:"port" toml:"port"`

	// EnableReflection enables gRPC reflection.
	// Recommended for development/test environments to enable grpcurl/grpcui debugging.
	EnableReflection bool `yaml:"enableReflection" json:"enableReflection" toml:"enableReflection"`

	// EnableHealth registers the standard gRPC health service.
	EnableHealth bool `yaml:"enableHealth" json:"enableHealth" toml:"enableHealth"`

	// ShutdownTimeout bounds GracefulStop before falling back to Stop (default: 5s).
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout" toml:"shutdownTimeout"`
}

// Validate validates the server configuration.
func (c *ServerConfig) Validate() error {
	if c.Name == "" {
		return errors.New("rpc: server name is required")
	}
	if c.Port < 0 {
		return errors.New("rpc: server port must not be negative")
	}
	return nil
}

func (c *ServerConfig) addr() string {
	host := c.Host
	if host == "" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, strconv.Itoa(c.Port))
}

func (c *ServerConfig) shutdownTimeout() time.Duration {
	if c.ShutdownTimeout <= 0 {
		return 5 * time.Second
	}
	return c.ShutdownTimeout
}
