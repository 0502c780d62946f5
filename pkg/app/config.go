package app

import (
	"github.com/HorseArcher567/logkit/pkg/api"
	"github.com/HorseArcher567/logkit/pkg/etcd"
	"github.com/HorseArcher567/logkit/pkg/rpc"
	"github.com/HorseArcher567/logkit/pkg/xlog"
)

// Framework holds framework-level configuration: logging, the admin API server,
// an optional gRPC server and the etcd key watched for logging changes.
// It is intended to be embedded into the user's own application config struct.
//
// Example:
//
//	type AppConfig struct {
//	    app.Framework `yaml:",inline"`
//	    Database struct {
//	        Host string `yaml:"host"`
//	        Port int    `yaml:"port"`
//	    } `yaml:"database"`
//	}
//
//	func main() {
//	    cfg := AppConfig{Framework: app.DefaultFramework()}
//	    config.MustLoad("config.yaml", &cfg)
//	    app.Init(&cfg.Framework)
//	    app.Run(context.Background())
//	}
type Framework struct {
	// Logging configures the process logger.
	Logging xlog.Config `yaml:"logging" json:"logging" toml:"logging"`

	// ApiServer configures the admin HTTP API. Nil disables it.
	ApiServer *api.ServerConfig `yaml:"apiServer" json:"apiServer" toml:"apiServer"`

	// RpcServer configures a gRPC server with logging interceptors. Nil disables it.
	RpcServer *rpc.ServerConfig `yaml:"rpcServer" json:"rpcServer" toml:"rpcServer"`

	// Etcd configures the watched logging key. Nil disables it.
	Etcd *etcd.WatchConfig `yaml:"etcd" json:"etcd" toml:"etcd"`
}

// DefaultFramework returns a Framework with xlog.DefaultConfig logging and
// nothing else enabled.
func DefaultFramework() Framework {
	return Framework{Logging: xlog.DefaultConfig()}
}
