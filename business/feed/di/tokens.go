// Package di contains dependency injection tokens for the feed context.
package di

import (
	"github.com/fd1az/cycle-arbitrage/business/feed/app"
	feedredis "github.com/fd1az/cycle-arbitrage/business/feed/infra/redis"
	feedws "github.com/fd1az/cycle-arbitrage/business/feed/infra/websocket"
	"github.com/fd1az/cycle-arbitrage/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Hub = di.NewToken[*app.Hub]("feed.Hub")
)

// Private dependency tokens - internal to feed module
var (
	Server      = di.NewToken[*feedws.Server]("feed:server")
	DecisionBus = di.NewToken[*feedredis.DecisionBus]("feed:decisionBus")
)

// GetHub is used by the TUI to count sessions.
func GetHub(c di.ServiceRegistry) *app.Hub {
	return di.GetToken(c, Hub)
}

func GetServer(c di.ServiceRegistry) *feedws.Server {
	return di.GetToken(c, Server)
}

func GetDecisionBus(c di.ServiceRegistry) *feedredis.DecisionBus {
	return di.GetToken(c, DecisionBus)
}
