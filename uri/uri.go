package uri

import (
	"github.com/ghettovoice/sipstack/internal/types"
)

type (
	Addr          = types.Addr
	Params        = types.Params
	RenderOptions = types.RenderOptions
)

var (
	Host      = types.Host
	HostPort  = types.HostPort
	NewParams = types.NewParams
	ParseAddr = types.ParseAddr
)

// URI is a request target or an address of a name-addr header.
type URI interface {
	types.Renderer
	Scheme() string
	String() string
	Equal(val any) bool
	IsValid() bool
}
