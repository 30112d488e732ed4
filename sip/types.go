package sip

import (
	"github.com/ghettovoice/sipstack/internal/types"
	"github.com/ghettovoice/sipstack/internal/util"
	"github.com/ghettovoice/sipstack/uri"
)

type (
	Addr           = types.Addr
	Params         = types.Params
	ProtoInfo      = types.ProtoInfo
	TransportProto = types.TransportProto
	RequestMethod  = types.RequestMethod
	ResponseStatus = types.ResponseStatus
	ResponseReason = types.ResponseReason
	RenderOptions  = types.RenderOptions
	URI            = uri.URI
)

const (
	RequestMethodAck      = types.RequestMethodAck
	RequestMethodBye      = types.RequestMethodBye
	RequestMethodCancel   = types.RequestMethodCancel
	RequestMethodInvite   = types.RequestMethodInvite
	RequestMethodOptions  = types.RequestMethodOptions
	RequestMethodRegister = types.RequestMethodRegister

	TransportUDP = types.TransportUDP
	TransportTCP = types.TransportTCP
	TransportTLS = types.TransportTLS

	ResponseStatusTrying  = types.ResponseStatusTrying
	ResponseStatusRinging = types.ResponseStatusRinging
	ResponseStatusOK      = types.ResponseStatusOK
)

var ProtoVer20 = types.ProtoVer20

const (
	// RFC3261BranchMagicCookie starts every branch generated by RFC 3261 compliant elements.
	RFC3261BranchMagicCookie = "z9hG4bK"
	// DefaultMaxForwards is the Max-Forwards value of requests built by the provider.
	DefaultMaxForwards = 70
	// DefaultPort is the default port of unsecured transports.
	DefaultPort uint16 = 5060
	// DefaultTLSPort is the default port of secured transports.
	DefaultTLSPort uint16 = 5061
)

// GenerateBranch returns a new Via branch with the RFC 3261 magic cookie.
func GenerateBranch() string {
	return RFC3261BranchMagicCookie + util.RandString(32)
}

// GenerateTag returns a new random From/To tag (RFC 3261 §19.3).
func GenerateTag() string {
	return util.RandString(16)
}

// TransactionID is an opaque transaction identifier issued by the [TransactionStack].
type TransactionID string
