package types

import (
	"github.com/ghettovoice/sipstack/internal/grammar"
	"github.com/ghettovoice/sipstack/internal/util"
)

// ProtoInfo is a protocol name and version, e.g. SIP/2.0.
type ProtoInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ProtoVer20 is the SIP/2.0 protocol.
var ProtoVer20 = ProtoInfo{Name: "SIP", Version: "2.0"}

func (p ProtoInfo) String() string { return p.Name + "/" + p.Version }

func (p ProtoInfo) Equal(val any) bool {
	return Equal(val, func(other ProtoInfo) bool {
		return util.EqFold(p.Name, other.Name) && util.EqFold(p.Version, other.Version)
	})
}

func (p ProtoInfo) IsValid() bool { return grammar.IsToken(p.Name) && grammar.IsToken(p.Version) }

func (p ProtoInfo) IsZero() bool { return p.Name == "" && p.Version == "" }

const (
	TransportUDP  TransportProto = "UDP"
	TransportTCP  TransportProto = "TCP"
	TransportTLS  TransportProto = "TLS"
	TransportSCTP TransportProto = "SCTP"
	TransportWS   TransportProto = "WS"
	TransportWSS  TransportProto = "WSS"
)

// TransportProto is a transport token as it appears in Via headers and transport URI parameters.
type TransportProto string

func (p TransportProto) ToUpper() TransportProto { return util.UCase(p) }

func (p TransportProto) ToLower() TransportProto { return util.LCase(p) }

func (p TransportProto) IsValid() bool { return grammar.IsToken(p) }

func (p TransportProto) Equal(val any) bool {
	return Equal(val, func(other TransportProto) bool { return util.EqFold(p, other) })
}

const (
	RequestMethodAck       RequestMethod = "ACK"
	RequestMethodBye       RequestMethod = "BYE"
	RequestMethodCancel    RequestMethod = "CANCEL"
	RequestMethodInfo      RequestMethod = "INFO"
	RequestMethodInvite    RequestMethod = "INVITE"
	RequestMethodMessage   RequestMethod = "MESSAGE"
	RequestMethodNotify    RequestMethod = "NOTIFY"
	RequestMethodOptions   RequestMethod = "OPTIONS"
	RequestMethodPrack     RequestMethod = "PRACK"
	RequestMethodRefer     RequestMethod = "REFER"
	RequestMethodRegister  RequestMethod = "REGISTER"
	RequestMethodSubscribe RequestMethod = "SUBSCRIBE"
	RequestMethodUpdate    RequestMethod = "UPDATE"
)

// RequestMethod is a SIP request method. Methods are case-sensitive on the wire,
// but the well-known ones are compared case-insensitively.
type RequestMethod string

func (m RequestMethod) ToUpper() RequestMethod { return util.UCase(m) }

func (m RequestMethod) IsValid() bool { return grammar.IsToken(m) }

func (m RequestMethod) Equal(val any) bool {
	return Equal(val, func(other RequestMethod) bool { return util.EqFold(m, other) })
}
