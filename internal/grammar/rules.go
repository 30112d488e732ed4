package grammar

import "github.com/ghettovoice/abnf"

func lit(s string) abnf.Operator { return abnf.Literal(s, []byte(s)) }

var (
	alpha = abnf.Alt(
		"ALPHA",
		abnf.Range("%x41-5A", []byte{0x41}, []byte{0x5A}),
		abnf.Range("%x61-7A", []byte{0x61}, []byte{0x7A}),
	)
	digit    = abnf.Range("DIGIT", []byte{0x30}, []byte{0x39})
	alphanum = abnf.Alt("alphanum", alpha, digit)

	// token = 1*(alphanum / "-" / "." / "!" / "%" / "*" / "_" / "+" / "`" / "'" / "~")
	token = abnf.Repeat1Inf(
		"token",
		abnf.Alt(
			"token-char",
			alphanum,
			lit("-"), lit("."), lit("!"), lit("%"), lit("*"),
			lit("_"), lit("+"), lit("`"), lit("'"), lit("~"),
		),
	)

	// domainlabel = alphanum / alphanum *( alphanum / "-" ) alphanum
	// The closing alphanum of a label is checked by IsHost.
	domainlabel = abnf.Concat(
		"domainlabel",
		alphanum,
		abnf.Repeat0Inf("domainlabel-tail", abnf.Alt("domainlabel-char", alphanum, lit("-"))),
	)

	// hostname = *( domainlabel "." ) toplabel [ "." ]
	hostname = abnf.Concat(
		"hostname",
		domainlabel,
		abnf.Repeat0Inf("hostname-labels", abnf.Concat("hostname-label", lit("."), domainlabel)),
		abnf.Optional("hostname-dot", lit(".")),
	)
)
