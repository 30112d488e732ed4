package types

import "strconv"

const (
	ResponseStatusTrying          ResponseStatus = 100
	ResponseStatusRinging         ResponseStatus = 180
	ResponseStatusSessionProgress ResponseStatus = 183

	ResponseStatusOK       ResponseStatus = 200
	ResponseStatusAccepted ResponseStatus = 202

	ResponseStatusMovedTemporarily ResponseStatus = 302

	ResponseStatusBadRequest                  ResponseStatus = 400
	ResponseStatusUnauthorized                ResponseStatus = 401
	ResponseStatusForbidden                   ResponseStatus = 403
	ResponseStatusNotFound                    ResponseStatus = 404
	ResponseStatusMethodNotAllowed            ResponseStatus = 405
	ResponseStatusProxyAuthenticationRequired ResponseStatus = 407
	ResponseStatusRequestTimeout              ResponseStatus = 408
	ResponseStatusUnsupportedMediaType        ResponseStatus = 415
	ResponseStatusTemporarilyUnavailable      ResponseStatus = 480
	ResponseStatusCallTransactionDoesNotExist ResponseStatus = 481
	ResponseStatusLoopDetected                ResponseStatus = 482
	ResponseStatusTooManyHops                 ResponseStatus = 483
	ResponseStatusBusyHere                    ResponseStatus = 486
	ResponseStatusRequestTerminated           ResponseStatus = 487
	ResponseStatusNotAcceptableHere           ResponseStatus = 488

	ResponseStatusServerInternalError ResponseStatus = 500
	ResponseStatusNotImplemented      ResponseStatus = 501
	ResponseStatusServiceUnavailable  ResponseStatus = 503
	ResponseStatusVersionNotSupported ResponseStatus = 505
	ResponseStatusMessageTooLarge     ResponseStatus = 513

	ResponseStatusBusyEverywhere ResponseStatus = 600
	ResponseStatusDecline        ResponseStatus = 603
)

type ResponseStatus uint

func (s ResponseStatus) IsValid() bool { return s >= 100 && s < 700 }

func (s ResponseStatus) Equal(val any) bool {
	return Equal(val, func(other ResponseStatus) bool { return s == other })
}

func (s ResponseStatus) IsProvisional() bool { return s >= 100 && s < 200 }

func (s ResponseStatus) IsSuccessful() bool { return s >= 200 && s < 300 }

func (s ResponseStatus) IsFinal() bool { return s >= 200 && s < 700 }

// Class returns the status class label, e.g. "2xx".
func (s ResponseStatus) Class() string {
	if !s.IsValid() {
		return "invalid"
	}
	return strconv.Itoa(int(s/100)) + "xx"
}

// Reason returns the default reason phrase, it is empty for unknown codes.
func (s ResponseStatus) Reason() ResponseReason { return responseReasons[s] }

func (s ResponseStatus) String() string { return strconv.Itoa(int(s)) + " " + string(s.Reason()) }

type ResponseReason string

var responseReasons = map[ResponseStatus]ResponseReason{
	ResponseStatusTrying:          "Trying",
	ResponseStatusRinging:         "Ringing",
	ResponseStatusSessionProgress: "Session Progress",

	ResponseStatusOK:       "OK",
	ResponseStatusAccepted: "Accepted",

	ResponseStatusMovedTemporarily: "Moved Temporarily",

	ResponseStatusBadRequest:                  "Bad Request",
	ResponseStatusUnauthorized:                "Unauthorized",
	ResponseStatusForbidden:                   "Forbidden",
	ResponseStatusNotFound:                    "Not Found",
	ResponseStatusMethodNotAllowed:            "Method Not Allowed",
	ResponseStatusProxyAuthenticationRequired: "Proxy Authentication Required",
	ResponseStatusRequestTimeout:              "Request Timeout",
	ResponseStatusUnsupportedMediaType:        "Unsupported Media Type",
	ResponseStatusTemporarilyUnavailable:      "Temporarily Unavailable",
	ResponseStatusCallTransactionDoesNotExist: "Call/Transaction Does Not Exist",
	ResponseStatusLoopDetected:                "Loop Detected",
	ResponseStatusTooManyHops:                 "Too Many Hops",
	ResponseStatusBusyHere:                    "Busy Here",
	ResponseStatusRequestTerminated:           "Request Terminated",
	ResponseStatusNotAcceptableHere:           "Not Acceptable Here",

	ResponseStatusServerInternalError: "Server Internal Error",
	ResponseStatusNotImplemented:      "Not Implemented",
	ResponseStatusServiceUnavailable:  "Service Unavailable",
	ResponseStatusVersionNotSupported: "Version Not Supported",
	ResponseStatusMessageTooLarge:     "Message Too Large",

	ResponseStatusBusyEverywhere: "Busy Everywhere",
	ResponseStatusDecline:        "Decline",
}
