// Package sip implements the provider layer of a SIP stack (RFC 3261).
//
// A [Stack] is the registry of listening endpoints and providers. A [Provider] is bound
// to exactly one [ListeningEndpoint]; it fans inbound events out to registered
// [Listener]s and builds outbound in-dialog requests (ACK, BYE, CANCEL) and responses
// from the state of prior transactions.
//
// Transaction bookkeeping, wire transport and message construction are delegated to
// collaborators given to the stack at construction time:
//
//   - [TransactionStack] performs request/response routing and keeps transaction state;
//   - [Transport] binds endpoints and sends stateless messages;
//   - [MessageFactory] builds requests, responses and headers from explicit field values.
//
// Typical wiring:
//
//	stack, err := sip.NewStack(&sip.StackOptions{
//	    TransactionStack: txTable,
//	    Transport:        netTransport,
//	})
//	ep := stack.NewListeningEndpoint(ctx, &sip.EndpointConfig{Host: "0.0.0.0", Transport: "udp"})
//	prov, err := stack.CreateProvider(ctx, ep, nil)
//	prov.AddListener(myListener)
//	prov.Start(ctx)
//
// Messages and headers are values: every header returned from a message is a copy,
// so requests built from a previous transaction never alias its messages.
package sip

//go:generate errtrace -w .
//go:generate mockgen -destination=sipmock/mock.go -package=sipmock . TransactionStack,Transport,Listener,MetricsRecorder
