// Package transaction implements an in-memory transaction table
// that serves as the [sip.TransactionStack] of a [sip.Stack].
package transaction

//go:generate errtrace -w .

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"braces.dev/errtrace"
	"github.com/google/uuid"

	"github.com/ghettovoice/sipstack/internal/errorutil"
	"github.com/ghettovoice/sipstack/internal/syncutil"
	"github.com/ghettovoice/sipstack/internal/timeutil"
	"github.com/ghettovoice/sipstack/internal/util"
	"github.com/ghettovoice/sipstack/log"
	"github.com/ghettovoice/sipstack/sip"
)

// ErrTableClosed is returned by a closed table.
const ErrTableClosed sip.Error = "transaction table closed"

// DefaultTimeout is the transaction lifetime, 64*T1 of RFC 3261 §17.1.1.2.
const DefaultTimeout = 64 * 500 * time.Millisecond

// MaxUnreliableSize is the size of the largest request sent over UDP
// while a TCP endpoint of the same host and port is bound.
const MaxUnreliableSize = 1300

// TableOptions are options of a [Table].
type TableOptions struct {
	// Transport sends messages of the transactions. Required.
	Transport sip.Transport
	// Timeout is the lifetime of a transaction, after which it is expired with [Table.Expire].
	// Defaults to [DefaultTimeout], negative value disables automatic expiration.
	Timeout time.Duration
	// Log is the table logger. Defaults to [log.Default].
	Log *slog.Logger
}

func (o *TableOptions) timeout() time.Duration {
	if o == nil || o.Timeout == 0 {
		return DefaultTimeout
	}
	return o.Timeout
}

func (o *TableOptions) log() *slog.Logger {
	if o == nil || o.Log == nil {
		return log.Default()
	}
	return o.Log
}

// Table keeps client and server transactions in memory.
// Transactions live until [Table.Expire] or [Table.Close] reclaims them.
//
// Table is safe for concurrent use.
type Table struct {
	transp  sip.Transport
	timeout time.Duration
	log     *slog.Logger

	clnTxs   syncutil.RWMap[sip.TransactionID, *entry]
	srvTxs   syncutil.RWMap[sip.TransactionID, *entry]
	clnIndex syncutil.RWMap[clientKey, sip.TransactionID]
	srvIndex syncutil.RWMap[serverKey, sip.TransactionID]

	closeOnce sync.Once
	closed    chan struct{}
}

var _ sip.TransactionStack = (*Table)(nil)

// NewTable creates a new transaction table.
func NewTable(opts *TableOptions) (*Table, error) {
	if opts == nil || opts.Transport == nil {
		return nil, errtrace.Wrap(sip.NewInvalidArgumentError("missing transport"))
	}
	return &Table{
		transp:  opts.Transport,
		timeout: opts.timeout(),
		log:     opts.log(),
		closed:  make(chan struct{}),
	}, nil
}

func (t *Table) isClosed() bool {
	select {
	case <-t.closed:
		return true
	default:
		return false
	}
}

// AllocateTransactionID returns a new random transaction identifier.
func (*Table) AllocateTransactionID(context.Context) sip.TransactionID {
	return sip.TransactionID(uuid.NewString())
}

// ProcessRequest sends the request to its destination and starts a client transaction.
// ACK requests are rejected, they belong to [Table.ProcessAckForTransaction]
// or [Table.SendStatelessRequest].
func (t *Table) ProcessRequest(
	ctx context.Context,
	req *sip.Request,
	prov *sip.Provider,
	txID sip.TransactionID,
) (sip.TransactionID, error) {
	if t.isClosed() {
		return "", errtrace.Wrap(ErrTableClosed)
	}
	if req == nil || prov == nil {
		return "", errtrace.Wrap(sip.NewInvalidArgumentError("nil request or provider"))
	}
	if req.Method.Equal(sip.RequestMethodAck) {
		return "", errtrace.Wrap(sip.NewInvalidArgumentError("ACK does not start a transaction"))
	}

	key, err := makeClientKey(req.Headers)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	if txID == "" {
		txID = t.AllocateTransactionID(ctx)
	}
	tx := &entry{id: txID, prov: prov, req: req, clnKey: key}
	if _, loaded := t.clnTxs.GetOrSet(txID, tx); loaded {
		return "", errtrace.Wrap(sip.NewInvalidArgumentError("client transaction %q already exists", txID))
	}
	if _, loaded := t.clnIndex.GetOrSet(key, txID); loaded {
		t.clnTxs.Del(txID)
		return "", errtrace.Wrap(sip.NewInvalidArgumentError("client transaction %v already exists", key))
	}

	if err := t.send(ctx, prov, req); err != nil {
		t.clnTxs.Del(txID)
		t.clnIndex.Del(key)
		return "", errtrace.Wrap(err)
	}
	t.startTimer(tx)

	t.log.LogAttrs(ctx, slog.LevelDebug, "client transaction started",
		slog.String("transaction_id", string(txID)),
		slog.Any("request", req),
	)
	return txID, nil
}

// ProcessAckForTransaction sends the ACK of the INVITE client transaction.
func (t *Table) ProcessAckForTransaction(ctx context.Context, txID sip.TransactionID, ack *sip.Request) error {
	if ack == nil || !ack.Method.Equal(sip.RequestMethodAck) {
		return errtrace.Wrap(sip.NewInvalidArgumentError("not an ACK request"))
	}
	tx, err := t.lookup(&t.clnTxs, txID)
	if err != nil {
		return errtrace.Wrap(err)
	}
	if !tx.req.Method.Equal(sip.RequestMethodInvite) {
		return errtrace.Wrap(sip.NewInvalidArgumentError("transaction %q is not INVITE", txID))
	}
	return errtrace.Wrap(t.send(ctx, tx.prov, ack))
}

// SendStatelessRequest sends the request without creating a transaction.
func (t *Table) SendStatelessRequest(ctx context.Context, req *sip.Request, prov *sip.Provider) error {
	if t.isClosed() {
		return errtrace.Wrap(ErrTableClosed)
	}
	if req == nil || prov == nil {
		return errtrace.Wrap(sip.NewInvalidArgumentError("nil request or provider"))
	}
	return errtrace.Wrap(t.send(ctx, prov, req))
}

// send sends the request from the provider endpoint.
// A request larger than [MaxUnreliableSize] leaves from the TCP endpoint of the same host and port
// when the stack has one (RFC 3261 §18.1.1), falling back to the provider endpoint if that send fails.
func (t *Table) send(ctx context.Context, prov *sip.Provider, req *sip.Request) error {
	dst, err := sip.RequestDestination(req)
	if err != nil {
		return errtrace.Wrap(err)
	}

	if ep, ok := reliableEndpoint(prov, req); ok {
		err := t.transp.Send(ctx, &sip.MessageContext{
			Message:     withViaTransport(req, ep.Transport()),
			Endpoint:    ep,
			Destination: dst,
		})
		if err == nil {
			return nil
		}
		t.log.LogAttrs(ctx, slog.LevelWarn, "failed to send request over reliable transport, revert to provider endpoint",
			slog.Any("endpoint", ep),
			slog.Any("error", err),
		)
	}

	return errtrace.Wrap(t.transp.Send(ctx, &sip.MessageContext{
		Message:     req,
		Endpoint:    prov.Endpoint(),
		Destination: dst,
	}))
}

// reliableEndpoint returns the TCP endpoint to send the oversized request from.
func reliableEndpoint(prov *sip.Provider, req *sip.Request) (sip.ListeningEndpoint, bool) {
	ep := prov.Endpoint()
	if ep.IsReliable() || prov.Stack() == nil {
		return sip.ListeningEndpoint{}, false
	}
	if len(req.Render(nil)) <= MaxUnreliableSize {
		return sip.ListeningEndpoint{}, false
	}
	tcp, ok := prov.Stack().LookupEndpoint(sip.TransportTCP, ep)
	if !ok || tcp.Host() != ep.Host() || tcp.Port() != ep.Port() {
		return sip.ListeningEndpoint{}, false
	}
	return tcp, true
}

// withViaTransport returns a copy of the request with the transport of the top Via replaced.
func withViaTransport(req *sip.Request, proto sip.TransportProto) *sip.Request {
	out := req.Clone()
	via, ok := out.Headers.Via()
	if !ok {
		return out
	}
	hop, _ := via.Top()
	hop.Transport = proto
	out.Headers.Set(via.WithTop(hop))
	return out
}

// ProcessResponse sends the response within the server transaction.
func (t *Table) ProcessResponse(ctx context.Context, res *sip.Response, txID sip.TransactionID) error {
	if res == nil {
		return errtrace.Wrap(sip.NewInvalidArgumentError("nil response"))
	}
	tx, err := t.lookup(&t.srvTxs, txID)
	if err != nil {
		return errtrace.Wrap(err)
	}
	dst, err := sip.ResponseDestination(res)
	if err != nil {
		return errtrace.Wrap(err)
	}

	tx.update(res)
	return errtrace.Wrap(t.transp.Send(ctx, &sip.MessageContext{
		Message:     res,
		Endpoint:    tx.prov.Endpoint(),
		Destination: dst,
	}))
}

// ReceiveRequest handles a request received on the provider endpoint.
//
// A new request starts a server transaction and is dispatched to the provider listeners.
// A retransmission is answered with the most recent response and is not dispatched again.
// An ACK matching an INVITE server transaction is dispatched with that transaction identifier,
// other ACKs are dispatched with an empty identifier.
func (t *Table) ReceiveRequest(ctx context.Context, prov *sip.Provider, req *sip.Request) (sip.TransactionID, error) {
	if t.isClosed() {
		return "", errtrace.Wrap(ErrTableClosed)
	}
	if req == nil || prov == nil {
		return "", errtrace.Wrap(sip.NewInvalidArgumentError("nil request or provider"))
	}

	key, err := makeServerKey(req.Headers)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	if req.Method.Equal(sip.RequestMethodAck) {
		txID, _ := t.srvIndex.Get(key)
		return txID, errtrace.Wrap(prov.HandleEvent(ctx, &sip.RequestEvent{
			Source:        prov,
			TransactionID: txID,
			Request:       req,
		}))
	}

	txID := t.AllocateTransactionID(ctx)
	if existing, loaded := t.srvIndex.GetOrSet(key, txID); loaded {
		return existing, errtrace.Wrap(t.retransmit(ctx, existing))
	}
	tx := &entry{id: txID, prov: prov, req: req, srvKey: key, server: true}
	t.srvTxs.Set(txID, tx)
	t.startTimer(tx)

	t.log.LogAttrs(ctx, slog.LevelDebug, "server transaction started",
		slog.String("transaction_id", string(txID)),
		slog.Any("request", req),
	)

	if err := prov.HandleEvent(ctx, &sip.RequestEvent{
		Source:        prov,
		TransactionID: txID,
		Request:       req,
	}); err != nil {
		t.reclaim(tx)
		return "", errtrace.Wrap(err)
	}
	return txID, nil
}

func (t *Table) retransmit(ctx context.Context, txID sip.TransactionID) error {
	tx, ok := t.srvTxs.Get(txID)
	if !ok {
		return nil
	}
	res := tx.state().MostRecentResponse
	if res == nil {
		return nil
	}
	t.log.LogAttrs(ctx, slog.LevelDebug, "resend response on request retransmission",
		slog.String("transaction_id", string(txID)),
		slog.Any("response", res),
	)
	return errtrace.Wrap(t.ProcessResponse(ctx, res, txID))
}

// ReceiveResponse matches the response to a client transaction by the top Via branch
// and the CSeq method (RFC 3261 §17.1.3) and dispatches it to the provider
// that sent the request. Stray responses fail with [sip.ErrTransactionNotFound].
func (t *Table) ReceiveResponse(ctx context.Context, res *sip.Response) (sip.TransactionID, error) {
	if t.isClosed() {
		return "", errtrace.Wrap(ErrTableClosed)
	}
	if res == nil {
		return "", errtrace.Wrap(sip.NewInvalidArgumentError("nil response"))
	}

	key, err := makeClientKey(res.Headers)
	if err != nil {
		return "", errtrace.Wrap(err)
	}
	txID, ok := t.clnIndex.Get(key)
	if !ok {
		return "", errtrace.Wrap(errorutil.NewWrapperError(sip.ErrTransactionNotFound, "stray response"))
	}
	tx, err := t.lookup(&t.clnTxs, txID)
	if err != nil {
		return "", errtrace.Wrap(err)
	}

	tx.update(res)
	return txID, errtrace.Wrap(tx.prov.HandleEvent(ctx, &sip.ResponseEvent{
		Source:        tx.prov,
		TransactionID: txID,
		Response:      res,
	}))
}

// Expire reports the transaction timeout to the provider of the transaction
// and reclaims its state. Later lookups fail with [sip.ErrTransactionNotFound].
func (t *Table) Expire(ctx context.Context, txID sip.TransactionID, server bool) error {
	store := &t.clnTxs
	if server {
		store = &t.srvTxs
	}
	tx, err := t.lookup(store, txID)
	if err != nil {
		return errtrace.Wrap(err)
	}
	t.reclaim(tx)

	t.log.LogAttrs(ctx, slog.LevelDebug, "transaction expired",
		slog.String("transaction_id", string(txID)),
		slog.Bool("server", server),
	)

	err = tx.prov.HandleEvent(ctx, &sip.TimeoutEvent{
		Source:        tx.prov,
		TransactionID: txID,
		Timeout:       sip.TimeoutTransaction,
		IsServer:      server,
	})
	if errors.Is(err, sip.ErrProviderStopped) {
		return nil
	}
	return errtrace.Wrap(err)
}

// Terminate reclaims the transaction state without notifying the provider.
func (t *Table) Terminate(txID sip.TransactionID, server bool) bool {
	store := &t.clnTxs
	if server {
		store = &t.srvTxs
	}
	tx, ok := store.Get(txID)
	if !ok {
		return false
	}
	t.reclaim(tx)
	return true
}

func (t *Table) startTimer(tx *entry) {
	if t.timeout < 0 {
		return
	}
	tx.setTimer(timeutil.AfterFunc(t.timeout, func() {
		ctx := context.Background()
		if err := t.Expire(ctx, tx.id, tx.server); err != nil && !errors.Is(err, sip.ErrTransactionNotFound) {
			t.log.LogAttrs(ctx, slog.LevelWarn, "failed to expire transaction",
				slog.String("transaction_id", string(tx.id)),
				slog.Any("error", err),
			)
		}
	}))
}

func (t *Table) reclaim(tx *entry) {
	tx.stopTimer()
	if tx.server {
		t.srvTxs.Del(tx.id)
		t.srvIndex.Del(tx.srvKey)
		return
	}
	t.clnTxs.Del(tx.id)
	t.clnIndex.Del(tx.clnKey)
}

// ClientTransaction returns the state of the client transaction.
func (t *Table) ClientTransaction(_ context.Context, txID sip.TransactionID) (sip.TransactionState, error) {
	tx, err := t.lookup(&t.clnTxs, txID)
	if err != nil {
		return sip.TransactionState{}, errtrace.Wrap(err)
	}
	return tx.state(), nil
}

// ServerTransaction returns the state of the server transaction.
func (t *Table) ServerTransaction(_ context.Context, txID sip.TransactionID) (sip.TransactionState, error) {
	tx, err := t.lookup(&t.srvTxs, txID)
	if err != nil {
		return sip.TransactionState{}, errtrace.Wrap(err)
	}
	return tx.state(), nil
}

func (*Table) lookup(store *syncutil.RWMap[sip.TransactionID, *entry], txID sip.TransactionID) (*entry, error) {
	if txID == "" {
		return nil, errtrace.Wrap(sip.NewInvalidArgumentError("empty transaction id"))
	}
	tx, ok := store.Get(txID)
	if !ok {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(sip.ErrTransactionNotFound, "transaction %q", txID))
	}
	return tx, nil
}

// Len returns the number of client and server transactions in the table.
func (t *Table) Len() (clients, servers int) { return t.clnTxs.Len(), t.srvTxs.Len() }

// Close reclaims all transactions without notifying the providers.
// Closed table rejects new transactions.
func (t *Table) Close() error {
	t.closeOnce.Do(func() {
		close(t.closed)
		for _, tx := range t.clnTxs.All() {
			t.reclaim(tx)
		}
		for _, tx := range t.srvTxs.All() {
			t.reclaim(tx)
		}
	})
	return nil
}

type entry struct {
	id     sip.TransactionID
	prov   *sip.Provider
	req    *sip.Request
	server bool
	clnKey clientKey
	srvKey serverKey

	mu    sync.Mutex
	last  *sip.Response
	final *sip.Response
	timer *timeutil.Timer
}

func (tx *entry) setTimer(tmr *timeutil.Timer) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.timer = tmr
}

func (tx *entry) stopTimer() {
	tx.mu.Lock()
	tmr := tx.timer
	tx.mu.Unlock()
	tmr.Stop()
}

func (tx *entry) update(res *sip.Response) {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	tx.last = res
	if res.Status.IsFinal() {
		tx.final = res
	}
}

func (tx *entry) state() sip.TransactionState {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return sip.TransactionState{
		OriginalRequest:    tx.req,
		MostRecentResponse: tx.last,
		FinalResponse:      tx.final,
	}
}

// clientKey matches responses to client transactions (RFC 3261 §17.1.3).
type clientKey struct {
	branch string
	method sip.RequestMethod
}

func makeClientKey(hdrs sip.Headers) (clientKey, error) {
	via, ok := hdrs.Via()
	if !ok || len(via) == 0 {
		return clientKey{}, errtrace.Wrap(errorutil.NewWrapperError(sip.ErrMalformedRequest, "missing Via"))
	}
	cseq, ok := hdrs.CSeq()
	if !ok {
		return clientKey{}, errtrace.Wrap(errorutil.NewWrapperError(sip.ErrMalformedRequest, "missing CSeq"))
	}
	hop, _ := via.Top()
	return clientKey{branch: hop.Branch(), method: util.UCase(cseq.Method)}, nil
}

// serverKey matches requests to server transactions (RFC 3261 §17.2.3).
// ACK is matched to the INVITE transaction it acknowledges.
type serverKey struct {
	branch string
	sentBy string
	method sip.RequestMethod
}

func makeServerKey(hdrs sip.Headers) (serverKey, error) {
	ck, err := makeClientKey(hdrs)
	if err != nil {
		return serverKey{}, errtrace.Wrap(err)
	}
	via, _ := hdrs.Via()
	hop, _ := via.Top()

	method := ck.method
	if method.Equal(sip.RequestMethodAck) {
		method = sip.RequestMethodInvite
	}
	return serverKey{
		branch: ck.branch,
		sentBy: util.LCase(hop.Addr.String()),
		method: method,
	}, nil
}
