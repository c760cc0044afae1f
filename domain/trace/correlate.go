// Package trace folds classified log entries into request/response
// transactions. A message type that names a ResponseType is a request;
// entries of the named type are its responses, matched by node and by
// the transaction id extracted at the type's TransIdPosition.
package trace

import (
	"time"

	"github.com/parsedesk/parsedesk/domain/schema"
)

// Entry is one already-classified log line. Payload is the cleaned
// message content, the same bytes field rendering operates on.
type Entry struct {
	Node      string
	Type      string
	Version   string
	Direction string
	Payload   string
	Timestamp time.Time
	Line      int
}

// Transaction groups the retries of one request with its response.
type Transaction struct {
	Node     string
	TransID  string
	Requests []*Entry
	Response *Entry
}

// LatestRequest returns the most recent request, or nil.
func (t *Transaction) LatestRequest() *Entry {
	if len(t.Requests) == 0 {
		return nil
	}
	return t.Requests[len(t.Requests)-1]
}

// StartTime returns the timestamp of the first request.
func (t *Transaction) StartTime() time.Time {
	if len(t.Requests) == 0 {
		return time.Time{}
	}
	return t.Requests[0].Timestamp
}

// Item is one element of a correlated stream: either a plain entry or a
// folded transaction, never both.
type Item struct {
	Entry       *Entry
	Transaction *Transaction
}

// Correlator matches entries against one namespace's schema document.
type Correlator struct {
	doc       *schema.Document
	reqToResp map[string]string
	respToReq map[string]string
}

// NewCorrelator precomputes the request/response type maps. When several
// request types name the same response type, the last one declared wins
// the reverse mapping.
func NewCorrelator(doc *schema.Document) *Correlator {
	c := &Correlator{
		doc:       doc,
		reqToResp: make(map[string]string),
		respToReq: make(map[string]string),
	}
	if doc != nil {
		doc.Range(func(typeName string, mt *schema.MessageType) bool {
			if mt != nil && mt.ResponseType != "" {
				c.reqToResp[typeName] = mt.ResponseType
				c.respToReq[mt.ResponseType] = typeName
			}
			return true
		})
	}
	return c
}

// Correlate runs two-pass grouping over the entries. Pass one buckets
// requests and responses by (node, transaction id); pass two emits the
// stream in input order, anchoring each transaction at its latest
// request. Entries of unconfigured types, entries without an extractable
// transaction id, orphan responses and repeated responses all pass
// through as plain entries.
func (c *Correlator) Correlate(entries []Entry) []Item {
	if len(entries) == 0 {
		return nil
	}

	es := make([]*Entry, len(entries))
	for i := range entries {
		e := entries[i]
		es[i] = &e
	}

	type key struct {
		node    string
		transID string
	}
	txs := make(map[key]*Transaction)
	ref := make(map[*Entry]*Transaction)

	for _, e := range es {
		_, isRequest := c.reqToResp[e.Type]
		_, isResponse := c.respToReq[e.Type]
		if !isRequest && !isResponse {
			continue
		}
		transID := c.transID(e)
		if transID == "" {
			continue
		}

		k := key{node: e.Node, transID: transID}
		tx, ok := txs[k]
		if !ok {
			tx = &Transaction{Node: e.Node, TransID: transID}
			txs[k] = tx
		}

		if isRequest {
			tx.Requests = append(tx.Requests, e)
			ref[e] = tx
		} else if tx.Response == nil {
			tx.Response = e
			ref[e] = tx
		}
		// A second response for the same transaction stays a plain entry.
	}

	var out []Item
	added := make(map[*Transaction]bool)
	for _, e := range es {
		tx := ref[e]
		if tx == nil {
			out = append(out, Item{Entry: e})
			continue
		}
		if added[tx] {
			continue
		}
		if len(tx.Requests) > 0 {
			if e == tx.LatestRequest() {
				out = append(out, Item{Transaction: tx})
				added[tx] = true
			}
			continue
		}
		// Orphan response: nothing to fold, keep it plain.
		out = append(out, Item{Entry: e})
		added[tx] = true
	}
	return out
}

// transID extracts the transaction id from the entry payload. Responses
// use the span of their request type. The full span must be present;
// a short payload yields no id.
func (c *Correlator) transID(e *Entry) string {
	target := e.Type
	if req, ok := c.respToReq[e.Type]; ok {
		target = req
	}

	span := schema.DefaultTransIDSpan
	if c.doc != nil {
		if mt, ok := c.doc.Get(target); ok {
			span = mt.TransIDSpan()
		}
	}

	if len(e.Payload) < span.Start+span.Length {
		return ""
	}
	return e.Payload[span.Start : span.Start+span.Length]
}
