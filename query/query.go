// Package query is the compatibility client over the entity store. It
// keeps the fluent shape of a remote-database SDK: From(table).Select().
// Eq().Order().Limit() resolved to a {data, error} result. Callers
// written against such a client port over unchanged, while the typed
// accessors on store back everything new.
package query

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"subiclife/dispatch"
	"subiclife/models"
	"subiclife/store"
)

// Error is the untyped error payload of a result.
type Error struct {
	Message string `json:"message"`
}

// Result mirrors the {data, error} tuple shape of the client interface.
type Result struct {
	Data  any
	Error *Error
}

func errResult(format string, args ...any) Result {
	return Result{Error: &Error{Message: fmt.Sprintf(format, args...)}}
}

type Client struct {
	st  *store.Store
	bus *dispatch.Dispatcher
}

func NewClient(st *store.Store, bus *dispatch.Dispatcher) *Client {
	return &Client{st: st, bus: bus}
}

func (c *Client) From(table string) *Query {
	return &Query{c: c, table: table, orderAsc: true}
}

type pred struct {
	col  string
	vals []string // one entry for eq, many for in
}

type joinSpec struct {
	alias string
	table string
}

// Query accumulates filters lazily; nothing touches the store until
// Execute, Single, or MaybeSingle runs.
type Query struct {
	c        *Client
	table    string
	selected bool
	joins    []joinSpec
	preds    []pred
	orderCol string
	orderAsc bool
	limit    int
}

// Select records join directives of the form "alias:table(*)". Scalar
// column lists are accepted but not applied: full records always come
// back, matching the client this imitates.
func (q *Query) Select(columns string) *Query {
	q.selected = true
	for _, part := range strings.Split(columns, ",") {
		part = strings.TrimSpace(part)
		open := strings.Index(part, "(")
		colon := strings.Index(part, ":")
		if colon <= 0 || open <= colon {
			continue
		}
		q.joins = append(q.joins, joinSpec{
			alias: part[:colon],
			table: part[colon+1 : open],
		})
	}
	return q
}

func (q *Query) Eq(column string, value any) *Query {
	q.preds = append(q.preds, pred{col: column, vals: []string{stringValue(value)}})
	return q
}

func (q *Query) In(column string, values []any) *Query {
	p := pred{col: column}
	for _, v := range values {
		p.vals = append(p.vals, stringValue(v))
	}
	q.preds = append(q.preds, p)
	return q
}

func (q *Query) Order(column string, ascending bool) *Query {
	q.orderCol = column
	q.orderAsc = ascending
	return q
}

func (q *Query) Limit(n int) *Query {
	q.limit = n
	return q
}

// Execute resolves the query to the full matching row set.
func (q *Query) Execute() Result {
	rows, ok := q.c.rows(q.table)
	if !ok {
		return errResult("unknown table %q", q.table)
	}
	rows = q.filter(rows)
	q.sortRows(rows)
	if q.limit > 0 && len(rows) > q.limit {
		rows = rows[:q.limit]
	}
	q.c.attachJoins(q.table, rows, q.joins)
	return Result{Data: rows}
}

// Single resolves to the first match, or a not-found error.
func (q *Query) Single() Result {
	res := q.Execute()
	if res.Error != nil {
		return res
	}
	rows := res.Data.([]map[string]any)
	if len(rows) == 0 {
		return errResult("no rows found in %q", q.table)
	}
	return Result{Data: rows[0]}
}

// MaybeSingle resolves to the first match, or nil data without an error.
func (q *Query) MaybeSingle() Result {
	res := q.Execute()
	if res.Error != nil {
		return res
	}
	rows := res.Data.([]map[string]any)
	if len(rows) == 0 {
		return Result{}
	}
	return Result{Data: rows[0]}
}

func (q *Query) filter(rows []map[string]any) []map[string]any {
	if len(q.preds) == 0 {
		return rows
	}
	var out []map[string]any
	for _, row := range rows {
		if matchesAll(row, q.preds) {
			out = append(out, row)
		}
	}
	return out
}

func matchesAll(row map[string]any, preds []pred) bool {
	for _, p := range preds {
		got := stringValue(row[p.col])
		found := false
		for _, want := range p.vals {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (q *Query) sortRows(rows []map[string]any) {
	if q.orderCol == "" {
		return
	}
	col, asc := q.orderCol, q.orderAsc
	sort.SliceStable(rows, func(i, j int) bool {
		less := lessValue(rows[i][col], rows[j][col])
		if asc {
			return less
		}
		return lessValue(rows[j][col], rows[i][col])
	})
}

func lessValue(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return stringValue(a) < stringValue(b)
}

// ---------- Mutations ----------

// Insert routes one record or a slice of records to the matching store
// action, synthesizing ids and created_at timestamps. An unrecognized
// table yields an error rather than the silent drop of the client this
// replaces.
func (q *Query) Insert(data any) Result {
	switch rows := data.(type) {
	case []map[string]any:
		out := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			res := q.insertOne(row)
			if res.Error != nil {
				return res
			}
			out = append(out, res.Data.(map[string]any))
		}
		return Result{Data: out}
	case []any:
		out := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			res := q.insertOne(row)
			if res.Error != nil {
				return res
			}
			out = append(out, res.Data.(map[string]any))
		}
		return Result{Data: out}
	default:
		return q.insertOne(data)
	}
}

func (q *Query) insertOne(data any) Result {
	switch q.table {
	case store.TableUsers:
		var u models.User
		if err := rebind(data, &u); err != nil {
			return errResult("insert into %q: %v", q.table, err)
		}
		return Result{Data: toRow(q.c.st.AddUser(u))}
	case store.TablePartners:
		var p models.Partner
		if err := rebind(data, &p); err != nil {
			return errResult("insert into %q: %v", q.table, err)
		}
		return Result{Data: toRow(q.c.st.AddPartner(p))}
	case store.TableBookings:
		var b models.Booking
		if err := rebind(data, &b); err != nil {
			return errResult("insert into %q: %v", q.table, err)
		}
		if b.Status == "" {
			b.Status = models.StatusPending
		}
		if b.PaymentStatus == "" {
			b.PaymentStatus = models.PaymentPending
		}
		return Result{Data: toRow(q.c.st.AddBooking(b))}
	case store.TableCounterOffers:
		var o models.CounterOffer
		if err := rebind(data, &o); err != nil {
			return errResult("insert into %q: %v", q.table, err)
		}
		if o.Status == "" {
			o.Status = models.OfferPending
		}
		return Result{Data: toRow(q.c.st.AddCounterOffer(o))}
	case store.TableNotifications:
		var n models.Notification
		if err := rebind(data, &n); err != nil {
			return errResult("insert into %q: %v", q.table, err)
		}
		return Result{Data: toRow(q.c.st.AddNotification(n))}
	default:
		return errResult("unknown table %q", q.table)
	}
}

// Update stages a partial update; the terminal Eq applies it.
func (q *Query) Update(partial map[string]any) *UpdateQuery {
	return &UpdateQuery{q: q, partial: partial}
}

type UpdateQuery struct {
	q       *Query
	partial map[string]any
}

// Eq applies the staged partial to every record whose column equals
// value, resolving with the first updated record. Zero matches resolve
// to {nil, nil}: the documented no-op.
func (u *UpdateQuery) Eq(column string, value any) Result {
	rows, ok := u.q.c.rows(u.q.table)
	if !ok {
		return errResult("unknown table %q", u.q.table)
	}
	want := stringValue(value)
	var first map[string]any
	for _, row := range rows {
		if stringValue(row[column]) != want {
			continue
		}
		id, _ := row["id"].(string)
		updated, applied := u.q.c.applyPartial(u.q.table, id, u.partial)
		if applied && first == nil {
			first = updated
		}
	}
	if first == nil {
		return Result{}
	}
	return Result{Data: first}
}

// applyPartial merges a column map into the typed record behind id via
// the table's store update action.
func (c *Client) applyPartial(table, id string, partial map[string]any) (map[string]any, bool) {
	switch table {
	case store.TableUsers:
		u, ok := c.st.UpdateUser(id, func(u *models.User) { merge(u, partial) })
		return toRow(u), ok
	case store.TableBookings:
		b, ok := c.st.UpdateBooking(id, func(b *models.Booking) { merge(b, partial) })
		return toRow(b), ok
	case store.TableCounterOffers:
		o, ok := c.st.UpdateCounterOffer(id, func(o *models.CounterOffer) { merge(o, partial) })
		return toRow(o), ok
	case store.TableNotifications:
		if read, ok := partial["read"].(bool); ok && read {
			n, updated := c.st.MarkNotificationRead(id)
			return toRow(n), updated
		}
		return nil, false
	default:
		return nil, false
	}
}

// ---------- RPC ----------

// Rpc emulates the remote procedure surface. Only add_points exists.
func (c *Client) Rpc(name string, params map[string]any) Result {
	switch name {
	case "add_points":
		userID, _ := params["user_id"].(string)
		pts := 0
		switch v := params["points"].(type) {
		case int:
			pts = v
		case float64:
			pts = int(v)
		}
		u, ok := c.st.AddPoints(userID, pts)
		if !ok {
			return errResult("no rows found in %q", store.TableUsers)
		}
		return Result{Data: toRow(u)}
	default:
		return errResult("rpc %q is not implemented", name)
	}
}

// ---------- Realtime channels ----------

type Channel struct {
	c    *Client
	name string
	subs []dispatch.Subscription
}

func (c *Client) Channel(name string) *Channel {
	return &Channel{c: c, name: name}
}

// On stages a subscription for Subscribe.
func (ch *Channel) On(event dispatch.Event, table, filter string, callback func(dispatch.Change)) *Channel {
	ch.subs = append(ch.subs, dispatch.Subscription{
		Channel:  ch.name,
		Event:    event,
		Table:    table,
		Filter:   filter,
		Callback: callback,
	})
	return ch
}

// Subscribe registers the staged subscriptions and returns their handle.
func (ch *Channel) Subscribe() *SubscriptionHandle {
	h := &SubscriptionHandle{bus: ch.c.bus}
	for _, sub := range ch.subs {
		h.ids = append(h.ids, ch.c.bus.Subscribe(sub))
	}
	return h
}

type SubscriptionHandle struct {
	bus *dispatch.Dispatcher
	ids []string
}

func (h *SubscriptionHandle) Unsubscribe() {
	for _, id := range h.ids {
		h.bus.Unsubscribe(id)
	}
	h.ids = nil
}

// ---------- Row plumbing ----------

func (c *Client) rows(table string) ([]map[string]any, bool) {
	switch table {
	case store.TableUsers:
		return toRows(c.st.Users()), true
	case store.TablePartners:
		return toRows(c.st.Partners()), true
	case store.TableBookings:
		return toRows(c.st.Bookings()), true
	case store.TableCounterOffers:
		return toRows(c.st.CounterOffers()), true
	case store.TableNotifications:
		return toRows(c.st.Notifications()), true
	default:
		return nil, false
	}
}

// attachJoins resolves the two supported relationships: partners by the
// row's partner_id, and counter_offers by booking id. Bookings queried
// without explicit joins get the legacy enrichment of user and partner.
func (c *Client) attachJoins(table string, rows []map[string]any, joins []joinSpec) {
	if len(joins) == 0 && table == store.TableBookings {
		for _, row := range rows {
			if userID, ok := row["user_id"].(string); ok {
				if u, found := c.st.UserByID(userID); found {
					row["user"] = toRow(u)
				}
			}
			c.attachPartner(row, "partner")
		}
		return
	}
	for _, j := range joins {
		for _, row := range rows {
			switch j.table {
			case store.TablePartners:
				c.attachPartner(row, j.alias)
			case store.TableCounterOffers:
				if id, ok := row["id"].(string); ok {
					if o, found := c.st.PendingCounterOfferForBooking(id); found {
						row[j.alias] = toRow(o)
					} else if o, found := latestOfferFor(c.st.CounterOffers(), id); found {
						row[j.alias] = toRow(o)
					}
				}
			}
		}
	}
}

func (c *Client) attachPartner(row map[string]any, alias string) {
	if partnerID, ok := row["partner_id"].(string); ok {
		if p, found := c.st.PartnerByID(partnerID); found {
			row[alias] = toRow(p)
		}
	}
}

func latestOfferFor(offers []models.CounterOffer, bookingID string) (models.CounterOffer, bool) {
	var latest models.CounterOffer
	found := false
	for _, o := range offers {
		if o.BookingID != bookingID {
			continue
		}
		if !found || o.CreatedAt.After(latest.CreatedAt) {
			latest = o
			found = true
		}
	}
	return latest, found
}

func toRows[T any](items []T) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, toRow(item))
	}
	return out
}

func toRow(v any) map[string]any {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

// rebind converts a column map (or struct) into the typed record.
func rebind(data any, dst any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// merge overlays a column map onto a typed record in place.
func merge(dst any, partial map[string]any) {
	current := toRow(dst)
	for k, v := range partial {
		current[k] = v
	}
	raw, err := json.Marshal(current)
	if err != nil {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

func stringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
