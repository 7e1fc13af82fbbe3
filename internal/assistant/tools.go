// Package assistant exposes the stock and sample engines to a conversational
// completion backend as a small fixed set of tools. Every tool returns a plain
// string: the backend has no structured error channel.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"go-brindes-ws/internal/metrics"
	"go-brindes-ws/internal/model"
	"go-brindes-ws/internal/service"
	"go-brindes-ws/pkg/logger"
)

const (
	ToolConsult     = "consult"
	ToolMutateStock = "mutate_stock"
	ToolMoveSample  = "move_sample"
)

const dateLayout = "2006-01-02"

// MaxQuantity bounds a single mutate_stock call in either direction.
const MaxQuantity = 1_000_000

// Caller is who drives the tools: the actor written to the log and what the
// actor's role allows.
type Caller struct {
	Actor        service.Actor
	Capabilities model.Capabilities
}

// ToolCall is one invocation as sent by the completion backend.
type ToolCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

type Tools struct {
	stock   service.StockService
	samples service.SampleService
}

func New(stock service.StockService, samples service.SampleService) *Tools {
	return &Tools{stock: stock, samples: samples}
}

// Call dispatches a tool call by name. It never fails: bad arguments, unknown
// tools and even panics come back as text.
func (t *Tools) Call(ctx context.Context, call ToolCall, caller Caller) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogError("assistant", "Call", call.Name, string(call.Args), fmt.Errorf("panic: %v", r))
			out = fmt.Sprintf("The %s tool failed unexpectedly. Nothing was changed.", call.Name)
		}
	}()

	switch call.Name {
	case ToolConsult:
		var args struct {
			Term string `json:"term"`
		}
		if err := decodeArgs(call.Args, &args); err != nil {
			return malformed(err)
		}
		return t.Consult(ctx, args.Term, caller)

	case ToolMutateStock:
		var args struct {
			Reference string    `json:"reference"`
			Quantity  *looseInt `json:"quantity"`
		}
		if err := decodeArgs(call.Args, &args); err != nil {
			return malformed(err)
		}
		if args.Quantity == nil {
			return malformed(errors.New("quantity is required"))
		}
		return t.MutateStock(ctx, args.Reference, int(*args.Quantity), caller)

	case ToolMoveSample:
		var args struct {
			Reference         string `json:"reference"`
			Action            string `json:"action"`
			DestinationClient string `json:"destination_client"`
		}
		if err := decodeArgs(call.Args, &args); err != nil {
			return malformed(err)
		}
		return t.MoveSample(ctx, args.Reference, args.Action, args.DestinationClient, caller)

	default:
		metrics.ToolCalls.WithLabelValues("unknown").Inc()
		return fmt.Sprintf("Unknown tool '%s'. Available tools: %s, %s, %s.", call.Name, ToolConsult, ToolMutateStock, ToolMoveSample)
	}
}

// Consult reports on whatever term matches in stock and in samples, each side
// resolved on its own. An empty term gives the overview: low stock plus
// samples out.
func (t *Tools) Consult(ctx context.Context, term string, caller Caller) string {
	metrics.ToolCalls.WithLabelValues(ToolConsult).Inc()
	caps := caller.Capabilities
	if !caps.CanViewStock && !caps.CanViewSamples {
		return forbidden("consult stock or samples")
	}
	if strings.TrimSpace(term) == "" {
		return t.overview(ctx, caps)
	}

	var lines []string
	if caps.CanViewStock {
		item, match, err := t.stock.Resolve(ctx, term)
		switch {
		case err == nil:
			lines = append(lines, withNote(describeItem(item), match.Note))
		case !isMiss(err):
			return failure("consult", err)
		}
	}
	if caps.CanViewSamples {
		sample, match, err := t.samples.Resolve(ctx, term)
		switch {
		case err == nil:
			lines = append(lines, withNote(describeSample(sample), match.Note))
		case !isMiss(err):
			return failure("consult", err)
		}
	}
	if len(lines) == 0 {
		return fmt.Sprintf("Nothing matches '%s'.", strings.TrimSpace(term))
	}
	return strings.Join(lines, "\n")
}

func (t *Tools) overview(ctx context.Context, caps model.Capabilities) string {
	var b strings.Builder
	if caps.CanViewStock {
		low, err := t.stock.LowStock(ctx)
		if err != nil {
			return failure("consult", err)
		}
		if len(low) == 0 {
			b.WriteString("No stock items are at or below their minimum.\n")
		} else {
			b.WriteString("Low stock:\n")
			for _, it := range low {
				fmt.Fprintf(&b, "- '%s': %d left (minimum %d)\n", it.Name, it.Quantity, it.MinQuantity)
			}
		}
	}
	if caps.CanViewSamples {
		out, err := t.samples.CheckedOut(ctx)
		if err != nil {
			return failure("consult", err)
		}
		if len(out) == 0 {
			b.WriteString("No samples are checked out.\n")
		} else {
			b.WriteString("Samples out:\n")
			for i := range out {
				fmt.Fprintf(&b, "- %s\n", describeLoan(&out[i]))
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// MutateStock adds (positive quantity) or withdraws (negative) units of the
// referenced stock item.
func (t *Tools) MutateStock(ctx context.Context, reference string, quantity int, caller Caller) string {
	metrics.ToolCalls.WithLabelValues(ToolMutateStock).Inc()
	if !caller.Capabilities.CanMutateStock {
		return forbidden("change stock")
	}
	if quantity > MaxQuantity || quantity < -MaxQuantity {
		return malformed(fmt.Errorf("quantity must be between -%d and %d", MaxQuantity, MaxQuantity))
	}

	res, err := t.stock.MutateStock(ctx, reference, quantity, caller.Actor)
	if err != nil {
		return failure("stock update", err)
	}

	verb, amount := "added", res.Delta
	if res.Delta < 0 {
		verb, amount = "removed", -res.Delta
	}
	msg := fmt.Sprintf("Done: %s %d of '%s' (%d -> %d).", verb, amount, res.Item.Name, res.PreviousQuantity, res.NewQuantity)
	msg = withNote(msg, res.Note)
	if w := res.Warning(); w != "" {
		msg += " Warning: " + w + "."
	}
	return msg
}

// MoveSample checks the referenced sample out to a client or back in. The
// other lifecycle actions are not offered to the assistant.
func (t *Tools) MoveSample(ctx context.Context, reference, action, destination string, caller Caller) string {
	metrics.ToolCalls.WithLabelValues(ToolMoveSample).Inc()
	if !caller.Capabilities.CanMutateSamples {
		return forbidden("move samples")
	}

	act, ok := model.ParseSampleAction(action)
	if !ok || (act != model.ActionCheckout && act != model.ActionReturn) {
		return fmt.Sprintf("Unsupported action '%s'. Use 'checkout' or 'return'.", action)
	}

	res, err := t.samples.MoveSample(ctx, reference, service.TransitionRequest{Action: act, Destination: destination}, caller.Actor)
	if err != nil {
		return failure("sample move", err)
	}

	var msg string
	if act == model.ActionCheckout {
		msg = fmt.Sprintf("Done: %s.", describeLoan(&res.Sample))
	} else {
		msg = fmt.Sprintf("Done: '%s' is back and available.", res.Sample.Name)
	}
	return withNote(msg, res.Note)
}

func describeItem(it *model.StockItem) string {
	s := fmt.Sprintf("Stock: '%s' has %d on hand", it.Name, it.Quantity)
	if it.Location != "" {
		s += " at " + it.Location
	}
	if it.IsLow() {
		s += fmt.Sprintf(" (low, minimum %d)", it.MinQuantity)
	}
	return s + "."
}

func describeSample(sm *model.Sample) string {
	if sm.Status == model.SampleCheckedOut {
		return "Sample: " + describeLoan(sm) + "."
	}
	s := fmt.Sprintf("Sample: '%s' is %s", sm.Name, sm.Status)
	if sm.Status == model.SampleAvailable && sm.Location != "" {
		s += " at " + sm.Location
	}
	return s + "."
}

func describeLoan(sm *model.Sample) string {
	s := fmt.Sprintf("'%s' is with %s", sm.Name, sm.HolderName())
	if sm.Destination != nil {
		s += " at " + *sm.Destination
	}
	if sm.ExpectedReturnAt != nil {
		s += ", due " + sm.ExpectedReturnAt.Format(dateLayout)
	}
	return s
}

func withNote(msg, note string) string {
	if note == "" {
		return msg
	}
	return msg + " (Note: " + note + ")"
}

func isMiss(err error) bool {
	return errors.Is(err, service.ErrResolution)
}

func forbidden(what string) string {
	return fmt.Sprintf("Sorry, your role is not allowed to %s.", what)
}

func malformed(err error) string {
	return fmt.Sprintf("Invalid tool arguments: %v.", err)
}

// failure turns an engine error into the sentence shown to the user. Errors
// outside the known taxonomy are logged and reported generically.
func failure(op string, err error) string {
	switch {
	case errors.Is(err, service.ErrResolution),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrIllegalTransition),
		errors.Is(err, service.ErrMalformedInput),
		errors.Is(err, service.ErrNotFound):
		return fmt.Sprintf("Could not complete the %s: %v. Nothing was changed.", op, err)
	}
	logger.LogError("assistant", "failure", op, "", err)
	return fmt.Sprintf("The %s failed because of an internal error. Nothing was changed.", op)
}

func decodeArgs(raw json.RawMessage, v interface{}) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// looseInt accepts 5, -5, 5.0 and "5": models are not consistent about how
// they encode numbers. Magnitudes above MaxQuantity are refused here so a
// float never reaches an out-of-range int conversion.
type looseInt int

func (n *looseInt) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if unq, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unq)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("quantity must be a whole number, got %s", string(b))
	}
	if math.Abs(f) > MaxQuantity {
		return fmt.Errorf("quantity must be between -%d and %d, got %s", MaxQuantity, MaxQuantity, string(b))
	}
	*n = looseInt(int(f))
	return nil
}
