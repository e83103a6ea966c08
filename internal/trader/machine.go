package trader

import (
	"fmt"
	"time"

	"signalrelay/internal/alloc"
	"signalrelay/internal/intent"
	"signalrelay/internal/position"
	"signalrelay/internal/signal"

	"github.com/shopspring/decimal"
)

// Transition is the single state-machine step: given the current position
// (nil means flat) and a classified event, it decides the next position, the
// order intents to emit, and whether the event should be committed to the
// ledger. It is pure — persistence and emission stay with the caller.
//
// Guard failures come back as the sentinel errors in types.go; the caller
// logs them and leaves state untouched.
func Transition(p Params, st *position.Record, ev signal.Event, now time.Time) (*Result, error) {
	switch e := ev.(type) {
	case signal.Entry:
		return transitionEntry(p, st, e, now)
	case signal.EntryTriggered:
		return transitionEntryTriggered(p, st, e, now)
	case signal.Trim:
		return transitionTrim(p, st, e, now)
	case signal.TargetHit:
		return transitionTargetHit(p, st, e, now)
	case signal.Target2Hit:
		return transitionTarget2Hit(p, st, e)
	case signal.StopLoss:
		return transitionStopLoss(p, st, e)
	case signal.StoppedOut:
		return transitionStoppedOut(p, st, e)
	default:
		return nil, fmt.Errorf("unhandled event kind %s", ev.Kind())
	}
}

func transitionEntry(p Params, st *position.Record, e signal.Entry, now time.Time) (*Result, error) {
	if st != nil {
		return nil, ErrPositionOpen
	}
	qty, err := alloc.LetterQuantities(e.Letter, p.GlobalQty)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntryRejected, err)
	}
	action := intent.ActionBuy
	if e.Direction == string(alloc.DirectionShort) {
		action = intent.ActionSell
	}
	entry := e.Price
	res := &Result{
		Next: &position.Record{
			Action:     string(action),
			Direction:  e.Direction,
			Source:     string(e.Source()),
			Ticker:     p.Ticker,
			Letter:     e.Letter,
			EntryPrice: &entry,
			Quantities: qty,
			OpenedAt:   now,
		},
		Commit: true,
	}
	res.note("entry %s letter=%s personal=%d external=%d", e.Direction, e.Letter, qty.Personal, qty.External)
	if qty.External > 0 {
		oi, err := intent.NewMarket(p.Ticker, action, intent.FormatPrice(e.Price), qty.External, "entry order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
	} else {
		res.note("external quantity %d suppresses entry order", qty.External)
	}
	return res, nil
}

func transitionEntryTriggered(p Params, st *position.Record, e signal.EntryTriggered, now time.Time) (*Result, error) {
	if st != nil {
		return nil, ErrPositionOpen
	}
	personal, err := alloc.SplitByScore(e.Score)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntryRejected, err)
	}
	qty := alloc.Quantities{Personal: personal, External: p.GlobalQty}
	entry := e.Price
	res := &Result{
		Next: &position.Record{
			Action:     string(intent.ActionBuy),
			Direction:  string(alloc.DirectionLong),
			Source:     string(e.Source()),
			Ticker:     p.Ticker,
			Score:      e.Score,
			Interval:   e.Interval,
			Level:      e.Level,
			EntryPrice: &entry,
			Quantities: qty,
			OpenedAt:   now,
		},
		Commit: true,
	}
	res.note("triggered entry score=%s personal=%d external=%d", e.Score, qty.Personal, qty.External)
	if qty.External > 0 {
		oi, err := intent.NewMarket(p.Ticker, intent.ActionBuy, intent.FormatPrice(e.Price), qty.External, "triggered entry order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
	}
	return res, nil
}

func transitionTrim(p Params, st *position.Record, e signal.Trim, now time.Time) (*Result, error) {
	if st == nil {
		return nil, ErrNoOpenPosition
	}
	if e.Denominator <= 0 || e.Numerator <= 0 {
		return nil, fmt.Errorf("invalid trim fraction %d/%d", e.Numerator, e.Denominator)
	}
	closed, remaining := alloc.Trim(st.Quantities, e.Numerator, e.Denominator)
	res := &Result{Commit: true}
	res.note("trim %d/%d close personal=%d external=%d", e.Numerator, e.Denominator, closed.Personal, closed.External)

	// The personal leg is advisory only; it is sized and logged but never
	// transmitted.
	if closed.Personal >= 1 {
		res.note("personal close %d (advisory, not transmitted)", closed.Personal)
	} else {
		res.note("personal close %d below one unit, skipped", closed.Personal)
	}
	if closed.External >= 1 {
		oi, err := intent.NewMarket(p.Ticker, intent.ActionSell, "", closed.External, "trim close order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
	} else {
		res.note("external close %d below one unit, no order", closed.External)
	}

	if e.Numerator >= e.Denominator {
		// Full close.
		res.Next = nil
		return res, nil
	}

	next := *st
	next.Quantities = remaining
	res.Next = &next

	// A 1/8 trim is the signal convention for "runner secured": place a
	// protective stop under the remainder.
	if e.Numerator == 1 && e.Denominator == 8 && remaining.External >= 1 {
		entry, ok := st.Entry()
		if !ok {
			res.note("no entry price recorded, stop after 1/8 trim skipped")
			return res, nil
		}
		stop := alloc.StopPrice(decimal.NewFromFloat(entry), p.StopOffset, alloc.Direction(st.Direction))
		oi, err := intent.NewStop(p.Ticker, intent.ActionSell, stop, remaining.External, now, "1/8 trim stop order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
		res.note("stop placed at %s for %d after 1/8 trim", stop.String(), remaining.External)
	}
	return res, nil
}

func transitionTargetHit(p Params, st *position.Record, e signal.TargetHit, now time.Time) (*Result, error) {
	if st == nil {
		return nil, ErrNoOpenPosition
	}
	if st.Source != string(e.Source()) {
		return nil, ErrSourceMismatch
	}
	closeQty, remainingQty := alloc.Halve(st.Quantities.External)
	res := &Result{Commit: true}
	res.note("target 1 hit: close %d of %d external, remaining %d", closeQty, st.Quantities.External, remainingQty)

	if closeQty >= 1 {
		oi, err := intent.NewMarket(p.Ticker, intent.ActionSell, intent.FormatPrice(e.TargetPrice), closeQty, "target hit close order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
	} else {
		res.note("close %d below one unit, no order", closeQty)
	}

	if remainingQty >= 1 {
		// Stop is derived from the alert's own entry price, not the stored
		// one, so a drifted record cannot misplace it.
		stop := alloc.StopPrice(decimal.NewFromFloat(e.EntryPrice), p.StopOffset, alloc.Direction(st.Direction))
		oi, err := intent.NewStop(p.Ticker, intent.ActionSell, stop, remainingQty, now, "target hit stop order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
		res.note("stop placed at %s for %d", stop.String(), remainingQty)

		next := *st
		next.Quantities = alloc.Quantities{Personal: st.Quantities.Personal, External: remainingQty}
		res.Next = &next
	} else {
		res.Next = nil
		res.note("position fully closed on target hit")
	}
	return res, nil
}

func transitionTarget2Hit(p Params, st *position.Record, e signal.Target2Hit) (*Result, error) {
	if st == nil {
		return nil, ErrNoOpenPosition
	}
	if st.Source != string(e.Source()) {
		return nil, ErrSourceMismatch
	}
	res := &Result{Next: nil, Commit: true}
	qty := st.Quantities.External
	if qty > 0 {
		oi, err := intent.NewExit(p.Ticker, intent.FormatPrice(e.TargetPrice), qty, "target 2 close order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
	} else {
		res.note("external quantity %d, no order", qty)
	}
	res.note("remaining position closed on target 2, profit %.2f pts", e.Profit)
	return res, nil
}

func transitionStopLoss(p Params, st *position.Record, e signal.StopLoss) (*Result, error) {
	if st == nil {
		return nil, ErrNoOpenPosition
	}
	if st.Source != string(e.Source()) {
		return nil, ErrSourceMismatch
	}
	res := &Result{Next: nil, Commit: true}
	qty := st.Quantities.External
	if qty > 0 {
		oi, err := intent.NewExit(p.Ticker, intent.FormatPrice(e.ExitPrice), qty, "stop loss close order")
		if err != nil {
			return nil, err
		}
		res.Intents = append(res.Intents, oi)
	} else {
		res.note("external quantity %d, no order", qty)
	}
	res.note("position closed on stop loss, loss %.2f pts", e.Loss)
	return res, nil
}

// transitionStoppedOut flattens unconditionally: the exit order uses the
// configured global quantity regardless of tracked state, and a flat book is
// not an error.
func transitionStoppedOut(p Params, st *position.Record, _ signal.StoppedOut) (*Result, error) {
	res := &Result{Next: nil, Commit: true}
	if st != nil {
		res.note("open position cleared on stopped-out")
	} else {
		res.note("stopped-out while flat, exit order only")
	}
	oi, err := intent.NewMarket(p.Ticker, intent.ActionExit, "", p.GlobalQty, "stopped out order")
	if err != nil {
		return nil, err
	}
	res.Intents = append(res.Intents, oi)
	return res, nil
}
