// Package intent defines the normalized order instruction handed to the
// emitter. Intents are transient: produced and consumed within one cycle.
package intent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
	ActionExit Action = "exit"
)

type OrderType string

const (
	TypeMarket OrderType = "market"
	TypeStop   OrderType = "stop"
)

// OrderIntent is the closed payload shape the webhook endpoint accepts.
// Construct through NewMarket/NewStop/NewExit so every instance has passed
// schema validation; a loosely filled struct is rejected at the boundary.
type OrderIntent struct {
	Ticker       string    `json:"ticker"`
	Action       Action    `json:"action"`
	OrderType    OrderType `json:"orderType"`
	Price        string    `json:"price,omitempty"`
	StopPrice    string    `json:"stopPrice,omitempty"`
	Time         string    `json:"time,omitempty"`
	QuantityType string    `json:"quantityType,omitempty"`
	Quantity     int       `json:"quantity"`

	// Label is the human-readable tag attached by the emitter; it is not
	// part of the wire payload.
	Label string `json:"-"`
}

const schemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["ticker", "action", "orderType", "quantity"],
  "properties": {
    "ticker": {"type": "string", "minLength": 1},
    "action": {"enum": ["buy", "sell", "exit"]},
    "orderType": {"enum": ["market", "stop"]},
    "price": {"type": "string"},
    "stopPrice": {"type": "string", "minLength": 1},
    "time": {"type": "string"},
    "quantityType": {"enum": ["fixed_quantity"]},
    "quantity": {"type": "integer", "minimum": 1}
  },
  "if": {"properties": {"orderType": {"const": "stop"}}},
  "then": {"required": ["stopPrice"]},
  "additionalProperties": false
}`

var schema = jsonschema.MustCompileString("order_intent.json", schemaJSON)

func validated(oi OrderIntent) (OrderIntent, error) {
	raw, err := json.Marshal(oi)
	if err != nil {
		return OrderIntent{}, err
	}
	var doc any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return OrderIntent{}, err
	}
	if err := schema.Validate(doc); err != nil {
		return OrderIntent{}, fmt.Errorf("order intent rejected: %w", err)
	}
	return oi, nil
}

// NewMarket builds a market order intent. Price may be empty when the alert
// carried none; the endpoint fills at market either way.
func NewMarket(ticker string, action Action, price string, qty int, label string) (OrderIntent, error) {
	return validated(OrderIntent{
		Ticker:    ticker,
		Action:    action,
		OrderType: TypeMarket,
		Price:     price,
		Quantity:  qty,
		Label:     label,
	})
}

// NewStop builds a fixed-quantity stop order intent at stopPrice.
func NewStop(ticker string, action Action, stopPrice decimal.Decimal, qty int, at time.Time, label string) (OrderIntent, error) {
	return validated(OrderIntent{
		Ticker:       ticker,
		Action:       action,
		OrderType:    TypeStop,
		StopPrice:    stopPrice.String(),
		Time:         at.Format("2006-01-02 15:04:05.000000"),
		QuantityType: "fixed_quantity",
		Quantity:     qty,
		Label:        label,
	})
}

// NewExit builds a full-flatten market intent.
func NewExit(ticker string, price string, qty int, label string) (OrderIntent, error) {
	return NewMarket(ticker, ActionExit, price, qty, label)
}

// FormatPrice renders a float price the way the endpoint expects.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
