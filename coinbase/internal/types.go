// Copyright (c) 2023 BVK Chaitanya

package internal

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// NullDecimal is a decimal that decodes empty JSON strings as zero.
type NullDecimal struct {
	Decimal decimal.Decimal
}

func (v *NullDecimal) UnmarshalJSON(raw []byte) error {
	if s := string(raw); s == "" || s == `""` || s == "null" {
		v.Decimal = decimal.Zero
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(raw); err != nil {
		return err
	}
	v.Decimal = d
	return nil
}

func (v NullDecimal) MarshalJSON() ([]byte, error) {
	return v.Decimal.MarshalJSON()
}

type Product struct {
	ProductID   string `json:"product_id"`
	Status      string `json:"status"`
	ProductType string `json:"product_type"`

	Price NullDecimal `json:"price"`

	BaseIncrement     NullDecimal `json:"base_increment"`
	BaseName          string      `json:"base_name"`
	BaseCurrencyID    string      `json:"base_currency_id"`
	BaseDisplaySymbol string      `json:"base_display_symbol"`

	QuoteIncrement     NullDecimal `json:"quote_increment"`
	QuoteName          string      `json:"quote_name"`
	QuoteCurrencyID    string      `json:"quote_currency_id"`
	QuoteDisplaySymbol string      `json:"quote_display_symbol"`

	IsDisabled      bool `json:"is_disabled"`
	TradingDisabled bool `json:"trading_disabled"`
	CancelOnly      bool `json:"cancel_only"`
	AuctionMode     bool `json:"auction_mode"`
}

type ListProductsResponse struct {
	NumProducts int32      `json:"num_products"`
	Products    []*Product `json:"products"`
}

type Message struct {
	Type string `json:"type"`

	// Message holds description when Type is "error".
	Message string `json:"message"`

	ProductIDs []string `json:"product_ids,omitempty"`
	Channel    string   `json:"channel"`
	Timestamp  string   `json:"timestamp,omitempty"`

	Sequence int64 `json:"sequence_num,omitempty"`

	ClientID string   `json:"client_id,omitempty"`
	Events   []*Event `json:"events,omitempty"`
}

// Time returns the message timestamp or the zero time.
func (m *Message) Time() time.Time {
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

type Event struct {
	Type    string         `json:"type"`
	Tickers []*TickerEvent `json:"tickers"`

	CurrentTime      string      `json:"current_time"`
	HeartbeatCounter json.Number `json:"heartbeat_counter"`
}

type TickerEvent struct {
	Type      string      `json:"type"`
	ProductID string      `json:"product_id"`
	Price     NullDecimal `json:"price"`

	Volume24H   NullDecimal `json:"volume_24_h"`
	Low24H      NullDecimal `json:"low_24_h"`
	High24H     NullDecimal `json:"high_24_h"`
	PricePct24H NullDecimal `json:"price_percent_chg_24_h"`

	BestBid         NullDecimal `json:"best_bid"`
	BestBidQuantity NullDecimal `json:"best_bid_quantity"`
	BestAsk         NullDecimal `json:"best_ask"`
	BestAskQuantity NullDecimal `json:"best_ask_quantity"`
}
