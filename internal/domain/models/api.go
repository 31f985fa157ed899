package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// QueryRequest is a free-text or slash-command question sent to the planner.
type QueryRequest struct {
	Text   string `json:"text" binding:"required"`
	Sender string `json:"sender"`
}

// QueryReply returns the command that was executed and its answer.
type QueryReply struct {
	Command string `json:"command"`
	Reply   string `json:"reply"`
}

// PromiseReply answers a single-item or kit promise query.
type PromiseReply struct {
	Items     map[string]decimal.Decimal `json:"items"`
	From      time.Time                  `json:"from"`
	AllowZero bool                       `json:"allow_zero"`
	Feasible  bool                       `json:"feasible"`
	Date      *time.Time                 `json:"date,omitempty"`
}

// KitLine is one component of a kit promise request.
type KitLine struct {
	Item string          `json:"item" binding:"required"`
	Qty  decimal.Decimal `json:"qty"`
}

// KitRequest asks when every line can be promised together.
type KitRequest struct {
	Lines  []KitLine `json:"lines" binding:"required,min=1,dive"`
	From   string    `json:"from"`
	Strict bool      `json:"strict"`
}
