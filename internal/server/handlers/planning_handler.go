package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/engine"
	"github.com/mamadbah2/stockledger/internal/service/planning"
)

// PlanningHandler exposes the ledger queries and rebuild trigger over HTTP.
type PlanningHandler struct {
	planner planning.Planner
	logger  *zap.Logger
}

// NewPlanningHandler constructs the HTTP handler adapter.
func NewPlanningHandler(planner planning.Planner, logger *zap.Logger) *PlanningHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningHandler{planner: planner, logger: logger}
}

// Rebuild recomputes the ledger synchronously and returns the run report.
func (h *PlanningHandler) Rebuild(c *gin.Context) {
	report, err := h.planner.Rebuild(c.Request.Context(), "api")
	if err != nil {
		h.fail(c, "rebuild failed", err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

// History lists recent runs.
func (h *PlanningHandler) History(c *gin.Context) {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
		return
	}

	reports, err := h.planner.History(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, "history lookup failed", err)
		return
	}
	if reports == nil {
		reports = []models.RunReport{}
	}
	c.JSON(http.StatusOK, reports)
}

// Promise answers GET /api/atp?item=X&qty=5[&from=YYYY-MM-DD][&strict=true].
func (h *PlanningHandler) Promise(c *gin.Context) {
	item := c.Query("item")
	qty, err := decimal.NewFromString(c.Query("qty"))
	if item == "" || err != nil || !qty.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item and a positive qty are required"})
		return
	}
	from, strict, ok := promiseOptions(c, c.Query("from"), c.Query("strict"))
	if !ok {
		return
	}

	date, feasible, err := h.planner.EarliestPromiseDate(item, qty, from, !strict)
	if err != nil {
		h.fail(c, "promise query failed", err)
		return
	}
	c.JSON(http.StatusOK, promiseReply(map[string]decimal.Decimal{item: qty}, from, !strict, date, feasible))
}

// PromiseKit answers POST /api/atp/bom with a list of item lines.
func (h *PlanningHandler) PromiseKit(c *gin.Context) {
	var req models.KitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Debug("invalid kit payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	demands := make(map[string]decimal.Decimal, len(req.Lines))
	for _, line := range req.Lines {
		if !line.Qty.IsPositive() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "every line needs a positive qty"})
			return
		}
		demands[line.Item] = demands[line.Item].Add(line.Qty)
	}
	from, _, ok := promiseOptions(c, req.From, "")
	if !ok {
		return
	}

	date, feasible, err := h.planner.EarliestPromiseDateMulti(demands, from, !req.Strict)
	if err != nil {
		h.fail(c, "kit query failed", err)
		return
	}
	c.JSON(http.StatusOK, promiseReply(demands, from, !req.Strict, date, feasible))
}

// Item returns the summary row of one item.
func (h *PlanningHandler) Item(c *gin.Context) {
	summary, found, err := h.planner.ItemSummary(c.Param("item"))
	if err != nil {
		h.fail(c, "item lookup failed", err)
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Violations returns the flagged ledger rows of the latest run.
func (h *PlanningHandler) Violations(c *gin.Context) {
	violations, err := h.planner.Violations()
	if err != nil {
		h.fail(c, "violations lookup failed", err)
		return
	}
	if violations == nil {
		violations = []models.LedgerEntry{}
	}
	c.JSON(http.StatusOK, violations)
}

func (h *PlanningHandler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, planning.ErrNoRun), errors.Is(err, planning.ErrNoSource):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, engine.ErrMissingColumn):
		h.logger.Warn(msg, zap.Error(err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error(msg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
	}
}

func promiseOptions(c *gin.Context, rawFrom, rawStrict string) (time.Time, bool, bool) {
	var from time.Time
	if rawFrom != "" {
		parsed, err := engine.ParseDate(rawFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "from must be a date"})
			return time.Time{}, false, false
		}
		from = parsed
	}
	strict := false
	if rawStrict != "" {
		parsed, err := strconv.ParseBool(rawStrict)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "strict must be a boolean"})
			return time.Time{}, false, false
		}
		strict = parsed
	}
	return from, strict, true
}

func promiseReply(items map[string]decimal.Decimal, from time.Time, allowZero bool, date time.Time, feasible bool) models.PromiseReply {
	reply := models.PromiseReply{Items: items, From: from, AllowZero: allowZero, Feasible: feasible}
	if feasible {
		reply.Date = &date
	}
	return reply
}
