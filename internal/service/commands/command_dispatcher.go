package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockledger/internal/domain/models"
	"github.com/mamadbah2/stockledger/internal/engine"
	"github.com/mamadbah2/stockledger/internal/service/planning"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

const (
	dateFormat      = "2006-01-02"
	strictFlag      = "strict"
	digestItemLimit = 10
)

// HelpText lists the supported commands.
const HelpText = `Commands:
/atp <item> <qty> [YYYY-MM-DD] [strict]
/bom <item>=<qty> ... [YYYY-MM-DD] [strict]
/item <item>
/shortages
/rebuild`

// Dispatcher executes parsed commands against the planner.
type Dispatcher interface {
	HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error)
}

// Service implements the Dispatcher interface.
type Service struct {
	planner planning.Planner
	logger  *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(planner planning.Planner, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{planner: planner, logger: logger}
}

// HandleCommand runs the command and formats the reply text.
func (s *Service) HandleCommand(ctx context.Context, cmd models.Command, sender string) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("sender", sender), zap.Strings("args", cmd.Args))

	switch cmd.Type {
	case models.CommandATP:
		return s.handleATP(cmd)
	case models.CommandBOM:
		return s.handleBOM(cmd)
	case models.CommandItem:
		return s.handleItem(cmd)
	case models.CommandShortages:
		digest, err := s.planner.Digest()
		if err != nil {
			return "", err
		}
		return planning.FormatDigest(digest, digestItemLimit), nil
	case models.CommandRebuild:
		report, err := s.planner.Rebuild(ctx, "chat:"+sender)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Ledger rebuilt as of %s: %d items, %d short, %d order lines at risk.",
			report.AsOf.Format(dateFormat), report.Items, report.ShortItems, report.Violations), nil
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

type promiseQuery struct {
	from      time.Time
	allowZero bool
}

// parseTail consumes the optional trailing date and strict flag.
func parseTail(args []string) ([]string, promiseQuery) {
	q := promiseQuery{allowZero: true}
	for len(args) > 0 {
		last := args[len(args)-1]
		if strings.EqualFold(last, strictFlag) {
			q.allowZero = false
			args = args[:len(args)-1]
			continue
		}
		if q.from.IsZero() && !strings.Contains(last, "=") {
			if date, err := engine.ParseDate(last); err == nil {
				q.from = date
				args = args[:len(args)-1]
				continue
			}
		}
		break
	}
	return args, q
}

func (s *Service) handleATP(cmd models.Command) (string, error) {
	args, q := parseTail(cmd.Args)
	if len(args) != 2 {
		return "", ErrInvalidArguments
	}
	qty, err := parsePositive(args[1])
	if err != nil {
		return "", err
	}

	date, ok, err := s.planner.EarliestPromiseDate(args[0], qty, q.from, q.allowZero)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("%s x %s cannot be promised within the current ledger.", qty.String(), args[0]), nil
	}
	return fmt.Sprintf("%s x %s can be promised on %s.", qty.String(), args[0], date.Format(dateFormat)), nil
}

func (s *Service) handleBOM(cmd models.Command) (string, error) {
	args, q := parseTail(cmd.Args)
	if len(args) == 0 {
		return "", ErrInvalidArguments
	}

	demands := make(map[string]decimal.Decimal, len(args))
	for _, arg := range args {
		item, rawQty, found := strings.Cut(arg, "=")
		if !found || strings.TrimSpace(item) == "" {
			return "", ErrInvalidArguments
		}
		qty, err := parsePositive(rawQty)
		if err != nil {
			return "", err
		}
		demands[item] = demands[item].Add(qty)
	}

	date, ok, err := s.planner.EarliestPromiseDateMulti(demands, q.from, q.allowZero)
	if err != nil {
		return "", err
	}
	if !ok {
		return fmt.Sprintf("Kit of %d lines cannot be promised within the current ledger.", len(demands)), nil
	}
	return fmt.Sprintf("Kit of %d lines can be promised on %s.", len(demands), date.Format(dateFormat)), nil
}

func (s *Service) handleItem(cmd models.Command) (string, error) {
	if len(cmd.Args) != 1 {
		return "", ErrInvalidArguments
	}

	summary, found, err := s.planner.ItemSummary(cmd.Args[0])
	if err != nil {
		return "", err
	}
	if !found {
		return fmt.Sprintf("No ledger entries for %s.", cmd.Args[0]), nil
	}
	return FormatItem(summary), nil
}

// FormatItem renders one summary row as chat text.
func FormatItem(s models.ItemSummary) string {
	var b strings.Builder
	status := "OK"
	if !s.OK {
		status = "SHORT"
	}
	fmt.Fprintf(&b, "%s [%s]\n", s.Item, status)
	fmt.Fprintf(&b, "On hand %s, on SO %s, on PO %s\n", s.Opening.String(), s.OnSalesOrder.String(), s.OnPO.String())
	if s.MinProjectedBalance.Valid {
		fmt.Fprintf(&b, "Min projected %s", s.MinProjectedBalance.Decimal.String())
	} else {
		b.WriteString("No projected movements")
	}
	if s.FirstShortageDate != nil {
		fmt.Fprintf(&b, ", first short %s", s.FirstShortageDate.Format(dateFormat))
	}
	if s.PlannedOrderQty.IsPositive() {
		fmt.Fprintf(&b, "\nSuggested order %s", s.PlannedOrderQty.String())
	}
	if s.UnassignedQty.IsPositive() {
		fmt.Fprintf(&b, "\nUnscheduled demand %s", s.UnassignedQty.String())
	}
	return b.String()
}

func parsePositive(value string) (decimal.Decimal, error) {
	qty, err := engine.ParseQuantity(value)
	if err != nil || !qty.IsPositive() {
		return decimal.Decimal{}, ErrInvalidArguments
	}
	return qty, nil
}
