package balances

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/novaq/novaq-dashboard/internal/backend"
	"github.com/novaq/novaq-dashboard/internal/shared"
)

// Backend paths.
const (
	AccountsPath = "/api/account"
	BalancePath  = "/api/account-period-balance"
	ItemPath     = "/api/account-period-balance-item"
)

// Backend is the subset of the backend client the service needs.
type Backend interface {
	Get(ctx context.Context, path, token string, query url.Values) (*backend.Response, error)
	Post(ctx context.Context, path, token string, body any) (*backend.Response, error)
	Put(ctx context.Context, path, token string, body any) (*backend.Response, error)
}

// Service exposes balance queries and batch actions.
type Service struct {
	backend  Backend
	logger   *slog.Logger
	validate *validator.Validate
}

// NewService constructs the service.
func NewService(b Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{backend: b, logger: logger, validate: validator.New()}
}

// Accounts lists the chart of accounts.
func (s *Service) Accounts(ctx context.Context, token string) ([]Account, error) {
	resp, err := s.backend.Get(ctx, AccountsPath, token, nil)
	if err != nil {
		return []Account{}, err
	}
	return backend.DecodeList[Account](resp)
}

// Balances lists balances, optionally filtered by year and customer.
func (s *Service) Balances(ctx context.Context, token, year, customerID string) ([]AccountBalance, error) {
	q := url.Values{}
	if year = strings.TrimSpace(year); year != "" {
		q.Set("year", year)
	}
	if customerID = strings.TrimSpace(customerID); customerID != "" {
		q.Set("customerId", customerID)
	}
	resp, err := s.backend.Get(ctx, BalancePath, token, q)
	if err != nil {
		return []AccountBalance{}, err
	}
	return backend.DecodeList[AccountBalance](resp)
}

// Items lists the items of one balance.
func (s *Service) Items(ctx context.Context, token, balanceOid string) ([]Item, error) {
	q := url.Values{"accountPeriodBalanceOid": {balanceOid}}
	resp, err := s.backend.Get(ctx, ItemPath, token, q)
	if err != nil {
		return []Item{}, err
	}
	return backend.DecodeList[Item](resp)
}

// Balance finds one balance by oid within the unfiltered list.
func (s *Service) Balance(ctx context.Context, token, oid string) (*AccountBalance, error) {
	list, err := s.Balances(ctx, token, "", "")
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].Oid == oid {
			return &list[i], nil
		}
	}
	return nil, shared.ErrNotFound
}

type parentRequest struct {
	CustomerID    string   `json:"CustomerId"`
	YearType      int      `json:"YearType"`
	ActiveAmount  *float64 `json:"ActiveAmount"`
	PassiveAmount *float64 `json:"PassiveAmount"`
}

type parentReply struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    *struct {
		Oid string `json:"Oid"`
	} `json:"data"`
}

// Validate checks a create request and returns localised field errors.
func (s *Service) Validate(req any) error {
	if err := s.validate.Struct(req); err != nil {
		return &shared.ValidationError{Fields: shared.FieldErrors(err, fieldMessages)}
	}
	return nil
}

// CreateWithItems creates the parent balance, then posts every item
// concurrently. Items are not attempted when the parent fails, and
// successful items are kept when others fail.
func (s *Service) CreateWithItems(ctx context.Context, token string, req CreateRequest) (Result, error) {
	if err := s.Validate(req); err != nil {
		return Result{Error: "Validation failed"}, err
	}
	resp, err := s.backend.Post(ctx, BalancePath, token, parentRequest{CustomerID: req.CustomerOid, YearType: req.YearType})
	if err != nil {
		s.logger.Warn("create account period balance", slog.Any("error", err))
		return Result{Error: backend.MessageOf(err, MsgParentFailed)}, nil
	}
	var reply parentReply
	if err := resp.Decode(&reply); err != nil || !reply.Success || reply.Data == nil || reply.Data.Oid == "" {
		msg := reply.Error
		if msg == "" {
			msg = MsgParentFailed
		}
		return Result{Error: msg}, nil
	}
	parentOid := reply.Data.Oid

	failed := s.fanOut(ctx, req.Items, func(ctx context.Context, item Item) error {
		body := Item{
			AccountPeriodBalanceOid: parentOid,
			AccountOid:              item.AccountOid,
			ActiveAmount:            item.ActiveAmount,
			PassiveAmount:           item.PassiveAmount,
			BusinessCustomerOid:     normalizeRef(item.BusinessCustomerOid),
		}
		_, err := s.backend.Post(ctx, ItemPath, token, body)
		return err
	})
	if len(failed) > 0 {
		return Result{Error: FailedRowsMessage(failed), FailedRows: failed, AccountPeriodBalanceOid: parentOid}, nil
	}
	return Result{Success: true, Message: MsgCreated, AccountPeriodBalanceOid: parentOid}, nil
}

// UpdateItems writes every item of an existing balance: PUT when the item has
// an oid, POST otherwise.
func (s *Service) UpdateItems(ctx context.Context, token string, req UpdateRequest) (Result, error) {
	parentOid := strings.TrimSpace(req.AccountPeriodBalanceOid)
	if parentOid == "" {
		return Result{Error: MsgParentRequired}, nil
	}
	if err := s.Validate(req); err != nil {
		return Result{Error: "Validation failed"}, err
	}
	failed := s.fanOut(ctx, req.Items, func(ctx context.Context, item Item) error {
		body := Item{
			Oid:                     item.Oid,
			AccountPeriodBalanceOid: parentOid,
			AccountOid:              item.AccountOid,
			ActiveAmount:            item.ActiveAmount,
			PassiveAmount:           item.PassiveAmount,
			BusinessCustomerOid:     normalizeRef(item.BusinessCustomerOid),
		}
		var err error
		if item.Oid != "" {
			_, err = s.backend.Put(ctx, ItemPath+"/"+url.PathEscape(item.Oid), token, body)
		} else {
			_, err = s.backend.Post(ctx, ItemPath, token, body)
		}
		return err
	})
	if len(failed) > 0 {
		return Result{Error: FailedRowsMessage(failed), FailedRows: failed, AccountPeriodBalanceOid: parentOid}, nil
	}
	return Result{Success: true, Message: MsgUpdated, AccountPeriodBalanceOid: parentOid}, nil
}

// fanOut runs call for every item concurrently and returns the failed
// 1-based row numbers in ascending order. A failure never cancels siblings.
func (s *Service) fanOut(ctx context.Context, items []Item, call func(context.Context, Item) error) []int {
	failed := make([]bool, len(items))
	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			if err := call(ctx, item); err != nil {
				failed[i] = true
				if !errors.Is(err, context.Canceled) {
					s.logger.Warn("account period balance item", slog.Int("row", i+1), slog.Any("error", err))
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	var rows []int
	for i, bad := range failed {
		if bad {
			rows = append(rows, i+1)
		}
	}
	slices.Sort(rows)
	return rows
}

// FailedRowsMessage renders "1, 3 мөр дээр алдаа гарлаа".
func FailedRowsMessage(rows []int) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ") + rowsFailedSuffix
}

func normalizeRef(v *string) *string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil
	}
	return v
}
