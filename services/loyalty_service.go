package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cafepos/configs"
	"cafepos/entity"
	"cafepos/pkg/bonusrule"
	"cafepos/pkg/events"
	"cafepos/pkg/loyalty"
	"cafepos/pkg/metrics"
	"cafepos/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

var (
	ErrInsufficientPoints = loyalty.ErrInsufficientPoints
	ErrInvalidPoints      = loyalty.ErrInvalidDelta
	ErrConcurrentUpdate   = errors.New("points balance changed concurrently, retry")
	ErrUnknownVoucherType = errors.New("unknown voucher type")
	ErrVoucherNotFound    = errors.New("voucher not found")
	ErrVoucherUsed        = errors.New("voucher already used")
	ErrVoucherExpired     = errors.New("voucher expired")
	ErrInvalidRule        = errors.New("invalid bonus rule")
)

const recentTransactions = 5

type LoyaltyService struct {
	DB        *gorm.DB
	Customers *repository.CustomerRepository
	Ledger    *repository.LoyaltyRepository
	Access    *CustomerService
	Rules     *bonusrule.Engine
	Events    events.Publisher
	Config    configs.LoyaltyConfig

	now func() time.Time
}

func NewLoyaltyService(
	db *gorm.DB,
	customers *repository.CustomerRepository,
	ledger *repository.LoyaltyRepository,
	access *CustomerService,
	rules *bonusrule.Engine,
	pub events.Publisher,
	cfg configs.LoyaltyConfig,
) *LoyaltyService {
	if pub == nil {
		pub = events.Nop{}
	}
	return &LoyaltyService{
		DB: db, Customers: customers, Ledger: ledger, Access: access,
		Rules: rules, Events: pub, Config: cfg, now: time.Now,
	}
}

// ===== Ledger core =====

// appendEntry applies one signed delta to cust inside tx and appends the matching ledger
// row. cust is updated in place on success.
func (s *LoyaltyService) appendEntry(tx *gorm.DB, cust *entity.Customer, typ loyalty.EntryType, points int, desc string, orderID *string) (*entity.PointTransaction, error) {
	acc := loyalty.Account{
		PointsBalance:  cust.PointsBalance,
		LifetimePoints: cust.LifetimePoints,
		Tier:           loyalty.Tier(cust.Tier),
	}
	next, entry, err := loyalty.Apply(acc, typ, points)
	if err != nil {
		return nil, err
	}

	seq, err := s.Ledger.LastSeq(tx, cust.ID)
	if err != nil {
		return nil, errors.Wrap(err, "read ledger head")
	}
	affected, err := s.Customers.UpdateLoyaltyGuard(tx, cust.ID, cust.PointsBalance, next)
	if err != nil {
		return nil, errors.Wrap(err, "update balance")
	}
	if affected == 0 {
		return nil, ErrConcurrentUpdate
	}

	row := &entity.PointTransaction{
		CustomerID:   cust.ID,
		CafeID:       cust.CafeID,
		OrderID:      orderID,
		Type:         string(entry.Type),
		Points:       entry.Points,
		BalanceAfter: entry.BalanceAfter,
		Description:  desc,
		Seq:          seq + 1,
	}
	if err := s.Ledger.AppendEntry(tx, row); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConcurrentUpdate
		}
		return nil, errors.Wrap(err, "append ledger entry")
	}

	cust.PointsBalance = next.PointsBalance
	cust.LifetimePoints = next.LifetimePoints
	cust.Tier = string(next.Tier)
	return row, nil
}

// notify runs after commit: metrics, websocket push and broker event per entry.
func (s *LoyaltyService) notify(ctx context.Context, cust *entity.Customer, rows []*entity.PointTransaction) {
	for _, row := range rows {
		metrics.ObservePoints(row.Type, row.Points)
		payload := events.PointsPayload{
			CustomerID:     cust.ID,
			PointsBalance:  row.BalanceAfter,
			LifetimePoints: cust.LifetimePoints,
			Tier:           cust.Tier,
			Delta:          row.Points,
			Type:           row.Type,
		}
		if err := s.Events.Publish(ctx, events.New(events.PointsChanged, cust.ID, cust.CafeID, payload)); err != nil {
			log.Warn().Err(err).Str("customerId", cust.ID).Msg("publish PointsChanged failed")
		}
	}
}

// ===== Bonus =====

type LedgerResult struct {
	Customer *entity.Customer         `json:"customer"`
	Entry    *entity.PointTransaction `json:"entry"`
}

// Bonus applies a manual signed adjustment.
func (s *LoyaltyService) Bonus(ctx context.Context, actor Actor, customerID string, points int, desc string) (*LedgerResult, error) {
	ctx, span := tracer.Start(ctx, "LoyaltyService.Bonus")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID), attribute.Int("points", points))

	cust, err := s.Access.Authorize(ctx, actor, customerID)
	if err != nil {
		return nil, err
	}
	if actor.Role == entity.RoleCustomer {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(desc) == "" {
		desc = "Manual bonus"
	}

	var row *entity.PointTransaction
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := s.Customers.FindByID(ctx, tx, cust.ID)
		if err != nil {
			return errors.Wrap(err, "reload customer")
		}
		cust = fresh
		row, err = s.appendEntry(tx, cust, loyalty.Bonus, points, desc, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, cust, []*entity.PointTransaction{row})
	log.Info().Str("customerId", cust.ID).Str("by", actor.UserID).Int("points", points).Msg("manual bonus applied")
	return &LedgerResult{Customer: cust, Entry: row}, nil
}

// ===== Vouchers =====

// RedeemVoucher spends the catalog cost of a voucher type and issues an ACTIVE voucher.
func (s *LoyaltyService) RedeemVoucher(ctx context.Context, actor Actor, customerID, voucherType string) (*entity.Voucher, error) {
	ctx, span := tracer.Start(ctx, "LoyaltyService.RedeemVoucher")
	defer span.End()

	voucherType = strings.ToUpper(strings.TrimSpace(voucherType))
	offer, ok := s.Config.Vouchers[voucherType]
	if !ok {
		return nil, ErrUnknownVoucherType
	}
	cust, err := s.Access.Authorize(ctx, actor, customerID)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	voucher := &entity.Voucher{
		CustomerID: cust.ID,
		CafeID:     cust.CafeID,
		Code:       NewVoucherCode(),
		Type:       voucherType,
		PointCost:  offer.Cost,
		Status:     entity.VoucherActive,
		ExpiresAt:  now.AddDate(0, 0, offer.ValidDays),
	}

	var row *entity.PointTransaction
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fresh, err := s.Customers.FindByID(ctx, tx, cust.ID)
		if err != nil {
			return errors.Wrap(err, "reload customer")
		}
		cust = fresh
		desc := fmt.Sprintf("Redeemed %s voucher", voucherType)
		if row, err = s.appendEntry(tx, cust, loyalty.Redeem, -offer.Cost, desc, nil); err != nil {
			return err
		}
		return errors.Wrap(s.Ledger.CreateVoucher(tx, voucher), "create voucher")
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, cust, []*entity.PointTransaction{row})
	metrics.VouchersIssued.WithLabelValues(voucherType).Inc()
	log.Info().Str("customerId", cust.ID).Str("code", voucher.Code).Msg("voucher issued")
	return voucher, nil
}

// UseVoucher marks an ACTIVE voucher as used at the counter. An expired voucher is flipped
// to EXPIRED and rejected.
func (s *LoyaltyService) UseVoucher(ctx context.Context, actor Actor, code string) (*entity.Voucher, error) {
	ctx, span := tracer.Start(ctx, "LoyaltyService.UseVoucher")
	defer span.End()

	v, err := s.Ledger.FindVoucherByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load voucher")
	}
	if err := s.Access.CanManageCafe(ctx, actor, v.CafeID); err != nil {
		return nil, err
	}

	switch v.Status {
	case entity.VoucherUsed:
		return nil, ErrVoucherUsed
	case entity.VoucherExpired:
		return nil, ErrVoucherExpired
	}

	now := s.now().UTC()
	if !now.Before(v.ExpiresAt) {
		if _, err := s.Ledger.UpdateVoucherStatusGuard(ctx, v.ID, entity.VoucherActive, entity.VoucherExpired, nil); err != nil {
			return nil, errors.Wrap(err, "expire voucher")
		}
		return nil, ErrVoucherExpired
	}

	affected, err := s.Ledger.UpdateVoucherStatusGuard(ctx, v.ID, entity.VoucherActive, entity.VoucherUsed, &now)
	if err != nil {
		return nil, errors.Wrap(err, "use voucher")
	}
	if affected == 0 {
		return nil, ErrVoucherUsed
	}
	v.Status = entity.VoucherUsed
	v.UsedAt = &now
	return v, nil
}

// NewVoucherCode returns a code like CAFE-9F2C41AB.
func NewVoucherCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "CAFE-" + strings.ToUpper(raw[:8])
}

// ===== Reads =====

type Summary struct {
	CustomerID         string                    `json:"customerId"`
	PointsBalance      int                       `json:"pointsBalance"`
	LifetimePoints     int                       `json:"lifetimePoints"`
	Tier               loyalty.Tier              `json:"tier"`
	NextTier           loyalty.Tier              `json:"nextTier,omitempty"`
	PointsToNextTier   int                       `json:"pointsToNextTier"`
	LifetimeSpend      decimal.Decimal           `json:"lifetimeSpend"`
	TotalOrders        int                       `json:"totalOrders"`
	RecentTransactions []entity.PointTransaction `json:"recentTransactions"`
	ActiveVouchers     []entity.Voucher          `json:"activeVouchers"`
}

// Summary reads balance, recent ledger rows and usable vouchers in parallel.
func (s *LoyaltyService) Summary(ctx context.Context, actor Actor, customerID string) (*Summary, error) {
	ctx, span := tracer.Start(ctx, "LoyaltyService.Summary")
	defer span.End()

	if _, err := s.Access.Authorize(ctx, actor, customerID); err != nil {
		return nil, err
	}

	var (
		cust     *entity.Customer
		recent   []entity.PointTransaction
		vouchers []entity.Voucher
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.Customers.FindByID(gctx, nil, customerID)
		cust = c
		return errors.Wrap(err, "load customer")
	})
	g.Go(func() error {
		rows, err := s.Ledger.ListEntries(gctx, customerID, recentTransactions)
		recent = rows
		return errors.Wrap(err, "load ledger")
	})
	g.Go(func() error {
		rows, err := s.Ledger.ListActiveVouchers(gctx, customerID, s.now().UTC())
		vouchers = rows
		return errors.Wrap(err, "load vouchers")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if recent == nil {
		recent = []entity.PointTransaction{}
	}
	if vouchers == nil {
		vouchers = []entity.Voucher{}
	}
	progress := loyalty.Progress(cust.LifetimePoints)
	return &Summary{
		CustomerID:         cust.ID,
		PointsBalance:      cust.PointsBalance,
		LifetimePoints:     cust.LifetimePoints,
		Tier:               progress.Tier,
		NextTier:           progress.NextTier,
		PointsToNextTier:   progress.PointsToNext,
		LifetimeSpend:      cust.LifetimeSpend,
		TotalOrders:        cust.TotalOrders,
		RecentTransactions: recent,
		ActiveVouchers:     vouchers,
	}, nil
}

func (s *LoyaltyService) History(ctx context.Context, actor Actor, customerID string, limit int) ([]entity.PointTransaction, error) {
	if _, err := s.Access.Authorize(ctx, actor, customerID); err != nil {
		return nil, err
	}
	rows, err := s.Ledger.ListEntries(ctx, customerID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "load ledger")
	}
	if rows == nil {
		rows = []entity.PointTransaction{}
	}
	return rows, nil
}

type AuditReport struct {
	CustomerID         string `json:"customerId"`
	PointsBalance      int    `json:"pointsBalance"`
	LifetimePoints     int    `json:"lifetimePoints"`
	Tier               string `json:"tier"`
	Entries            int    `json:"entries"`
	Consistent         bool   `json:"consistent"`
	LifetimeConsistent bool   `json:"lifetimeConsistent"`
	TierConsistent     bool   `json:"tierConsistent"`
	Problem            string `json:"problem,omitempty"`
}

// Audit replays the whole ledger of a customer against the stored loyalty columns.
func (s *LoyaltyService) Audit(ctx context.Context, customerID string) (*AuditReport, error) {
	ctx, span := tracer.Start(ctx, "LoyaltyService.Audit")
	defer span.End()

	cust, err := s.Customers.FindByID(ctx, nil, customerID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load customer")
	}
	rows, err := s.Ledger.AllEntries(ctx, customerID)
	if err != nil {
		return nil, errors.Wrap(err, "load ledger")
	}

	entries := make([]loyalty.Entry, 0, len(rows))
	earned := 0
	for _, r := range rows {
		entries = append(entries, loyalty.Entry{Type: loyalty.EntryType(r.Type), Points: r.Points, BalanceAfter: r.BalanceAfter})
		if r.Points > 0 {
			earned += r.Points
		}
	}

	report := &AuditReport{
		CustomerID:         cust.ID,
		PointsBalance:      cust.PointsBalance,
		LifetimePoints:     cust.LifetimePoints,
		Tier:               cust.Tier,
		Entries:            len(rows),
		Consistent:         true,
		LifetimeConsistent: earned == cust.LifetimePoints,
		TierConsistent:     loyalty.Tier(cust.Tier) == loyalty.TierFor(cust.LifetimePoints),
	}
	if err := loyalty.Verify(cust.PointsBalance, entries); err != nil {
		report.Consistent = false
		report.Problem = err.Error()
		log.Error().Str("customerId", cust.ID).Err(err).Msg("ledger audit failed")
	}
	return report, nil
}

// ===== Bonus rules =====

type CreateRuleReq struct {
	CafeID    string `json:"cafeId" binding:"required"`
	Name      string `json:"name" binding:"required"`
	Condition string `json:"condition" binding:"required"`
	Points    int    `json:"points" binding:"required"`
}

// CreateRule stores a campaign after checking that its condition compiles.
func (s *LoyaltyService) CreateRule(ctx context.Context, actor Actor, req CreateRuleReq) (*entity.BonusRule, error) {
	if err := s.Access.CanManageCafe(ctx, actor, req.CafeID); err != nil {
		return nil, err
	}
	if req.Points <= 0 {
		return nil, errors.Wrap(ErrInvalidRule, "points must be positive")
	}
	if _, err := s.Rules.Compile("", req.Name, req.Condition, req.Points); err != nil {
		return nil, errors.Wrap(ErrInvalidRule, err.Error())
	}
	rule := &entity.BonusRule{
		CafeID:    req.CafeID,
		Name:      strings.TrimSpace(req.Name),
		Condition: req.Condition,
		Points:    req.Points,
		Active:    true,
	}
	if err := s.Ledger.CreateRule(ctx, rule); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errors.Wrap(ErrInvalidRule, "a rule with this name exists")
		}
		return nil, errors.Wrap(err, "create rule")
	}
	return rule, nil
}

func (s *LoyaltyService) ListRules(ctx context.Context, actor Actor, cafeID string) ([]entity.BonusRule, error) {
	if err := s.Access.CanManageCafe(ctx, actor, cafeID); err != nil {
		return nil, err
	}
	return s.Ledger.ListRules(ctx, nil, cafeID, false)
}

// activeRules compiles the cafe's active rules; broken ones are logged and skipped.
func (s *LoyaltyService) activeRules(ctx context.Context, tx *gorm.DB, cafeID string) ([]*bonusrule.Rule, error) {
	rows, err := s.Ledger.ListRules(ctx, tx, cafeID, true)
	if err != nil {
		return nil, errors.Wrap(err, "load bonus rules")
	}
	out := make([]*bonusrule.Rule, 0, len(rows))
	for _, r := range rows {
		compiled, err := s.Rules.Compile(r.ID, r.Name, r.Condition, r.Points)
		if err != nil {
			log.Warn().Err(err).Str("ruleId", r.ID).Msg("skipping bonus rule that does not compile")
			continue
		}
		out = append(out, compiled)
	}
	return out, nil
}
