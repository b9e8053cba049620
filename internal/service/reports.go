package service

import (
	"context"
	"sort"
	"time"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var reportTracer = otel.Tracer("service/reports")

// FlaggedTransaction is one history entry whose amount met or exceeded
// the monitoring threshold.
type FlaggedTransaction struct {
	AccountNumber string                   `json:"account_number"`
	Record        domain.TransactionRecord `json:"record"`
}

// AccountActivity summarizes one account for the branch report.
type AccountActivity struct {
	AccountNumber string          `json:"account_number"`
	HolderName    string          `json:"holder_name"`
	AccountType   string          `json:"account_type"`
	Balance       decimal.Decimal `json:"balance"`
	Transactions  int             `json:"transactions"`
	TotalIn       decimal.Decimal `json:"total_in"`
	TotalOut      decimal.Decimal `json:"total_out"`
}

// ActivityReport is the branch-wide rollup served to managers.
type ActivityReport struct {
	GeneratedAt   time.Time         `json:"generated_at"`
	OpenAccounts  int               `json:"open_accounts"`
	TotalBalance  decimal.Decimal   `json:"total_balance"`
	TotalInflow   decimal.Decimal   `json:"total_inflow"`
	TotalOutflow  decimal.Decimal   `json:"total_outflow"`
	Accounts      []AccountActivity `json:"accounts"`
}

// ReportService builds administrative views over the ledger's live
// state. Reports are computed on demand from account snapshots, so they
// are consistent per account but not a global point-in-time freeze.
type ReportService struct {
	ledger *Ledger
	logger *zap.Logger
}

func NewReportService(ledger *Ledger, logger *zap.Logger) *ReportService {
	return &ReportService{ledger: ledger, logger: logger}
}

// MonitorTransactions returns every transaction with an amount at or
// above threshold, most recent first.
func (r *ReportService) MonitorTransactions(ctx context.Context, threshold decimal.Decimal) ([]FlaggedTransaction, error) {
	ctx, span := reportTracer.Start(ctx, "ReportService.MonitorTransactions")
	defer span.End()

	if !threshold.IsPositive() {
		return nil, &domain.ErrInvalidAmount{Amount: threshold, Reason: "must be positive"}
	}

	var flagged []FlaggedTransaction
	for _, acct := range r.ledger.ListAccounts(ctx) {
		for _, rec := range acct.History {
			if rec.Amount.GreaterThanOrEqual(threshold) {
				flagged = append(flagged, FlaggedTransaction{AccountNumber: acct.Number, Record: rec})
			}
		}
	}
	sort.Slice(flagged, func(i, j int) bool {
		return flagged[i].Record.Timestamp.After(flagged[j].Record.Timestamp)
	})

	r.logger.Info("transaction monitor run",
		zap.String("threshold", threshold.String()),
		zap.Int("flagged", len(flagged)),
	)
	return flagged, nil
}

// GenerateActivityReport rolls up balances and per-account transaction
// volume across the whole branch.
func (r *ReportService) GenerateActivityReport(ctx context.Context) ActivityReport {
	ctx, span := reportTracer.Start(ctx, "ReportService.GenerateActivityReport")
	defer span.End()

	report := ActivityReport{
		GeneratedAt:  time.Now(),
		TotalBalance: decimal.Zero,
		TotalInflow:  decimal.Zero,
		TotalOutflow: decimal.Zero,
	}

	for _, acct := range r.ledger.ListAccounts(ctx) {
		activity := AccountActivity{
			AccountNumber: acct.Number,
			HolderName:    acct.HolderName,
			AccountType:   acct.AccountType,
			Balance:       acct.Balance,
			Transactions:  len(acct.History),
			TotalIn:       decimal.Zero,
			TotalOut:      decimal.Zero,
		}
		for _, rec := range acct.History {
			switch rec.Kind {
			case domain.TxDeposit, domain.TxTransferIn:
				activity.TotalIn = activity.TotalIn.Add(rec.Amount)
			case domain.TxWithdrawal, domain.TxTransferOut:
				activity.TotalOut = activity.TotalOut.Add(rec.Amount)
			}
		}
		report.Accounts = append(report.Accounts, activity)
		report.OpenAccounts++
		report.TotalBalance = report.TotalBalance.Add(acct.Balance)
		report.TotalInflow = report.TotalInflow.Add(activity.TotalIn)
		report.TotalOutflow = report.TotalOutflow.Add(activity.TotalOut)
	}

	r.logger.Info("activity report generated", zap.Int("accounts", report.OpenAccounts))
	return report
}
