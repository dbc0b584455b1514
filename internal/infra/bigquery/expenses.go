package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/lumenai/lumen-agent/internal/domain"
)

const expensesTable = "expenses"

// ExpenseRow is the analytical row shape of the expenses table. No record ID
// is stored here: the operational store is the only ID authority, and the
// analytical row embeds the logical content only.
type ExpenseRow struct {
	UserID    string            `bigquery:"user_id"`    // REQUIRED
	Merchant  string            `bigquery:"merchant"`   // REQUIRED
	Amount    float64           `bigquery:"amount"`     // REQUIRED
	Currency  string            `bigquery:"currency"`   // REQUIRED
	Date      bigquery.NullDate `bigquery:"date"`       // NULLABLE
	Category  string            `bigquery:"category"`   // REQUIRED
	CreatedTS time.Time         `bigquery:"created_ts"` // REQUIRED
}

// ExpenseRepository is the analytical store adapter. It holds a shared
// BigQuery client to avoid creating a new connection for each operation.
type ExpenseRepository struct {
	client    *bigquery.Client
	datasetID string
}

// NewExpenseRepository creates a repository with a shared BigQuery client.
func NewExpenseRepository(ctx context.Context, projectID, datasetID string) (*ExpenseRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewExpenseRepository: creating client: %w", err)
	}
	return &ExpenseRepository{client: client, datasetID: datasetID}, nil
}

// Close closes the BigQuery client connection.
func (r *ExpenseRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// AppendExpense delegates to AppendExpenseWithClient with the shared client.
func (r *ExpenseRepository) AppendExpense(ctx context.Context, tx domain.Transaction) error {
	return AppendExpenseWithClient(ctx, r.client, r.datasetID, tx)
}

// QueryRecentExpenses delegates to QueryRecentExpensesWithClient with the shared client.
func (r *ExpenseRepository) QueryRecentExpenses(ctx context.Context, userID string, limit int) ([]domain.Expense, error) {
	return QueryRecentExpensesWithClient(ctx, r.client, r.datasetID, userID, limit)
}

// AppendExpenseWithClient streams one expense row into the expenses table.
// The table is append-only; rows are never updated or deleted here.
func AppendExpenseWithClient(ctx context.Context, client *bigquery.Client, datasetID string, tx domain.Transaction) error {
	row := &ExpenseRow{
		UserID:    tx.UserID,
		Merchant:  tx.Merchant,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Category:  tx.Category,
		CreatedTS: tx.CreatedAt,
	}
	if tx.Date != nil {
		row.Date = bigquery.NullDate{Date: civil.DateOf(*tx.Date), Valid: true}
	}

	inserter := client.Dataset(datasetID).Table(expensesTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("AppendExpense: inserting row: %w", err)
	}

	return nil
}

// QueryRecentExpensesWithClient returns up to limit expense rows for the user,
// newest first by receipt date. Rows sharing a date keep insertion order.
func QueryRecentExpensesWithClient(ctx context.Context, client *bigquery.Client, datasetID, userID string, limit int) ([]domain.Expense, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
			merchant,
			amount,
			currency,
			date,
			category,
			created_ts
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY date DESC, created_ts
		LIMIT %d
	`, datasetID, expensesTable, limit))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("QueryRecentExpenses: query read: %w", err)
	}

	var expenses []domain.Expense
	for {
		var r ExpenseRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("QueryRecentExpenses: iter next: %w", err)
		}
		expenses = append(expenses, rowToExpense(r))
	}

	return expenses, nil
}

func rowToExpense(r ExpenseRow) domain.Expense {
	e := domain.Expense{
		Merchant:  r.Merchant,
		Amount:    r.Amount,
		Currency:  r.Currency,
		Category:  r.Category,
		CreatedAt: r.CreatedTS,
	}
	if r.Date.Valid {
		d := r.Date.Date.In(time.UTC)
		e.Date = &d
	}
	return e
}
