package firestore

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/lumenai/lumen-agent/internal/domain"
)

const (
	usersCollection        = "users"
	transactionsCollection = "transactions"
)

// TransactionDoc is the Firestore document shape under
// users/{user_id}/transactions. The document ID is the authoritative record
// ID; it is generated by Firestore on create and never stored in the fields.
type TransactionDoc struct {
	UserID    string     `firestore:"user_id"`
	Merchant  string     `firestore:"merchant_name"`
	Amount    float64    `firestore:"total_amount"`
	Currency  string     `firestore:"currency"`
	Date      *time.Time `firestore:"date"`
	Category  string     `firestore:"category"`
	CreatedAt time.Time  `firestore:"created_at"`
}

// TransactionRepository is the operational store adapter. It holds a shared
// Firestore client for the process lifetime.
type TransactionRepository struct {
	client *firestore.Client
}

// NewTransactionRepository creates a repository with a shared Firestore client.
func NewTransactionRepository(ctx context.Context, projectID string) (*TransactionRepository, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewTransactionRepository: creating client: %w", err)
	}
	return &TransactionRepository{client: client}, nil
}

// Close closes the Firestore client connection.
func (r *TransactionRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// CreateTransaction delegates to CreateTransactionWithClient with the shared client.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, tx domain.Transaction) (string, error) {
	return CreateTransactionWithClient(ctx, r.client, tx)
}

// GetTransaction delegates to GetTransactionWithClient with the shared client.
func (r *TransactionRepository) GetTransaction(ctx context.Context, userID, recordID string) (domain.Transaction, error) {
	return GetTransactionWithClient(ctx, r.client, userID, recordID)
}

// ListRecentTransactions delegates to ListRecentTransactionsWithClient with the shared client.
func (r *TransactionRepository) ListRecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	return ListRecentTransactionsWithClient(ctx, r.client, userID, limit)
}

// CreateTransactionWithClient writes one transaction document under
// users/{user_id}/transactions and returns the generated document ID.
func CreateTransactionWithClient(ctx context.Context, client *firestore.Client, tx domain.Transaction) (string, error) {
	doc := TransactionDoc{
		UserID:    tx.UserID,
		Merchant:  tx.Merchant,
		Amount:    tx.Amount,
		Currency:  tx.Currency,
		Date:      tx.Date,
		Category:  tx.Category,
		CreatedAt: tx.CreatedAt,
	}

	ref, _, err := userTransactions(client, tx.UserID).Add(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("CreateTransaction: adding document: %w", err)
	}

	return ref.ID, nil
}

// GetTransactionWithClient fetches one transaction document by record ID.
func GetTransactionWithClient(ctx context.Context, client *firestore.Client, userID, recordID string) (domain.Transaction, error) {
	snap, err := userTransactions(client, userID).Doc(recordID).Get(ctx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: fetching document %s: %w", recordID, err)
	}

	var doc TransactionDoc
	if err := snap.DataTo(&doc); err != nil {
		return domain.Transaction{}, fmt.Errorf("GetTransaction: decoding document %s: %w", recordID, err)
	}

	return docToTransaction(snap.Ref.ID, doc), nil
}

// ListRecentTransactionsWithClient returns up to limit transactions for the
// user, most recently created first.
func ListRecentTransactionsWithClient(ctx context.Context, client *firestore.Client, userID string, limit int) ([]domain.Transaction, error) {
	it := userTransactions(client, userID).
		OrderBy("created_at", firestore.Desc).
		Limit(limit).
		Documents(ctx)
	defer it.Stop()

	var txs []domain.Transaction
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListRecentTransactions: iter next: %w", err)
		}

		var doc TransactionDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("ListRecentTransactions: decoding document %s: %w", snap.Ref.ID, err)
		}
		txs = append(txs, docToTransaction(snap.Ref.ID, doc))
	}

	return txs, nil
}

func userTransactions(client *firestore.Client, userID string) *firestore.CollectionRef {
	return client.Collection(usersCollection).Doc(userID).Collection(transactionsCollection)
}

func docToTransaction(recordID string, doc TransactionDoc) domain.Transaction {
	return domain.Transaction{
		RecordID:  recordID,
		UserID:    doc.UserID,
		Merchant:  doc.Merchant,
		Amount:    doc.Amount,
		Currency:  doc.Currency,
		Date:      doc.Date,
		Category:  doc.Category,
		CreatedAt: doc.CreatedAt,
	}
}
