package extraction

import (
	"context"
	"fmt"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"
)

// Fields holds the raw receipt fields returned by the extraction service.
// An empty field means the processor did not find it in the document; the
// defaults are applied later by Normalize, never here.
type Fields struct {
	Merchant   string // supplier_name mention text
	AmountText string // total_amount normalized value, e.g. "42.50"
	DateText   string // receipt_date normalized value, ISO "YYYY-MM-DD"
	Currency   string // currency normalized value, e.g. "USD"
}

// Extractor extracts structured receipt fields from raw document bytes.
type Extractor interface {
	Extract(ctx context.Context, content []byte, mimeType string) (Fields, error)
}

// DocumentAIExtractor calls a Document AI receipt processor.
type DocumentAIExtractor struct {
	client        *documentai.DocumentProcessorClient
	processorName string
}

// NewDocumentAIExtractor creates an extractor bound to one receipt processor.
// The client targets the processor's regional endpoint and is reused for the
// process lifetime.
func NewDocumentAIExtractor(ctx context.Context, projectID, location, processorID string) (*DocumentAIExtractor, error) {
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", location)
	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		return nil, fmt.Errorf("NewDocumentAIExtractor: creating client: %w", err)
	}

	return &DocumentAIExtractor{
		client:        client,
		processorName: fmt.Sprintf("projects/%s/locations/%s/processors/%s", projectID, location, processorID),
	}, nil
}

// Close releases the underlying Document AI client.
func (e *DocumentAIExtractor) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// Extract sends the document to the receipt processor and collects the
// entities this system consumes. A field the processor did not find stays
// empty; only a failed call is an error.
func (e *DocumentAIExtractor) Extract(ctx context.Context, content []byte, mimeType string) (Fields, error) {
	req := &documentaipb.ProcessRequest{
		Name: e.processorName,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
	}

	resp, err := e.client.ProcessDocument(ctx, req)
	if err != nil {
		return Fields{}, fmt.Errorf("Extract: process document: %w", err)
	}

	var fields Fields
	for _, entity := range resp.GetDocument().GetEntities() {
		switch entity.GetType() {
		case "supplier_name":
			fields.Merchant = entity.GetMentionText()
		case "total_amount":
			fields.AmountText = entity.GetNormalizedValue().GetText()
		case "receipt_date":
			fields.DateText = entity.GetNormalizedValue().GetText()
		case "currency":
			fields.Currency = entity.GetNormalizedValue().GetText()
		}
	}

	return fields, nil
}
