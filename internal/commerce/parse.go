package commerce

import (
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/grayfield/photodex/internal/derive"
	"github.com/grayfield/photodex/internal/models"
)

// orderDetail mirrors the upstream XML response. An order may carry several
// line-item sections, each contributing product fields and options.
type orderDetail struct {
	XMLName xml.Name   `xml:"OrderDetail"`
	Orders  []orderXML `xml:"Order"`
}

type orderXML struct {
	OrderID       string        `xml:"OrderID"`
	OrderDate     string        `xml:"OrderDate"`
	CustomerID    string        `xml:"CustomerID"`
	OrderComments string        `xml:"OrderComments"`
	LineItems     []lineItemXML `xml:"LineItems>LineItem"`
}

type lineItemXML struct {
	ProductName string `xml:"ProductName"`
	ProductID   string `xml:"ProductID"`
	ProductCode string `xml:"ProductCode"`
	Options     string `xml:"Options"`
}

// orderDateLayouts are tried in order; upstream has shipped both ISO and
// US-style timestamps over the years.
var orderDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006",
}

// parseOrderDetail normalizes one upstream response into a metadata record.
// The record carries everything ingestion derives from upstream data;
// lastIndexedUtc and needsReview are the orchestrator's to set.
func parseOrderDetail(orderNumber string, body []byte) (*models.MetadataRecord, error) {
	var detail orderDetail
	if err := xml.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("parse response for order %s: %w", orderNumber, err)
	}
	if len(detail.Orders) == 0 {
		return nil, fmt.Errorf("order %s: %w", orderNumber, ErrOrderNotFound)
	}
	order := detail.Orders[0]

	var (
		names, ids, codes []string
		options           []models.Option
	)
	for _, item := range order.LineItems {
		name := strings.TrimSpace(item.ProductName)
		code := strings.TrimSpace(item.ProductCode)
		if name == "" && code != "" {
			// Nameless line items fall back to their code, which then
			// also feeds keyword generation.
			name = code
		}
		names = appendUnique(names, name)
		ids = appendUnique(ids, strings.TrimSpace(item.ProductID))
		codes = appendUnique(codes, code)
		options = append(options, derive.ParseOptions(item.Options)...)
	}

	productName := strings.Join(names, ", ")
	productCode := strings.Join(codes, ", ")

	return &models.MetadataRecord{
		Version:       models.SchemaVersion,
		OrderNumber:   orderNumber,
		OrderDate:     parseOrderDate(order.OrderDate),
		CustomerID:    strings.TrimSpace(order.CustomerID),
		OrderComments: strings.TrimSpace(order.OrderComments),
		ProductName:   productName,
		ProductID:     strings.Join(ids, ", "),
		ProductCode:   productCode,
		Options:       options,
		Keywords:      derive.Keywords(productName, options),
		IsCustom:      derive.IsCustom(productName, productCode),
	}, nil
}

func appendUnique(list []string, s string) []string {
	if s == "" {
		return list
	}
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}

func parseOrderDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range orderDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
