package responder

import (
	"context"
	"fmt"

	"github.com/posmock/posmock/model"
)

// FiscalItem is one line of the document to fiscalise.
type FiscalItem struct {
	ItemID          int    `json:"item_id"`
	ItemDescription string `json:"item_description"`
	ItemPriceNet    int    `json:"item_price_net"`
	ItemPriceGross  int    `json:"item_price_gross"`
	ItemVATValue    int    `json:"item_vat_value"`
	Quantity        int    `json:"quantity"`
}

// FiscalRequest is the inbound fiscal-printer document.
type FiscalRequest struct {
	OrderID       int          `json:"order_id"`
	KioskID       string       `json:"kiosk_id"`
	Items         []FiscalItem `json:"items"`
	TotalNet      int          `json:"total_net"`
	TotalVAT      int          `json:"total_vat"`
	TotalGross    int          `json:"total_gross"`
	PaymentMethod string       `json:"payment_method"`
}

// FiscalReceiptItem is one printed receipt line.
type FiscalReceiptItem struct {
	ItemID      int    `json:"item_id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	PriceNet    int    `json:"price_net"`
	VAT         int    `json:"vat"`
	PriceGross  int    `json:"price_gross"`
}

// FiscalReceipt is the fiscal document produced on success.
type FiscalReceipt struct {
	OFDRegNumber         string              `json:"ofd_reg_number"`
	FiscalDocumentNumber string              `json:"fiscal_document_number"`
	FNNumber             string              `json:"fn_number"`
	OrderID              int                 `json:"order_id"`
	IssuedAt             string              `json:"issued_at"`
	Items                []FiscalReceiptItem `json:"items"`
	TotalNet             int                 `json:"total_net"`
	TotalVAT             int                 `json:"total_vat"`
	TotalGross           int                 `json:"total_gross"`
	Message              string              `json:"message"`
}

// FiscalResponse covers both wire forms of the printer's answer: status OK
// with a receipt, or NOT_OK with an error pair.
type FiscalResponse struct {
	Status        string         `json:"status"`
	FiscalReceipt *FiscalReceipt `json:"fiscal_receipt,omitempty"`
	ErrorCode     string         `json:"error_code,omitempty"`
	ErrorMessage  string         `json:"error_message,omitempty"`
}

// Fiscal decides and answers one fiscalisation request.
func (s *Service) Fiscal(ctx context.Context, req *FiscalRequest) (*FiscalResponse, error) {
	requestData := asMap(req)
	succeeded, mode, err := s.engine.Decide(ctx, model.ServiceFiscal, requestData)
	if err != nil {
		return nil, err
	}

	var resp *FiscalResponse
	if succeeded {
		items := make([]FiscalReceiptItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, FiscalReceiptItem{
				ItemID:      item.ItemID,
				Description: item.ItemDescription,
				Quantity:    item.Quantity,
				PriceNet:    item.ItemPriceNet,
				VAT:         item.ItemVATValue,
				PriceGross:  item.ItemPriceGross,
			})
		}
		resp = &FiscalResponse{
			Status: "OK",
			FiscalReceipt: &FiscalReceipt{
				OFDRegNumber:         "1234567890",
				FiscalDocumentNumber: fmt.Sprintf("FD-TEST-%04d", s.fiscalDocSeq.Add(1)),
				FNNumber:             "TEST-FN-0000000000000",
				OrderID:              req.OrderID,
				IssuedAt:             clockNowUTC().Format(timeLayout),
				Items:                items,
				TotalNet:             req.TotalNet,
				TotalVAT:             req.TotalVAT,
				TotalGross:           req.TotalGross,
				Message:              "Fiscal receipt generated (test)",
			},
		}
	} else {
		resp = &FiscalResponse{
			Status:       "NOT_OK",
			ErrorCode:    "FISCAL_ERR_01",
			ErrorMessage: "Fiscalization failed: OFD communication error (simulated)",
		}
	}

	s.record(ctx, model.ServiceFiscal, mode, resp.Status, requestData, asMap(resp))
	return resp, nil
}

// FiscalParams is the fiscalisation outcome in the real fiscal API shape,
// camelCase on the wire unlike the legacy receipt form.
type FiscalParams struct {
	Total                  float64 `json:"total"`
	FNNumber               string  `json:"fnNumber"`
	RegistrationNumber     string  `json:"registrationNumber"`
	FiscalDocumentNumber   int64   `json:"fiscalDocumentNumber"`
	FiscalReceiptNumber    int64   `json:"fiscalReceiptNumber"`
	FiscalDocumentSign     string  `json:"fiscalDocumentSign"`
	FiscalDocumentDateTime string  `json:"fiscalDocumentDateTime"`
	ShiftNumber            int     `json:"shiftNumber"`
	FNSURL                 string  `json:"fnsUrl"`
}

// FiscalAPIError is the error pair of the real fiscal API.
type FiscalAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FiscalAPIResponse is the new-format envelope: success with fiscalParams,
// or failure with a coded error.
type FiscalAPIResponse struct {
	Success      bool            `json:"success"`
	Error        *FiscalAPIError `json:"error"`
	FiscalParams *FiscalParams   `json:"fiscalParams"`
}

// FiscalNew answers the same fiscalisation decision in the real API format.
// It shares the document counter with Fiscal, so mixed-format clients see
// one monotonic numbering.
func (s *Service) FiscalNew(ctx context.Context, req *FiscalRequest) (*FiscalAPIResponse, error) {
	requestData := asMap(req)
	succeeded, mode, err := s.engine.Decide(ctx, model.ServiceFiscal, requestData)
	if err != nil {
		return nil, err
	}

	var resp *FiscalAPIResponse
	var status string
	if succeeded {
		docNumber := s.fiscalDocSeq.Add(1)
		resp = &FiscalAPIResponse{
			Success: true,
			FiscalParams: &FiscalParams{
				Total:                  float64(req.TotalGross) / 100,
				FNNumber:               "TEST-FN-0000000000000",
				RegistrationNumber:     "TEST-RN-0000000000",
				FiscalDocumentNumber:   docNumber,
				FiscalReceiptNumber:    docNumber,
				FiscalDocumentSign:     fmt.Sprintf("%010d", docNumber),
				FiscalDocumentDateTime: clockNowUTC().Format(timeLayout),
				ShiftNumber:            1,
				FNSURL:                 "www.nalog.gov.ru",
			},
		}
		status = "OK"
	} else {
		resp = &FiscalAPIResponse{
			Success: false,
			Error: &FiscalAPIError{
				Code:    1,
				Message: "Fiscalization failed: OFD communication error (simulated)",
			},
		}
		status = "NOT_OK"
	}

	s.record(ctx, model.ServiceFiscal, mode, status, requestData, asMap(resp))
	return resp, nil
}
