package responder

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/posmock/posmock/model"
)

// PaymentRequest is the inbound payment-terminal transaction.
type PaymentRequest struct {
	KioskID string `json:"kiosk_id"`
	OrderID int    `json:"order_id"`
	Sum     int    `json:"sum"`
}

// PaymentResponse mirrors the terminal's wire format, including the raw
// field-90 XML blob real integrations parse.
type PaymentResponse struct {
	PaymentID        int64  `json:"payment_id"`
	OrderID          int    `json:"order_id"`
	SessionID        string `json:"session_id"`
	Status           string `json:"status"`
	AuthCode         string `json:"auth_code,omitempty"`
	RRN              string `json:"rrn,omitempty"`
	TransactionID    string `json:"transaction_id"`
	TerminalID       string `json:"terminal_id"`
	MerchantID       string `json:"merchant_id"`
	ResponseCode     string `json:"response_code"`
	ResponseMessage  string `json:"response_message"`
	Amount           int    `json:"amount"`
	CurrencyCode     string `json:"currency_code"`
	PaymentDate      string `json:"payment_date"`
	CompletedAt      string `json:"completed_at"`
	ReceiptAvailable bool   `json:"receipt_available"`
	Field90Raw       string `json:"field_90_raw"`
	CustomerReceipt  string `json:"customer_receipt,omitempty"`
	MerchantReceipt  string `json:"merchant_receipt,omitempty"`
}

const (
	terminalID      = "00092240"
	merchantID      = "11111111"
	currencyRUB     = "643"
	approvedCode    = "00"
	approvedMessage = "ОДОБРЕНО"
	declinedCode    = "ER3"
	declinedMessage = "ОПЕРАЦИЯ ПРЕРВАНА^TERMINATED.JPG~"
)

// Payment decides and answers one payment transaction.
func (s *Service) Payment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error) {
	requestData := asMap(req)
	succeeded, mode, err := s.engine.Decide(ctx, model.ServicePayment, requestData)
	if err != nil {
		return nil, err
	}

	now := clockNowUTC()
	resp := &PaymentResponse{
		PaymentID:     s.paymentID.Add(1),
		OrderID:       req.OrderID,
		SessionID:     fmt.Sprintf("%d-%s", req.OrderID, now.Format("20060102T150405Z")),
		TransactionID: "0",
		TerminalID:    terminalID,
		Amount:        req.Sum,
		CurrencyCode:  currencyRUB,
		PaymentDate:   now.Format(timeLayout),
		CompletedAt:   now.Format(timeLayout),
	}
	if succeeded {
		resp.Status = "SUCCESS"
		resp.AuthCode = fmt.Sprintf("%06d", 100000+rand.Intn(900000))
		resp.RRN = fmt.Sprintf("%012d", 1+rand.Intn(999999))
		resp.MerchantID = merchantID
		resp.ResponseCode = approvedCode
		resp.ResponseMessage = approvedMessage
		resp.ReceiptAvailable = true
		resp.Field90Raw = field90Raw(req.Sum, approvedCode, approvedMessage, resp.AuthCode, resp.RRN)
		resp.CustomerReceipt = receiptText()
		resp.MerchantReceipt = receiptText()
	} else {
		resp.Status = "DECLINED"
		resp.MerchantID = "0"
		resp.ResponseCode = declinedCode
		resp.ResponseMessage = declinedMessage
		resp.Field90Raw = field90Raw(req.Sum, declinedCode, declinedMessage, "", "")
	}

	s.record(ctx, model.ServicePayment, mode, resp.Status, requestData, asMap(resp))
	return resp, nil
}

// field90Raw renders the terminal's legacy XML trailer. Approved payments
// carry auth code and RRN fields; declines carry the error code layout.
func field90Raw(amount int, responseCode, responseMessage, authCode, rrn string) string {
	ts := clockNowUTC().Format("20060102150405")
	if responseCode == approvedCode {
		return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="no"?><response><field id="0">%d</field><field id="4">643</field><field id="6">%s</field><field id="13">%s</field><field id="14">%s</field><field id="15">%s</field><field id="19">%s</field><field id="21">%s</field><field id="23">0</field><field id="25">1</field><field id="26">0</field><field id="27">00092240</field><field id="28">11111111</field><field id="39">00</field></response>`,
			amount, ts, authCode, rrn, responseCode, responseMessage, ts)
	}
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8" standalone="no"?><response><field id="0">%d</field><field id="4">643</field><field id="6">%s</field><field id="15">%s</field><field id="19">%s</field><field id="21">%s</field><field id="23">0</field><field id="25">1</field><field id="26">0</field><field id="27">00092240</field><field id="28">0</field><field id="39">53</field></response>`,
		amount, ts, responseCode, responseMessage, ts)
}

func receiptText() string {
	return "<html><body>\n    <div style='font-family: monospace;'>\n    ===========================<br>\n    ТЕСТОВЫЙ ЧЕК<br>\n    ===========================<br>\n    Дата: " +
		clockNowUTC().Format("02.01.2006 15:04") +
		"<br>\n    Терминал: 00092240<br>\n    ===========================<br>\n    ОПЛАТА ОДОБРЕНА<br>\n    ===========================<br>\n    </div></body></html>"
}
