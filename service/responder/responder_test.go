package responder

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/posmock/posmock/model"
	"github.com/posmock/posmock/service/approval"
	"github.com/posmock/posmock/service/audit"
	"github.com/posmock/posmock/service/engine"
	qmem "github.com/posmock/posmock/service/messaging/memory"
	"github.com/posmock/posmock/service/policy"
)

func newResponder(t *testing.T) (*Service, *policy.Store, *audit.Log) {
	t.Helper()
	store := policy.NewStore()
	log := audit.NewLog(100)
	eng := engine.New(store, approval.New())
	return New(eng, log), store, log
}

func TestPaymentApproved(t *testing.T) {
	svc, _, log := newResponder(t)

	resp, err := svc.Payment(context.Background(), &PaymentRequest{KioskID: "K1", OrderID: 7, Sum: 1500})
	assert.NoError(t, err)

	assert.Equal(t, "SUCCESS", resp.Status)
	assert.Equal(t, int64(1810), resp.PaymentID)
	assert.Equal(t, 7, resp.OrderID)
	assert.Len(t, resp.AuthCode, 6)
	assert.Len(t, resp.RRN, 12)
	assert.Equal(t, "00092240", resp.TerminalID)
	assert.Equal(t, "11111111", resp.MerchantID)
	assert.Equal(t, "00", resp.ResponseCode)
	assert.Equal(t, 1500, resp.Amount)
	assert.Equal(t, "643", resp.CurrencyCode)
	assert.True(t, resp.ReceiptAvailable)
	assert.True(t, strings.HasPrefix(resp.SessionID, "7-"))
	assert.Contains(t, resp.Field90Raw, `<field id="39">00</field>`)
	assert.Contains(t, resp.Field90Raw, resp.AuthCode)
	assert.NotEmpty(t, resp.CustomerReceipt)

	assert.Equal(t, 1, log.Len())
	entry := log.Recent(1)[0]
	assert.Equal(t, model.ServicePayment, entry.Service)
	assert.Equal(t, model.ModeAutoSuccess, entry.Mode)
	assert.Equal(t, "SUCCESS", entry.Status)
	assert.Equal(t, "K1", entry.Request["kiosk_id"])
}

func TestPaymentDeclined(t *testing.T) {
	svc, store, _ := newResponder(t)
	assert.NoError(t, store.Set(model.ServicePayment, &model.ServicePolicy{Mode: model.ModeAutoFailure}))

	resp, err := svc.Payment(context.Background(), &PaymentRequest{KioskID: "K1", OrderID: 7, Sum: 900})
	assert.NoError(t, err)

	assert.Equal(t, "DECLINED", resp.Status)
	assert.Empty(t, resp.AuthCode)
	assert.Equal(t, "ER3", resp.ResponseCode)
	assert.Equal(t, "0", resp.MerchantID)
	assert.False(t, resp.ReceiptAvailable)
	assert.Contains(t, resp.Field90Raw, `<field id="39">53</field>`)
	assert.Empty(t, resp.CustomerReceipt)
}

func TestPaymentIDsIncrement(t *testing.T) {
	svc, _, _ := newResponder(t)
	first, err := svc.Payment(context.Background(), &PaymentRequest{OrderID: 1, Sum: 10})
	assert.NoError(t, err)
	second, err := svc.Payment(context.Background(), &PaymentRequest{OrderID: 2, Sum: 20})
	assert.NoError(t, err)
	assert.Equal(t, first.PaymentID+1, second.PaymentID)
}

func TestFiscalReceipt(t *testing.T) {
	svc, _, log := newResponder(t)

	req := &FiscalRequest{
		OrderID: 12,
		KioskID: "K2",
		Items: []FiscalItem{{
			ItemID:          1,
			ItemDescription: "Burger",
			ItemPriceNet:    100,
			ItemPriceGross:  120,
			ItemVATValue:    20,
			Quantity:        2,
		}},
		TotalNet:      200,
		TotalVAT:      40,
		TotalGross:    240,
		PaymentMethod: "card",
	}
	resp, err := svc.Fiscal(context.Background(), req)
	assert.NoError(t, err)

	assert.Equal(t, "OK", resp.Status)
	assert.NotNil(t, resp.FiscalReceipt)
	assert.Equal(t, "FD-TEST-0001", resp.FiscalReceipt.FiscalDocumentNumber)
	assert.Equal(t, "TEST-FN-0000000000000", resp.FiscalReceipt.FNNumber)
	assert.Equal(t, 12, resp.FiscalReceipt.OrderID)
	assert.Len(t, resp.FiscalReceipt.Items, 1)
	assert.Equal(t, "Burger", resp.FiscalReceipt.Items[0].Description)
	assert.Equal(t, 240, resp.FiscalReceipt.TotalGross)

	// Document numbers keep counting.
	resp, err = svc.Fiscal(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, "FD-TEST-0002", resp.FiscalReceipt.FiscalDocumentNumber)

	assert.Equal(t, 2, log.Len())
}

func TestFiscalFailure(t *testing.T) {
	svc, store, _ := newResponder(t)
	assert.NoError(t, store.Set(model.ServiceFiscal, &model.ServicePolicy{Mode: model.ModeAutoFailure}))

	resp, err := svc.Fiscal(context.Background(), &FiscalRequest{OrderID: 3})
	assert.NoError(t, err)
	assert.Equal(t, "NOT_OK", resp.Status)
	assert.Nil(t, resp.FiscalReceipt)
	assert.Equal(t, "FISCAL_ERR_01", resp.ErrorCode)
}

func TestKDSTicket(t *testing.T) {
	svc, _, _ := newResponder(t)

	resp, err := svc.KDS(context.Background(), &KDSRequest{OrderID: 5, KioskID: "K1"})
	assert.NoError(t, err)
	assert.Equal(t, "OK", resp.Status)
	assert.Equal(t, "KDS-TEST-0001", resp.KDSTicketID)
	assert.NotEmpty(t, resp.ReceivedAt)
}

func TestKDSRejected(t *testing.T) {
	svc, store, _ := newResponder(t)
	assert.NoError(t, store.Set(model.ServiceKDS, &model.ServicePolicy{Mode: model.ModeAutoFailure}))

	resp, err := svc.KDS(context.Background(), &KDSRequest{OrderID: 5})
	assert.NoError(t, err)
	assert.Equal(t, "NOT_OK", resp.Status)
	assert.Empty(t, resp.KDSTicketID)
	assert.Equal(t, "KDS_ERR_01", resp.ErrorCode)
}

func TestDecisionEventsPublished(t *testing.T) {
	store := policy.NewStore()
	log := audit.NewLog(100)
	events := qmem.NewQueue[model.LogEntry](qmem.DefaultConfig())
	svc := New(engine.New(store, approval.New()), log, WithEvents(events))

	_, err := svc.KDS(context.Background(), &KDSRequest{OrderID: 9})
	assert.NoError(t, err)

	message, err := events.Consume(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, model.ServiceKDS, message.T().Service)
	assert.Equal(t, "OK", message.T().Status)
}

func TestSequenceScenarioPayment(t *testing.T) {
	svc, store, _ := newResponder(t)
	assert.NoError(t, store.Set(model.ServicePayment, &model.ServicePolicy{
		Mode:     model.ModeSequence,
		Sequence: &model.SequenceState{SuccessCount: 2, FailureCount: 1},
	}))

	var approvedCount, declinedCount int
	for i := 0; i < 3; i++ {
		resp, err := svc.Payment(context.Background(), &PaymentRequest{OrderID: i, Sum: 100})
		assert.NoError(t, err)
		switch resp.Status {
		case "SUCCESS":
			approvedCount++
		case "DECLINED":
			declinedCount++
		}
	}
	assert.Equal(t, 2, approvedCount)
	assert.Equal(t, 1, declinedCount)
}

func TestFiscalNewFormat(t *testing.T) {
	svc, store, log := newResponder(t)

	resp, err := svc.FiscalNew(context.Background(), &FiscalRequest{OrderID: 4, TotalGross: 25000})
	assert.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, 250.0, resp.FiscalParams.Total)
	assert.Equal(t, "TEST-FN-0000000000000", resp.FiscalParams.FNNumber)
	assert.EqualValues(t, 1, resp.FiscalParams.FiscalDocumentNumber)
	assert.Equal(t, resp.FiscalParams.FiscalDocumentNumber, resp.FiscalParams.FiscalReceiptNumber)
	assert.Len(t, resp.FiscalParams.FiscalDocumentSign, 10)
	assert.Equal(t, 1, log.Len())

	// Both fiscal formats draw from the same document counter.
	legacy, err := svc.Fiscal(context.Background(), &FiscalRequest{OrderID: 5})
	assert.NoError(t, err)
	assert.Equal(t, "FD-TEST-0002", legacy.FiscalReceipt.FiscalDocumentNumber)

	assert.NoError(t, store.Set(model.ServiceFiscal, &model.ServicePolicy{Mode: model.ModeAutoFailure}))
	failed, err := svc.FiscalNew(context.Background(), &FiscalRequest{OrderID: 6})
	assert.NoError(t, err)
	assert.False(t, failed.Success)
	assert.Nil(t, failed.FiscalParams)
	assert.Equal(t, 1, failed.Error.Code)
}
