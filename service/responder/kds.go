package responder

import (
	"context"
	"fmt"

	"github.com/posmock/posmock/model"
)

// KDSItem is one kitchen ticket line.
type KDSItem struct {
	ItemID      int    `json:"item_id"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// KDSRequest is the inbound kitchen-display ticket.
type KDSRequest struct {
	OrderID int       `json:"order_id"`
	KioskID string    `json:"kiosk_id"`
	Items   []KDSItem `json:"items"`
}

// KDSResponse covers both wire forms of the display's answer.
type KDSResponse struct {
	Status       string `json:"status"`
	KDSTicketID  string `json:"kds_ticket_id,omitempty"`
	ReceivedAt   string `json:"received_at,omitempty"`
	ErrorCode    string `json:"error_code,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// KDS decides and answers one kitchen ticket.
func (s *Service) KDS(ctx context.Context, req *KDSRequest) (*KDSResponse, error) {
	requestData := asMap(req)
	succeeded, mode, err := s.engine.Decide(ctx, model.ServiceKDS, requestData)
	if err != nil {
		return nil, err
	}

	var resp *KDSResponse
	if succeeded {
		resp = &KDSResponse{
			Status:      "OK",
			KDSTicketID: fmt.Sprintf("KDS-TEST-%04d", s.kdsTicketSeq.Add(1)),
			ReceivedAt:  clockNowUTC().Format(timeLayout),
		}
	} else {
		resp = &KDSResponse{
			Status:       "NOT_OK",
			ErrorCode:    "KDS_ERR_01",
			ErrorMessage: "KDS reject: kitchen busy (simulated)",
		}
	}

	s.record(ctx, model.ServiceKDS, mode, resp.Status, requestData, asMap(resp))
	return resp, nil
}
