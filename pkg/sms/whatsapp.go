package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/twilio/twilio-go"
	api "github.com/twilio/twilio-go/rest/api/v2010"
)

// WhatsAppProvider delivers messages over the Twilio WhatsApp channel.
// Numbers are prefixed with "whatsapp:" as the API requires.
type WhatsAppProvider struct {
	client     *twilio.RestClient
	fromNumber string
}

func NewWhatsAppProvider(accountSID, authToken, fromNumber string) *WhatsAppProvider {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &WhatsAppProvider{
		client:     client,
		fromNumber: fromNumber,
	}
}

func (w *WhatsAppProvider) SendSMS(ctx context.Context, request *SMSRequest) (*SMSResponse, error) {
	params := &api.CreateMessageParams{}
	params.SetTo(whatsappAddress(request.To))
	from := request.From
	if from == "" {
		from = w.fromNumber
	}
	params.SetFrom(whatsappAddress(from))
	params.SetBody(request.Message)

	resp, err := w.client.Api.CreateMessage(params)
	if err != nil {
		return &SMSResponse{
			Status: "failed",
			Error:  err.Error(),
		}, err
	}

	return &SMSResponse{
		MessageID: *resp.Sid,
		Status:    string(*resp.Status),
	}, nil
}

func (w *WhatsAppProvider) SendBulkSMS(ctx context.Context, requests []*SMSRequest) ([]*SMSResponse, error) {
	responses := make([]*SMSResponse, len(requests))

	for i, req := range requests {
		resp, err := w.SendSMS(ctx, req)
		if err != nil {
			resp = &SMSResponse{
				Status: "failed",
				Error:  err.Error(),
			}
		}
		responses[i] = resp
	}

	return responses, nil
}

func (w *WhatsAppProvider) GetDeliveryStatus(ctx context.Context, messageID string) (*DeliveryStatus, error) {
	resp, err := w.client.Api.FetchMessage(messageID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch message status: %w", err)
	}

	status := &DeliveryStatus{
		MessageID: messageID,
	}
	if resp.Status != nil {
		status.Status = string(*resp.Status)
	}
	if resp.ErrorCode != nil {
		status.ErrorCode = fmt.Sprintf("%d", *resp.ErrorCode)
	}
	if resp.ErrorMessage != nil {
		status.ErrorMessage = *resp.ErrorMessage
	}

	return status, nil
}

func whatsappAddress(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
