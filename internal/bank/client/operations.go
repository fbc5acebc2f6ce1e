package client

import (
	"context"
	"net/http"
	"net/url"

	"facebank/internal/bank/envelope"
	"facebank/internal/bank/models"
	"facebank/internal/face"
)

// Success markers, one canonical convention per endpoint.
var (
	markerSendCode     = envelope.MessageEquals(models.MessageCodeSent)
	markerConfirmCode  = envelope.FlagTrue("success")
	markerEnrollFace   = envelope.FieldsPresent("account_number", "pin")
	markerLogin        = envelope.All(envelope.MessageEquals(models.MessageLoginSuccess), envelope.FieldsPresent("session_token"))
	markerVerifyFace   = envelope.FlagTrue("success")
	markerMutation     = envelope.FlagNotFalse("success")
	markerTransactions = envelope.Marker(nil)
	markerUserInfo     = envelope.Marker(nil)
)

func (c *Client) SendCode(ctx context.Context, name, email string) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpSendCode,
		method: http.MethodPost,
		path:   models.PathSendCode,
		body:   models.SendCodeRequest{Name: name, Email: email},
		marker: markerSendCode,
	})
}

func (c *Client) ConfirmCode(ctx context.Context, email, code string) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpConfirmCode,
		method: http.MethodPost,
		path:   models.PathConfirmCode,
		body:   models.ConfirmCodeRequest{Email: email, Code: code},
		marker: markerConfirmCode,
	})
}

func (c *Client) EnrollFace(ctx context.Context, email string, sample face.Sample) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpEnrollFace,
		method: http.MethodPost,
		path:   models.PathEnrollFace,
		body:   models.EnrollFaceRequest{Email: email, Face: sample.Data},
		marker: markerEnrollFace,
	})
}

func (c *Client) Login(ctx context.Context, accountHandle, pin string, sample face.Sample) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpLogin,
		method: http.MethodPost,
		path:   models.PathLogin,
		body:   models.LoginRequest{AccountNumber: accountHandle, Pin: pin, Face: sample.Data},
		marker: markerLogin,
	})
}

func (c *Client) VerifyFace(ctx context.Context, token, accountHandle string, sample face.Sample) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpVerifyFace,
		method: http.MethodPost,
		path:   models.PathVerifyFace,
		token:  token,
		body:   models.VerifyFaceRequest{AccountNumber: accountHandle, Face: sample.Data},
		marker: markerVerifyFace,
	})
}

func (c *Client) Transfer(ctx context.Context, token, fromAccount, toAccount string, amount float64, sample face.Sample) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpTransfer,
		method: http.MethodPost,
		path:   models.PathTransfer,
		token:  token,
		body: models.TransferRequest{
			FromAccount: fromAccount,
			ToAccount:   toAccount,
			Amount:      amount,
			Face:        sample.Data,
		},
		marker: markerMutation,
	})
}

func (c *Client) ChangePin(ctx context.Context, email, newPin string, sample face.Sample) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpChangePin,
		method: http.MethodPost,
		path:   models.PathChangePin,
		body:   models.ChangePinRequest{Email: email, NewPin: newPin, Face: sample.Data},
		marker: markerMutation,
	})
}

func (c *Client) ListTransactions(ctx context.Context, token, accountHandle string) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpListTransactions,
		method: http.MethodGet,
		path:   models.PathTransactions,
		query:  url.Values{"AccountNumber": []string{accountHandle}},
		token:  token,
		marker: markerTransactions,
	})
}

func (c *Client) UserInfo(ctx context.Context, token, accountHandle string) (envelope.Result, error) {
	return c.do(ctx, call{
		op:     models.OpUserInfo,
		method: http.MethodGet,
		path:   models.PathUserInfo,
		query:  url.Values{"AccountNumber": []string{accountHandle}},
		token:  token,
		marker: markerUserInfo,
	})
}
