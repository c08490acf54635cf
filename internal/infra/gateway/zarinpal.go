package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/config"
	"github.com/AmirHosseinPoorsaeed/ecommerce-api/internal/usecase"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const statusOK = 100

// ZarinPal WebGate REST クライアント
type ZarinpalClient struct {
	http        *resty.Client
	merchantID  string
	requestURL  string
	verifyURL   string
	startPayURL string
}

func NewZarinpalClient(cfg config.ZarinpalConfig) *ZarinpalClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ZarinpalClient{
		http: resty.New().
			SetTimeout(timeout).
			SetHeader("Accept", "application/json").
			SetHeader("Content-Type", "application/json"),
		merchantID:  cfg.MerchantID,
		requestURL:  cfg.RequestURL,
		verifyURL:   cfg.VerifyURL,
		startPayURL: strings.TrimRight(cfg.StartPayURL, "/"),
	}
}

type paymentRequestBody struct {
	MerchantID  string `json:"MerchantID"`
	Amount      int64  `json:"Amount"`
	Description string `json:"Description"`
	CallbackURL string `json:"CallbackURL"`
}

type paymentRequestResponse struct {
	Status    int           `json:"Status"`
	Authority string        `json:"Authority"`
	Errors    gatewayErrors `json:"errors"`
}

type verifyBody struct {
	MerchantID string `json:"MerchantID"`
	Amount     int64  `json:"Amount"`
	Authority  string `json:"Authority"`
}

type verifyResponse struct {
	Status int           `json:"Status"`
	RefID  json.Number   `json:"RefID"`
	Errors gatewayErrors `json:"errors"`
}

type gatewayError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// errors はオブジェクト1つの場合と配列の場合がある
type gatewayErrors []gatewayError

func (g *gatewayErrors) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*g = nil
		return nil
	}

	if data[0] == '[' {
		var list []gatewayError
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*g = list
		return nil
	}

	var one gatewayError
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	//空オブジェクトはエラー無し
	if one.Code == 0 && one.Message == "" {
		*g = nil
		return nil
	}
	*g = gatewayErrors{one}
	return nil
}

func (g gatewayErrors) toUsecase() []usecase.GatewayError {
	if len(g) == 0 {
		return nil
	}
	out := make([]usecase.GatewayError, 0, len(g))
	for _, e := range g {
		out = append(out, usecase.GatewayError{Code: e.Code, Message: e.Message})
	}
	return out
}

func (c *ZarinpalClient) post(ctx context.Context, spanName string, url string, body interface{}) ([]byte, error) {
	ctx, span := otel.Tracer("gateway/zarinpal").Start(ctx, spanName)
	defer span.End()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("zarinpal %s: %w", spanName, err)
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode()))

	// 4xx でも JSON の errors が返るので本文を読む
	if resp.StatusCode() >= 500 {
		return nil, fmt.Errorf("zarinpal %s: unexpected status %d", spanName, resp.StatusCode())
	}
	return resp.Body(), nil
}

func (c *ZarinpalClient) RequestPayment(ctx context.Context, req usecase.PaymentRequest) (usecase.PaymentRequestResult, error) {
	raw, err := c.post(ctx, "PaymentRequest", c.requestURL, paymentRequestBody{
		MerchantID:  c.merchantID,
		Amount:      req.Amount,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
	})
	if err != nil {
		return usecase.PaymentRequestResult{}, err
	}

	var body paymentRequestResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return usecase.PaymentRequestResult{}, fmt.Errorf("zarinpal PaymentRequest: decode: %w", err)
	}

	errs := body.Errors.toUsecase()
	if body.Status != statusOK && len(errs) == 0 {
		errs = []usecase.GatewayError{{Code: body.Status, Message: "payment request rejected"}}
	}

	return usecase.PaymentRequestResult{
		Authority: body.Authority,
		Errors:    errs,
	}, nil
}

func (c *ZarinpalClient) VerifyPayment(ctx context.Context, req usecase.PaymentVerifyRequest) (usecase.PaymentVerifyResult, error) {
	raw, err := c.post(ctx, "PaymentVerification", c.verifyURL, verifyBody{
		MerchantID: c.merchantID,
		Amount:     req.Amount,
		Authority:  req.Authority,
	})
	if err != nil {
		return usecase.PaymentVerifyResult{}, err
	}

	var body verifyResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return usecase.PaymentVerifyResult{}, fmt.Errorf("zarinpal PaymentVerification: decode: %w", err)
	}

	return usecase.PaymentVerifyResult{
		Status: body.Status,
		RefID:  body.RefID.String(),
		Raw:    raw,
		Errors: body.Errors.toUsecase(),
	}, nil
}

func (c *ZarinpalClient) StartPayURL(authority string) string {
	return c.startPayURL + "/" + authority
}
