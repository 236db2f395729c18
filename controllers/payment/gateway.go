package paymentControllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strconv"

	"github.com/orderflow-labs/storefront-api/errs"
	"github.com/orderflow-labs/storefront-api/models"
	"github.com/razorpay/razorpay-go"
)

// Provider builds an external payment session for an order. Gateways are
// opaque capability providers: the core only stores the reference they
// return and reacts to their confirmation webhooks.
type Provider interface {
	Name() string
	CreateSession(order *models.Order, phone string) (url, externalRef string, err error)
}

func providerFor(name string) (Provider, error) {
	switch name {
	case "", "telr":
		return &telrProvider{}, nil
	case "razorpay":
		return &razorpayProvider{}, nil
	default:
		return nil, errs.Validation("unknown payment provider: " + name)
	}
}

// -------- Telr --------

type telrProvider struct{}

func (p *telrProvider) Name() string { return "telr" }

type telrSessionResponse struct {
	Order struct {
		Ref string `json:"ref"`
		URL string `json:"url"`
	} `json:"order"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// getTelrConfig picks the production endpoint, test mode if needed.
func getTelrConfig() (storeID int, authKey, apiURL string, testMode int, err error) {
	storeID, _ = strconv.Atoi(os.Getenv("TELR_STORE_ID"))
	authKey = os.Getenv("TELR_AUTH_KEY")
	apiURL = os.Getenv("TELR_API_URL")
	testMode = 0

	mode := os.Getenv("TELR_MODE")
	if mode == "sandbox" || mode == "dev" {
		testMode = 1 // use test mode even on the live endpoint
	}

	if storeID == 0 || authKey == "" || apiURL == "" {
		return 0, "", "", 0, fmt.Errorf("telr configuration missing")
	}
	return storeID, authKey, apiURL, testMode, nil
}

func (p *telrProvider) CreateSession(order *models.Order, phone string) (string, string, error) {
	storeID, authKey, apiURL, testMode, err := getTelrConfig()
	if err != nil {
		return "", "", err
	}

	payload := map[string]interface{}{
		"method":  "create",
		"store":   storeID,
		"authkey": authKey,
		"order": map[string]interface{}{
			"cartid":      order.Ref,
			"test":        testMode,
			"amount":      fmt.Sprintf("%.2f", order.Total),
			"currency":    order.Currency,
			"description": fmt.Sprintf("Order %s", order.Ref),
		},
		"customer": map[string]interface{}{
			"phone": phone,
		},
		"return": map[string]string{
			"authorised": os.Getenv("TELR_SUCCESS_URL"),
			"declined":   os.Getenv("TELR_FAILURE_URL"),
			"cancelled":  os.Getenv("TELR_CANCEL_URL"),
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("failed to reach telr: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("telr API error (%d): %s", resp.StatusCode, string(body))
	}

	var session telrSessionResponse
	if err := json.Unmarshal(body, &session); err != nil {
		return "", "", fmt.Errorf("failed to parse telr response: %w", err)
	}
	if session.Error != nil {
		return "", "", fmt.Errorf("telr error: %s", session.Error.Message)
	}
	if session.Order.URL == "" {
		return "", "", fmt.Errorf("telr returned empty payment URL")
	}
	return session.Order.URL, session.Order.Ref, nil
}

// -------- Razorpay --------

type razorpayProvider struct{}

func (p *razorpayProvider) Name() string { return "razorpay" }

func (p *razorpayProvider) CreateSession(order *models.Order, phone string) (string, string, error) {
	keyID := os.Getenv("RAZORPAY_KEY_ID")
	keySecret := os.Getenv("RAZORPAY_KEY_SECRET")
	if keyID == "" || keySecret == "" {
		return "", "", fmt.Errorf("razorpay configuration missing")
	}

	client := razorpay.NewClient(keyID, keySecret)
	data := map[string]interface{}{
		"amount":   int64(math.Round(order.Total * 100)), // smallest currency unit
		"currency": order.Currency,
		"receipt":  order.Ref,
	}
	body, err := client.Order.Create(data, nil)
	if err != nil {
		return "", "", fmt.Errorf("razorpay order create failed: %w", err)
	}

	ref, ok := body["id"].(string)
	if !ok || ref == "" {
		return "", "", fmt.Errorf("razorpay returned no order id")
	}
	// Razorpay checkout happens client-side against the order id; there is
	// no hosted URL to hand back.
	return "", ref, nil
}
