package gateway

// response is the Paystack API envelope.
type response[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type createRecipientRequest struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

type recipientData struct {
	RecipientCode string `json:"recipient_code"`
	Active        bool   `json:"active"`
}

type transferRequest struct {
	Source    string `json:"source"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

type airtimeRequest struct {
	Customer  string `json:"customer"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}

type dataRequest struct {
	Customer  string `json:"customer"`
	Plan      string `json:"plan"`
	Reference string `json:"reference"`
}

type cableRequest struct {
	Customer  string `json:"customer"`
	Provider  string `json:"provider"`
	Plan      string `json:"plan"`
	Reference string `json:"reference"`
}

type electricityRequest struct {
	Customer  string `json:"customer"`
	Provider  string `json:"provider"`
	Amount    int64  `json:"amount"`
	Reference string `json:"reference"`
}
