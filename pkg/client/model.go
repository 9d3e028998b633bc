package client

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/target365/sdk-go/internal/authentication"
	"github.com/target365/sdk-go/pkg/sms"
)

// PublicKey describes a public key registered with the API.
type PublicKey = authentication.PublicKeyRecord

// Message priorities.
const (
	PriorityHigh   = "High"
	PriorityNormal = "Normal"
	PriorityLow    = "Low"
)

// Out-message status codes.
const (
	StatusQueued   = "Queued"
	StatusSent     = "Sent"
	StatusFailed   = "Failed"
	StatusOk       = "Ok"
	StatusReversed = "Reversed"
)

// DefaultTimeToLive is the default validity of an out-message, in minutes.
const DefaultTimeToLive = 120

// DeliveryMode controls redelivery of out-messages.
type DeliveryMode int

const (
	AtMostOnce DeliveryMode = iota
	AtLeastOnce
)

var deliveryModeNames = map[DeliveryMode]string{
	AtMostOnce:  "AtMostOnce",
	AtLeastOnce: "AtLeastOnce",
}

func (m DeliveryMode) String() string {
	if name, ok := deliveryModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("DeliveryMode(%d)", int(m))
}

func (m DeliveryMode) MarshalJSON() ([]byte, error) {
	name, ok := deliveryModeNames[m]
	if !ok {
		return nil, fmt.Errorf("invalid delivery mode %d", int(m))
	}
	return json.Marshal(name)
}

func (m *DeliveryMode) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		var value int
		if err := json.Unmarshal(b, &value); err != nil {
			return fmt.Errorf("invalid delivery mode %s", b)
		}
		*m = DeliveryMode(value)
		return nil
	}
	for mode, modeName := range deliveryModeNames {
		if modeName == name {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("invalid delivery mode %q", name)
}

// OutMessage is an SMS sent through the API.
type OutMessage struct {
	TransactionID      string                 `json:"transactionId,omitempty"`
	SessionID          string                 `json:"sessionId,omitempty"`
	CorrelationID      string                 `json:"correlationId,omitempty"`
	KeywordID          string                 `json:"keywordId,omitempty"`
	Sender             string                 `json:"sender"`
	Recipient          string                 `json:"recipient"`
	Content            string                 `json:"content"`
	SendTime           *time.Time             `json:"sendTime,omitempty"`
	TimeToLive         int                    `json:"timeToLive"` // Minutes
	Priority           string                 `json:"priority,omitempty"`
	DeliveryMode       DeliveryMode           `json:"deliveryMode"`
	DeliveryReportURL  string                 `json:"deliveryReportUrl,omitempty"`
	LastModified       *time.Time             `json:"lastModified,omitempty"`
	Created            *time.Time             `json:"created,omitempty"`
	StatusCode         string                 `json:"statusCode,omitempty"`
	DetailedStatusCode string                 `json:"detailedStatusCode,omitempty"`
	Delivered          *bool                  `json:"delivered,omitempty"`
	OperatorID         string                 `json:"operatorId,omitempty"`
	AllowUnicode       *bool                  `json:"allowUnicode,omitempty"` // nil lets the server decide
	SmscTransactionID  string                 `json:"smscTransactionId,omitempty"`
	SmscMessageParts   int                    `json:"smscMessageParts,omitempty"`
	Tags               []string               `json:"tags,omitempty"`
	Properties         map[string]interface{} `json:"properties,omitempty"`
}

// NewOutMessage returns an OutMessage with default priority and time-to-live.
func NewOutMessage(sender, recipient, content string) *OutMessage {
	return &OutMessage{
		Sender:     sender,
		Recipient:  recipient,
		Content:    content,
		TimeToLive: DefaultTimeToLive,
		Priority:   PriorityNormal,
	}
}

// SmsParts returns the number of SMS parts needed to send the message.
func (m *OutMessage) SmsParts() int {
	return sms.Parts(m.Content, sms.PolicyFromAllowUnicode(m.AllowUnicode))
}

// NonGSM7Characters returns the characters of the message content that cannot be sent without
// Unicode. If AllowUnicode is false, these characters will be substituted.
func (m *OutMessage) NonGSM7Characters() []rune {
	return sms.NonGSM7Characters(m.Content)
}

// InMessage is an SMS received by a short number or keyword.
type InMessage struct {
	TransactionID   string                 `json:"transactionId"`
	KeywordID       string                 `json:"keywordId,omitempty"`
	Sender          string                 `json:"sender"`
	Recipient       string                 `json:"recipient"`
	Content         string                 `json:"content"`
	IsStopMessage   bool                   `json:"isStopMessage"`
	ProcessAttempts int                    `json:"processAttempts"`
	Processed       *bool                  `json:"processed,omitempty"`
	Created         time.Time              `json:"created"`
	Tags            []string               `json:"tags,omitempty"`
	Properties      map[string]interface{} `json:"properties,omitempty"`
}

// DeliveryReport is posted to an out-message's DeliveryReportURL when its status changes.
type DeliveryReport struct {
	CorrelationID      string   `json:"correlationId"`
	TransactionID      string   `json:"transactionId"`
	Price              *float64 `json:"price,omitempty"`
	Sender             string   `json:"sender"`
	Recipient          string   `json:"recipient"`
	Operator           string   `json:"operator,omitempty"`
	StatusCode         string   `json:"statusCode"`
	DetailedStatusCode string   `json:"detailedStatusCode,omitempty"`
	Delivered          *bool    `json:"delivered,omitempty"`
	Billed             *bool    `json:"billed,omitempty"`
	SmscTransactionID  string   `json:"smscTransactionId,omitempty"`
	SmscMessageParts   int      `json:"smscMessageParts,omitempty"`
}
