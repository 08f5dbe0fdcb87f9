package domain

import (
	"encoding/json"
	"time"
)

type Pincode struct {
	Pincode          string `json:"pincode"`
	City             string `json:"city"`
	District         string `json:"district,omitempty"`
	State            string `json:"state"`
	IsServiceable    bool   `json:"isServiceable"`
	CODAvailable     bool   `json:"codAvailable"`
	DeliveryEstimate int    `json:"deliveryEstimate"`
}

// PincodeCheck is the public serviceability answer for one pincode.
type PincodeCheck struct {
	Serviceable bool   `json:"serviceable"`
	City        string `json:"city,omitempty"`
	State       string `json:"state,omitempty"`
	COD         bool   `json:"cod"`
	Estimate    int    `json:"estimate,omitempty"`
}

type PincodeQuery struct {
	Page   int
	Limit  int
	Search string
	State  string
}

type PincodePage struct {
	Pincodes []Pincode `json:"pincodes"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
	Limit    int       `json:"limit"`
	Total    int       `json:"total"`
}

// Bulk pincode actions.
const (
	PincodeEnable     = "enable"
	PincodeDisable    = "disable"
	PincodeEnableCOD  = "enableCOD"
	PincodeDisableCOD = "disableCOD"
	PincodeSetDays    = "setDays"
)

type PincodeBulkUpdate struct {
	Action string   `json:"action"`
	IDs    []string `json:"ids"`
	Days   int      `json:"days,omitempty"`
}

type TicketStatus string

const (
	TicketOpen       TicketStatus = "Open"
	TicketInProgress TicketStatus = "In Progress"
	TicketResolved   TicketStatus = "Resolved"
)

func (s TicketStatus) Valid() bool {
	return s == TicketOpen || s == TicketInProgress || s == TicketResolved
}

type Ticket struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	WhatsApp  string       `json:"whatsapp"`
	Message   string       `json:"message"`
	Status    TicketStatus `json:"status,omitempty"`
	AdminNote string       `json:"adminNote,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

func (t *Ticket) UnmarshalJSON(b []byte) error {
	type plain Ticket
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*t = Ticket(raw.plain)
	t.ID = firstNonEmpty(raw.MongoID, t.ID)
	return nil
}

// TicketUpdate carries the admin-editable ticket fields; nil means unchanged.
type TicketUpdate struct {
	Status    *TicketStatus `json:"status,omitempty"`
	AdminNote *string       `json:"adminNote,omitempty"`
}

type AdminUser struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
